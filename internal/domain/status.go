package domain

import "strings"

// RiskTier is an ordered risk label: low < medium < high < critical.
type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskMedium   RiskTier = "medium"
	RiskHigh     RiskTier = "high"
	RiskCritical RiskTier = "critical"
)

var riskTierRanks = map[RiskTier]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Rank returns the ordinal of the tier, -1 for unknown values.
func (t RiskTier) Rank() int {
	if rank, ok := riskTierRanks[t]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether t is the same as or above other.
func (t RiskTier) AtLeast(other RiskTier) bool {
	return t.Rank() >= other.Rank() && t.Rank() >= 0
}

// ParseRiskTier returns the tier for a given label (case-insensitive).
func ParseRiskTier(label string) (RiskTier, bool) {
	tier := RiskTier(strings.ToLower(strings.TrimSpace(label)))
	_, ok := riskTierRanks[tier]
	return tier, ok
}

// RiskKind tags an assessment as stockout or overstock.
type RiskKind string

const (
	KindStockout  RiskKind = "stockout"
	KindOverstock RiskKind = "overstock"
)

// RecommendationType is the kind of action a recommendation asks for.
type RecommendationType string

const (
	RecommendReorder RecommendationType = "reorder"
	RecommendReduce  RecommendationType = "reduce"
	RecommendMonitor RecommendationType = "monitor"
	RecommendHealthy RecommendationType = "healthy"
)

// Priority is how soon a recommendation should be acted on.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityInfo   Priority = "info"
)
