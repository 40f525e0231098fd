// Package provider defines how analysis runs acquire their input snapshot.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

// ErrNotConfigured is returned by providers that lack the settings they need
// (credentials, endpoints, paths).
var ErrNotConfigured = errors.New("provider not configured")

// DefaultWindowDays is the sales history length used when a window is unset.
const DefaultWindowDays = 30

// Window is the sales history range requested from a provider: Days calendar
// days ending at End.
type Window struct {
	Days int
	End  time.Time
}

// NewWindow returns a window of days ending now.
func NewWindow(days int) Window {
	if days <= 0 {
		days = DefaultWindowDays
	}
	return Window{Days: days, End: time.Now().UTC()}
}

// Start is the first instant inside the window.
func (w Window) Start() time.Time {
	return w.End.AddDate(0, 0, -w.Days)
}

// Contains reports whether t falls within the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start()) && !t.After(w.End)
}

// Provider supplies the inventory and sales snapshot for one analysis run.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, window Window) (domain.Snapshot, error)
}

// Result is a fetched snapshot together with where it came from.
type Result struct {
	Snapshot       domain.Snapshot
	Source         string
	FallbackReason string
}

// Degraded reports whether the snapshot came from the fallback provider.
func (r Result) Degraded() bool {
	return r.FallbackReason != ""
}

// FilterSales keeps the sales that fall inside the window.
func FilterSales(sales []domain.SaleRecord, window Window) []domain.SaleRecord {
	out := make([]domain.SaleRecord, 0, len(sales))
	for _, s := range sales {
		if window.Contains(s.Date) {
			out = append(out, s)
		}
	}
	return out
}
