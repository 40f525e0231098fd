package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/andresuchdata/stockrisk/internal/analysis"
	"github.com/andresuchdata/stockrisk/internal/broker"
	"github.com/andresuchdata/stockrisk/internal/cache"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/metrics"
	"github.com/andresuchdata/stockrisk/internal/provider"
)

// ErrItemNotFound is returned when the latest run has no item with the requested ID.
var ErrItemNotFound = errors.New("item not found")

// RequestSource labels runs computed from a caller-supplied snapshot.
const RequestSource = "request"

// DefaultDegradedRetry is how long a fallback run is served before the
// primary source is tried again.
const DefaultDegradedRetry = 30 * time.Second

var tracer = otel.Tracer("github.com/andresuchdata/stockrisk/internal/service")

type Options struct {
	// SourceName keys the cached run; it names the configured data source.
	SourceName string
	WindowDays int
	Workers    int
	// MaxAge bounds how long a run is reused before Latest refreshes it.
	// Zero keeps runs until the next explicit refresh.
	MaxAge time.Duration
	// DegradedRetry bounds how long a fallback run is reused.
	DegradedRetry time.Duration
}

// RiskService runs analyses over the configured data source and keeps the latest run.
type RiskService struct {
	source     provider.Source
	sourceName string
	windowDays int
	maxAge     time.Duration
	retryAfter time.Duration
	analyzer   *analysis.Analyzer
	cache      cache.RunCache
	alerts     broker.AlertPublisher
	now        func() time.Time

	refreshMu sync.Mutex
	mu        sync.RWMutex
	latest    *domain.AnalysisRun
}

func NewRiskService(source provider.Source, cacheImpl cache.RunCache, alerts broker.AlertPublisher, opts Options) *RiskService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopRunCache()
	}
	if alerts == nil {
		alerts = broker.NewNoopPublisher()
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = provider.DefaultWindowDays
	}
	if opts.DegradedRetry <= 0 {
		opts.DegradedRetry = DefaultDegradedRetry
	}

	return &RiskService{
		source:     source,
		sourceName: opts.SourceName,
		windowDays: opts.WindowDays,
		maxAge:     opts.MaxAge,
		retryAfter: opts.DegradedRetry,
		analyzer:   analysis.NewAnalyzer(analysis.Config{Workers: opts.Workers}),
		cache:      cacheImpl,
		alerts:     alerts,
		now:        time.Now,
	}
}

func (s *RiskService) WindowDays() int { return s.windowDays }

// Refresh fetches a fresh snapshot and analyzes it. The run replaces the
// latest one in memory. Runs from the primary source are also cached and their
// critical items published as alerts; fallback runs are kept in memory only.
func (s *RiskService) Refresh(ctx context.Context) (*domain.AnalysisRun, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	ctx, span := tracer.Start(ctx, "RiskService.Refresh")
	defer span.End()

	started := time.Now()
	defer func() { metrics.AnalysisDuration.Observe(time.Since(started).Seconds()) }()

	res, err := s.source.Fetch(ctx, provider.NewWindow(s.windowDays))
	if err != nil {
		metrics.AnalysisRunsTotal.WithLabelValues(s.sourceName, "fetch_error").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	if res.Degraded() {
		metrics.FallbackTotal.WithLabelValues(s.sourceName).Inc()
	}

	run, err := s.analyze(res.Snapshot, res.Source)
	if err != nil {
		metrics.AnalysisRunsTotal.WithLabelValues(res.Source, "invalid").Inc()
		span.RecordError(err)
		return nil, err
	}
	run.Degraded = res.Degraded()
	run.FallbackReason = res.FallbackReason
	span.SetAttributes(
		attribute.String("run.id", run.ID),
		attribute.String("run.source", run.Source),
		attribute.Int("run.items", len(run.Items)),
	)

	s.mu.Lock()
	s.latest = run
	s.mu.Unlock()

	if !run.Degraded {
		if err := s.cache.SetLatest(ctx, s.cacheKey(), run); err != nil {
			log.Warn().Err(err).Str("run_id", run.ID).Msg("risk: cache set latest run failed")
		}
		s.publishAlerts(ctx, run)
	}
	recordRun(run)

	log.Info().
		Str("run_id", run.ID).
		Str("source", run.Source).
		Bool("degraded", run.Degraded).
		Int("items", len(run.Items)).
		Int("critical_alerts", run.Summary.CriticalAlerts).
		Dur("duration", time.Since(started)).
		Msg("Analysis run completed")

	return run, nil
}

// Latest returns the most recent run: from memory while it is current, then
// from the cache, and otherwise by running a refresh. A fallback run is current
// only for DegradedRetry, so the primary source is retried after that. When the
// refresh fails the previous run is served.
func (s *RiskService) Latest(ctx context.Context) (*domain.AnalysisRun, error) {
	s.mu.RLock()
	held := s.latest
	s.mu.RUnlock()
	if held != nil && s.current(held) {
		return held, nil
	}

	if cached, ok, err := s.cache.GetLatest(ctx, s.cacheKey()); err == nil && ok && s.current(cached) {
		metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
		s.mu.Lock()
		if s.latest == held {
			s.latest = cached
		}
		run := s.latest
		s.mu.Unlock()
		return run, nil
	} else if err != nil {
		metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Msg("risk: cache get latest run failed")
	} else {
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
	}

	run, err := s.Refresh(ctx)
	if err != nil && held != nil {
		log.Warn().Err(err).Str("run_id", held.ID).Bool("degraded", held.Degraded).Msg("risk: refresh failed, serving previous run")
		return held, nil
	}
	return run, err
}

// current reports whether run can still be served without a refresh.
func (s *RiskService) current(run *domain.AnalysisRun) bool {
	age := s.now().Sub(run.GeneratedAt)
	if run.Degraded {
		return age < s.retryAfter
	}
	return s.maxAge <= 0 || age < s.maxAge
}

// Worklist returns the latest run's items matching filter, highest risk first.
func (s *RiskService) Worklist(ctx context.Context, filter domain.RiskFilter) ([]domain.AnalyzedItem, *domain.AnalysisRun, error) {
	run, err := s.Latest(ctx)
	if err != nil {
		return nil, nil, err
	}
	return analysis.Filter(run.Items, filter), run, nil
}

func (s *RiskService) Item(ctx context.Context, id string) (domain.AnalyzedItem, error) {
	run, err := s.Latest(ctx)
	if err != nil {
		return domain.AnalyzedItem{}, err
	}
	item, ok := run.FindItem(id)
	if !ok {
		return domain.AnalyzedItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return item, nil
}

// AnalyzeSnapshot runs the engine over a caller-supplied snapshot. The run is
// neither cached nor published.
func (s *RiskService) AnalyzeSnapshot(snapshot domain.Snapshot) (*domain.AnalysisRun, error) {
	return s.analyze(snapshot, RequestSource)
}

func (s *RiskService) analyze(snapshot domain.Snapshot, source string) (*domain.AnalysisRun, error) {
	if err := domain.ValidateSnapshot(snapshot); err != nil {
		return nil, err
	}

	items := s.analyzer.Analyze(snapshot.Inventory, snapshot.Sales)
	return &domain.AnalysisRun{
		ID:          uuid.NewString(),
		Source:      source,
		WindowDays:  s.windowDays,
		GeneratedAt: s.now().UTC(),
		Summary:     analysis.Summarize(items, s.windowDays),
		Items:       items,
	}, nil
}

func (s *RiskService) publishAlerts(ctx context.Context, run *domain.AnalysisRun) {
	n, err := s.alerts.PublishAlerts(ctx, run)
	if err != nil {
		metrics.AlertPublishFailuresTotal.Inc()
		log.Warn().Err(err).Str("run_id", run.ID).Msg("risk: publish alerts failed")
		return
	}
	metrics.AlertsPublishedTotal.Add(float64(n))
}

func (s *RiskService) cacheKey() cache.RunKey {
	return cache.RunKey{Source: s.sourceName, WindowDays: s.windowDays}
}

func recordRun(run *domain.AnalysisRun) {
	metrics.AnalysisRunsTotal.WithLabelValues(run.Source, "ok").Inc()
	metrics.ItemsAnalyzed.Set(float64(run.Summary.TotalItems))
	metrics.CriticalAlerts.Set(float64(run.Summary.CriticalAlerts))
	metrics.CapitalTied.Set(run.Summary.TotalCapitalTied)
	for kind, tiers := range run.Summary.TierCounts {
		for tier, n := range tiers {
			metrics.ItemsByTier.WithLabelValues(string(kind), string(tier)).Set(float64(n))
		}
	}
}
