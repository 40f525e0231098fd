package provider

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Source produces the snapshot for a run along with its provenance.
type Source interface {
	Fetch(ctx context.Context, window Window) (Result, error)
}

type direct struct {
	p Provider
}

// Direct wraps p without any fallback: its errors reach the caller.
func Direct(p Provider) Source {
	return &direct{p: p}
}

func (d *direct) Fetch(ctx context.Context, window Window) (Result, error) {
	snapshot, err := d.p.Fetch(ctx, window)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", d.p.Name(), err)
	}
	return Result{Snapshot: snapshot, Source: d.p.Name()}, nil
}

type fallbackSource struct {
	primary  Provider
	fallback Provider
}

// WithFallback serves from primary and switches to fallback when primary
// fails. The result records why the fallback was used.
func WithFallback(primary, fallback Provider) Source {
	return &fallbackSource{primary: primary, fallback: fallback}
}

func (f *fallbackSource) Fetch(ctx context.Context, window Window) (Result, error) {
	snapshot, err := f.primary.Fetch(ctx, window)
	if err == nil {
		return Result{Snapshot: snapshot, Source: f.primary.Name()}, nil
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	log.Warn().
		Err(err).
		Str("primary", f.primary.Name()).
		Str("fallback", f.fallback.Name()).
		Msg("Primary data source failed, serving fallback snapshot")

	snapshot, fbErr := f.fallback.Fetch(ctx, window)
	if fbErr != nil {
		return Result{}, fmt.Errorf("%s failed (%v) and fallback %s failed: %w",
			f.primary.Name(), err, f.fallback.Name(), fbErr)
	}

	return Result{
		Snapshot:       snapshot,
		Source:         f.fallback.Name(),
		FallbackReason: fmt.Sprintf("%s: %v", f.primary.Name(), err),
	}, nil
}
