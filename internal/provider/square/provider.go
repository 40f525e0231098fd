package square

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/provider"
)

var tracer = otel.Tracer("github.com/andresuchdata/stockrisk/internal/provider/square")

func (c *Client) Name() string { return "square" }

// Fetch pulls inventory and sales concurrently.
func (c *Client) Fetch(ctx context.Context, window provider.Window) (domain.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "square.Fetch")
	defer span.End()

	var snap domain.Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := c.FetchInventory(gctx)
		snap.Inventory = items
		return err
	})
	g.Go(func() error {
		sales, err := c.FetchSales(gctx, window)
		snap.Sales = sales
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Snapshot{}, err
	}

	span.SetAttributes(
		attribute.Int("square.items", len(snap.Inventory)),
		attribute.Int("square.sales", len(snap.Sales)),
	)
	return snap, nil
}

var _ provider.Provider = (*Client)(nil)
