package channel

import (
	"context"
	"fmt"
	"time"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/types"
	"craftflow/internal/domain/catalogs/product"
	"craftflow/internal/domain/fulfillment"
	"craftflow/internal/domain/orders"
	"craftflow/pkg/logger"
)

// Report summarizes one sync run.
type Report struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// SyncService imports orders from the sales channel. Each order is applied
// independently; a mid-run upstream failure keeps everything already applied.
type SyncService struct {
	client     Client
	products   product.Repository
	orders     *orders.Service
	ordersRepo orders.Repository
	engine     *fulfillment.Engine
	aggregator *orders.StatusAggregator

	// PageDelay paces requests between feed pages
	PageDelay time.Duration
}

// NewSyncService wires the channel import pipeline.
func NewSyncService(
	client Client,
	products product.Repository,
	orderSvc *orders.Service,
	ordersRepo orders.Repository,
	engine *fulfillment.Engine,
	aggregator *orders.StatusAggregator,
) *SyncService {
	return &SyncService{
		client:     client,
		products:   products,
		orders:     orderSvc,
		ordersRepo: ordersRepo,
		engine:     engine,
		aggregator: aggregator,
		PageDelay:  500 * time.Millisecond,
	}
}

// Sync walks the channel order feed page by page and imports every order.
// It returns what it accomplished even when the feed fails part way through.
func (s *SyncService) Sync(ctx context.Context) (Report, error) {
	var report Report

	for page := 1; ; page++ {
		feed, err := s.client.FetchOrders(ctx, page)
		if err != nil {
			logger.Error(ctx, "channel feed failed, keeping applied orders",
				"page", page,
				"error", err,
			)
			return report, err
		}

		for i := range feed.Orders {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			s.importOrder(ctx, &feed.Orders[i], &report)
		}

		if !feed.HasMore {
			break
		}
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		case <-time.After(s.PageDelay):
		}
	}

	logger.Info(ctx, "channel sync finished",
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *SyncService) importOrder(ctx context.Context, co *Order, report *Report) {
	existing, err := s.orders.GetByChannelRef(ctx, co.Ref)
	switch {
	case err == nil:
		if err := s.applyChannelStatus(ctx, existing, co); err != nil {
			logger.Error(ctx, "channel status import failed",
				"ref", co.Ref,
				"error", err,
			)
			report.Failed++
			return
		}
		if terminalChannelStatus(co.Status) {
			report.Updated++
		} else {
			report.Skipped++
		}
		return
	case !apperror.IsNotFound(err):
		logger.Error(ctx, "channel ref lookup failed", "ref", co.Ref, "error", err)
		report.Failed++
		return
	}

	order, err := s.buildOrder(ctx, co)
	if err != nil {
		logger.Error(ctx, "channel order rejected",
			"ref", co.Ref,
			"error", err,
		)
		report.Failed++
		return
	}

	if err := s.orders.Create(ctx, order); err != nil {
		logger.Error(ctx, "channel order create failed", "ref", co.Ref, "error", err)
		report.Failed++
		return
	}
	if _, err := s.engine.ProcessOrder(ctx, order.ID); err != nil {
		logger.Error(ctx, "fulfillment processing failed after import",
			"ref", co.Ref,
			"order_id", order.ID,
			"error", err,
		)
		report.Failed++
		return
	}
	report.Created++
}

// buildOrder translates a channel order into a domain order, resolving
// each SKU to a catalog product.
func (s *SyncService) buildOrder(ctx context.Context, co *Order) (*orders.Order, error) {
	number := co.Number
	if number == "" {
		number = co.Ref
	}
	order := orders.NewOrder(number, co.Ref, co.Customer)

	for _, cl := range co.Lines {
		prod, err := s.products.GetBySKU(ctx, cl.SKU)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewBusinessRule("UNKNOWN_SKU",
					fmt.Sprintf("unknown channel SKU %q", cl.SKU))
			}
			return nil, err
		}
		line := order.AddLine(prod.ID, types.NewQuantityFromFloat64(cl.Quantity))
		line.ChannelFulfilled = co.ChannelFulfilled
	}
	return order, nil
}

// applyChannelStatus imports terminal channel verdicts onto an already
// imported order. Non-terminal channel statuses never override local state.
func (s *SyncService) applyChannelStatus(ctx context.Context, order *orders.Order, co *Order) error {
	if !terminalChannelStatus(co.Status) {
		return nil
	}
	if order.FlowStatus.IsTerminal() {
		return nil
	}

	target := orders.StatusShipped
	note := "shipped per channel"
	if co.Status == "cancelled" {
		target = orders.StatusCancelled
		note = "cancelled by channel"
	}

	lines, err := s.ordersRepo.GetLines(ctx, order.ID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if line.FulfillmentStatus == orders.StatusShipped ||
			line.FulfillmentStatus == orders.StatusCancelled {
			continue
		}
		if err := s.ordersRepo.UpdateLineStatus(ctx, line.ID, target, note); err != nil {
			return err
		}
	}
	_, err = s.aggregator.RecomputeOrder(ctx, order.ID)
	return err
}

func terminalChannelStatus(status string) bool {
	switch status {
	case "delivered", "shipped", "cancelled":
		return true
	}
	return false
}
