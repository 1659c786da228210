package dto

import (
	"time"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
	"craftflow/internal/domain/orders"
)

// OrderLineRequest is one position of a new order.
type OrderLineRequest struct {
	ProductID        string  `json:"productId" binding:"required"`
	Quantity         float64 `json:"quantity" binding:"required"`
	ChannelFulfilled bool    `json:"channelFulfilled"`
}

// CreateOrderRequest is the request body for creating an order manually.
type CreateOrderRequest struct {
	Number     string             `json:"number" binding:"required"`
	ChannelRef string             `json:"channelRef"`
	Customer   string             `json:"customer"`
	Lines      []OrderLineRequest `json:"lines" binding:"required"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateOrderRequest) ToEntity() (*orders.Order, error) {
	order := orders.NewOrder(r.Number, r.ChannelRef, r.Customer)
	for _, lr := range r.Lines {
		productID, err := id.Parse(lr.ProductID)
		if err != nil {
			return nil, apperror.NewValidation("invalid product id").
				WithDetail("productId", lr.ProductID)
		}
		line := order.AddLine(productID, types.NewQuantityFromFloat64(lr.Quantity))
		line.ChannelFulfilled = lr.ChannelFulfilled
	}
	return order, nil
}

// OrderLineResponse is one line of an order response.
type OrderLineResponse struct {
	ID                string  `json:"id"`
	ProductID         string  `json:"productId"`
	Quantity          float64 `json:"quantity"`
	FulfillmentType   string  `json:"fulfillmentType"`
	FulfillmentStatus string  `json:"fulfillmentStatus"`
	ChannelFulfilled  bool    `json:"channelFulfilled"`
	Note              string  `json:"note,omitempty"`
}

// TimelineEntryResponse is one status transition of an order.
type TimelineEntryResponse struct {
	Status string    `json:"status"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// OrderResponse is the response body for an order.
type OrderResponse struct {
	ID         string                  `json:"id"`
	Number     string                  `json:"number"`
	ChannelRef string                  `json:"channelRef,omitempty"`
	Customer   string                  `json:"customer,omitempty"`
	FlowStatus string                  `json:"flowStatus"`
	Lines      []OrderLineResponse     `json:"lines,omitempty"`
	Timeline   []TimelineEntryResponse `json:"timeline,omitempty"`
	CreatedAt  time.Time               `json:"createdAt"`
}

// FromOrder creates response DTO from domain entity.
func FromOrder(o *orders.Order, timeline []orders.TimelineEntry) *OrderResponse {
	resp := &OrderResponse{
		ID:         o.ID.String(),
		Number:     o.Number,
		ChannelRef: o.ChannelRef,
		Customer:   o.Customer,
		FlowStatus: string(o.FlowStatus),
		CreatedAt:  o.CreatedAt,
	}
	for _, line := range o.Lines {
		resp.Lines = append(resp.Lines, OrderLineResponse{
			ID:                line.ID.String(),
			ProductID:         line.ProductID.String(),
			Quantity:          line.Quantity.Float64(),
			FulfillmentType:   string(line.FulfillmentType),
			FulfillmentStatus: string(line.FulfillmentStatus),
			ChannelFulfilled:  line.ChannelFulfilled,
			Note:              line.Note,
		})
	}
	for _, entry := range timeline {
		resp.Timeline = append(resp.Timeline, TimelineEntryResponse{
			Status: string(entry.Status),
			Reason: entry.Reason,
			At:     entry.At,
		})
	}
	return resp
}
