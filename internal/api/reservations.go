package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// Reservation states accepted by UpdateStatus.
var reservationStatuses = map[string]bool{
	"PENDING":   true,
	"CONFIRMED": true,
	"CANCELLED": true,
	"REFUNDED":  true,
}

// ReservationsService exposes the reservation-resource endpoints.
type ReservationsService struct {
	c *Client
}

func NewReservationsService(c *Client) *ReservationsService { return &ReservationsService{c: c} }

// ReservationListOptions filters and paginates a reservation listing.
type ReservationListOptions struct {
	Page       *int
	Limit      *int
	LocationID string
	UserID     string
	Status     string
}

// List fetches a page of reservations, optionally scoped to a location, a
// user or a status.
func (s *ReservationsService) List(ctx context.Context, opts ReservationListOptions) (*ReservationList, error) {
	page, limit, err := ValidatePagination(opts.Page, opts.Limit)
	if err != nil {
		return nil, err
	}
	if opts.LocationID != "" {
		if err := ValidateObjectID("locationId", opts.LocationID); err != nil {
			return nil, err
		}
	}
	if opts.UserID != "" {
		if err := ValidateObjectID("userId", opts.UserID); err != nil {
			return nil, err
		}
	}
	data, err := s.c.GetPaged(ctx, "/reservations", map[string]any{
		"page":       page,
		"limit":      limit,
		"locationId": opts.LocationID,
		"userId":     opts.UserID,
		"status":     opts.Status,
	})
	if err != nil {
		return nil, err
	}
	var list ReservationList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, Classify(fmt.Errorf("decode reservation list: %w", err))
	}
	return &list, nil
}

// UpdateStatus changes a reservation's state.  Unknown states are rejected
// locally so a typo never reaches the backend.
func (s *ReservationsService) UpdateStatus(ctx context.Context, reservationID, status string) (*Reservation, error) {
	if err := ValidateObjectID("reservationId", reservationID); err != nil {
		return nil, err
	}
	if !reservationStatuses[status] {
		return nil, NewValidationError("status", fmt.Sprintf("unknown reservation status %q", status))
	}
	data, err := s.c.Put(ctx, "/reservations/"+reservationID, map[string]string{"status": status})
	if err != nil {
		return nil, err
	}
	var r Reservation
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, Classify(fmt.Errorf("decode reservation: %w", err))
	}
	return &r, nil
}
