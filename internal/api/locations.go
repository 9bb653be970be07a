package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// LocationsService exposes the location-resource endpoints, including the
// multipart create used by the wizard and the geocode suggestion lookup.
type LocationsService struct {
	c *Client
}

func NewLocationsService(c *Client) *LocationsService { return &LocationsService{c: c} }

// LocationListOptions filters and paginates a location listing.
type LocationListOptions struct {
	Page    *int
	Limit   *int
	City    string
	OwnerID string
	Search  string
}

// List fetches a page of locations.
func (s *LocationsService) List(ctx context.Context, opts LocationListOptions) (*LocationList, error) {
	page, limit, err := ValidatePagination(opts.Page, opts.Limit)
	if err != nil {
		return nil, err
	}
	if opts.OwnerID != "" {
		if err := ValidateObjectID("ownerId", opts.OwnerID); err != nil {
			return nil, err
		}
	}
	data, err := s.c.GetPaged(ctx, "/locations", map[string]any{
		"page":    page,
		"limit":   limit,
		"city":    opts.City,
		"ownerId": opts.OwnerID,
		"search":  opts.Search,
	})
	if err != nil {
		return nil, err
	}
	var list LocationList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, Classify(fmt.Errorf("decode location list: %w", err))
	}
	return &list, nil
}

// Details fetches a single location by id.
func (s *LocationsService) Details(ctx context.Context, locationID string) (*Location, error) {
	if err := ValidateObjectID("locationId", locationID); err != nil {
		return nil, err
	}
	data, err := s.c.Get(ctx, "/locations/"+locationID)
	if err != nil {
		return nil, err
	}
	var loc Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, Classify(fmt.Errorf("decode location: %w", err))
	}
	return &loc, nil
}

// Create uploads a new location as a multipart payload: one JSON blob field
// with the structured data plus the image files keyed by room index.  The
// payload is produced by the wizard's serializer; this module only moves it.
func (s *LocationsService) Create(ctx context.Context, payload *Multipart) (*Location, error) {
	data, err := s.c.Upload(ctx, "/locations/create", payload)
	if err != nil {
		return nil, err
	}
	var loc Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, Classify(fmt.Errorf("decode created location: %w", err))
	}
	return &loc, nil
}

// LocationUpdate carries the editable location fields for partial updates.
type LocationUpdate struct {
	Name           *string  `json:"name,omitempty"`
	Description    *string  `json:"description,omitempty"`
	Rules          *string  `json:"rules,omitempty"`
	Fee            *float64 `json:"fee,omitempty"`
	Active         *bool    `json:"active,omitempty"`
	Verified       *bool    `json:"verified,omitempty"`
	RefundPolicyID *string  `json:"refundPolicyId,omitempty"`
}

// Update applies a partial update to a location.
func (s *LocationsService) Update(ctx context.Context, locationID string, update LocationUpdate) (*Location, error) {
	if err := ValidateObjectID("locationId", locationID); err != nil {
		return nil, err
	}
	data, err := s.c.Put(ctx, "/locations/"+locationID, update)
	if err != nil {
		return nil, err
	}
	var loc Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, Classify(fmt.Errorf("decode location: %w", err))
	}
	return &loc, nil
}

// Delete removes a location.
func (s *LocationsService) Delete(ctx context.Context, locationID string) error {
	if err := ValidateObjectID("locationId", locationID); err != nil {
		return err
	}
	_, err := s.c.Delete(ctx, "/locations/"+locationID)
	return err
}

// Geocode fetches address suggestions for a partially typed address.  The
// wizard only treats an address as valid once the user picks one of these.
func (s *LocationsService) Geocode(ctx context.Context, query string) ([]GeocodeSuggestion, error) {
	if strings.TrimSpace(query) == "" {
		return nil, NewValidationError("query", "address query must not be empty")
	}
	data, err := s.c.GetPaged(ctx, "/utils/geocode", map[string]any{"query": query})
	if err != nil {
		return nil, err
	}
	var suggestions []GeocodeSuggestion
	if err := json.Unmarshal(data, &suggestions); err != nil {
		return nil, Classify(fmt.Errorf("decode geocode suggestions: %w", err))
	}
	return suggestions, nil
}
