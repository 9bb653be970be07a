package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// ActivitiesService exposes the activity catalog: the platform-defined
// activity types and the free-form service labels locations can offer.
// Endpoint paths keep the backend's Italian naming.
type ActivitiesService struct {
	c *Client
}

func NewActivitiesService(c *Client) *ActivitiesService { return &ActivitiesService{c: c} }

// Types fetches the activity type catalog.
func (s *ActivitiesService) Types(ctx context.Context) ([]ActivityType, error) {
	data, err := s.c.Get(ctx, "/attivita/tipologie")
	if err != nil {
		return nil, err
	}
	var types []ActivityType
	if err := json.Unmarshal(data, &types); err != nil {
		return nil, Classify(fmt.Errorf("decode activity types: %w", err))
	}
	return types, nil
}

// Services fetches the service label catalog.
func (s *ActivitiesService) Services(ctx context.Context) ([]string, error) {
	data, err := s.c.Get(ctx, "/attivita/servizi")
	if err != nil {
		return nil, err
	}
	var services []string
	if err := json.Unmarshal(data, &services); err != nil {
		return nil, Classify(fmt.Errorf("decode services: %w", err))
	}
	return services, nil
}
