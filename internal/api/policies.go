package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// PoliciesService exposes the refund-policy endpoints.
type PoliciesService struct {
	c *Client
}

func NewPoliciesService(c *Client) *PoliciesService { return &PoliciesService{c: c} }

// List fetches all refund policies.  The collection is small enough that the
// backend does not paginate it.
func (s *PoliciesService) List(ctx context.Context) ([]RefundPolicy, error) {
	data, err := s.c.Get(ctx, "/refundPolicy/policies")
	if err != nil {
		return nil, err
	}
	var policies []RefundPolicy
	if err := json.Unmarshal(data, &policies); err != nil {
		return nil, Classify(fmt.Errorf("decode refund policies: %w", err))
	}
	return policies, nil
}

// Create adds a refund policy.  Percentage is a whole 0-100 share of the
// booking returned when cancelled at least DaysBefore days in advance.
func (s *PoliciesService) Create(ctx context.Context, policy RefundPolicy) (*RefundPolicy, error) {
	if strings.TrimSpace(policy.Name) == "" {
		return nil, NewValidationError("name", "policy name must not be empty")
	}
	if policy.Percentage < 0 || policy.Percentage > 100 {
		return nil, NewValidationError("percentage", "refund percentage must be between 0 and 100")
	}
	if policy.DaysBefore < 0 {
		return nil, NewValidationError("daysBefore", "daysBefore must not be negative")
	}
	data, err := s.c.Post(ctx, "/refundPolicy/policies", policy)
	if err != nil {
		return nil, err
	}
	var created RefundPolicy
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, Classify(fmt.Errorf("decode refund policy: %w", err))
	}
	return &created, nil
}

// Delete removes a refund policy.
func (s *PoliciesService) Delete(ctx context.Context, policyID string) error {
	if err := ValidateObjectID("policyId", policyID); err != nil {
		return err
	}
	_, err := s.c.Delete(ctx, "/refundPolicy/policies/"+policyID)
	return err
}
