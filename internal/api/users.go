package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// UsersService exposes the user-resource endpoints.  Like every resource
// module it validates inputs locally, then delegates transport concerns to
// the client's resilient helpers.
type UsersService struct {
	c *Client
}

func NewUsersService(c *Client) *UsersService { return &UsersService{c: c} }

// UserListOptions filters and paginates a user listing.  Nil page/limit take
// the shared defaults.
type UserListOptions struct {
	Page   *int
	Limit  *int
	Search string
}

// List fetches a page of users.
func (s *UsersService) List(ctx context.Context, opts UserListOptions) (*UserList, error) {
	page, limit, err := ValidatePagination(opts.Page, opts.Limit)
	if err != nil {
		return nil, err
	}
	data, err := s.c.GetPaged(ctx, "/users", map[string]any{
		"page":   page,
		"limit":  limit,
		"search": opts.Search,
	})
	if err != nil {
		return nil, err
	}
	var list UserList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, Classify(fmt.Errorf("decode user list: %w", err))
	}
	return &list, nil
}

// Details fetches a single user by id.
func (s *UsersService) Details(ctx context.Context, userID string) (*User, error) {
	if err := ValidateObjectID("userId", userID); err != nil {
		return nil, err
	}
	data, err := s.c.Get(ctx, "/users/"+userID)
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, Classify(fmt.Errorf("decode user: %w", err))
	}
	return &u, nil
}

// Search runs a free-text user search.  An empty query is rejected locally.
func (s *UsersService) Search(ctx context.Context, query string, page, limit *int) (*UserList, error) {
	if strings.TrimSpace(query) == "" {
		return nil, NewValidationError("query", "search query must not be empty")
	}
	p, l, err := ValidatePagination(page, limit)
	if err != nil {
		return nil, err
	}
	data, err := s.c.GetPaged(ctx, "/users/search", map[string]any{
		"q":     query,
		"page":  p,
		"limit": l,
	})
	if err != nil {
		return nil, err
	}
	var list UserList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, Classify(fmt.Errorf("decode user search: %w", err))
	}
	return &list, nil
}

// UserUpdate carries the editable user fields.  Nil fields are left
// untouched server-side, which is how the list pages send their per-row
// pending-edit diffs.
type UserUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Active   *bool   `json:"active,omitempty"`
	Special  *bool   `json:"special,omitempty"`
}

// Update applies a partial update to a user.
func (s *UsersService) Update(ctx context.Context, userID string, update UserUpdate) (*User, error) {
	if err := ValidateObjectID("userId", userID); err != nil {
		return nil, err
	}
	data, err := s.c.Put(ctx, "/users/"+userID, update)
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, Classify(fmt.Errorf("decode user: %w", err))
	}
	return &u, nil
}

// Delete removes a user.
func (s *UsersService) Delete(ctx context.Context, userID string) error {
	if err := ValidateObjectID("userId", userID); err != nil {
		return err
	}
	_, err := s.c.Delete(ctx, "/users/"+userID)
	return err
}
