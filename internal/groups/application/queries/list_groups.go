package queries

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/aira/internal/groups/domain"
)

// ListGroupsQuery lists the groups and chats page.
type ListGroupsQuery struct {
	// Search filters by chat name.
	Search string
}

// ListGroupsResult contains groups after filtering.
type ListGroupsResult struct {
	Groups []domain.Group
	// Total counts the merged listing before the search filter.
	Total int
}

// ActiveRules sums the active rule counts of the filtered groups.
func (r ListGroupsResult) ActiveRules() int {
	n := 0
	for _, g := range r.Groups {
		n += g.NumActiveRules
	}
	return n
}

// ListGroupsHandler handles ListGroupsQuery.
type ListGroupsHandler struct {
	gateway domain.Gateway
}

// NewListGroupsHandler creates a new ListGroupsHandler.
func NewListGroupsHandler(gateway domain.Gateway) *ListGroupsHandler {
	return &ListGroupsHandler{gateway: gateway}
}

// Handle executes the query.
func (h *ListGroupsHandler) Handle(ctx context.Context, q ListGroupsQuery) (*ListGroupsResult, error) {
	listing, err := h.gateway.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	all := listing.Merge()
	return &ListGroupsResult{
		Groups: domain.Filter(all, q.Search),
		Total:  len(all),
	}, nil
}

// GetGroupQuery looks up one group or chat.
type GetGroupQuery struct {
	WID string
}

// GetGroupHandler handles GetGroupQuery.
type GetGroupHandler struct {
	gateway domain.Gateway
}

// NewGetGroupHandler creates a new GetGroupHandler.
func NewGetGroupHandler(gateway domain.Gateway) *GetGroupHandler {
	return &GetGroupHandler{gateway: gateway}
}

// Handle executes the query.
func (h *GetGroupHandler) Handle(ctx context.Context, q GetGroupQuery) (domain.Group, error) {
	listing, err := h.gateway.ListGroups(ctx)
	if err != nil {
		return domain.Group{}, fmt.Errorf("list groups: %w", err)
	}
	return domain.Find(listing.Merge(), q.WID)
}
