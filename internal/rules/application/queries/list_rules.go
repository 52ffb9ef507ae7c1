package queries

import (
	"context"
	"fmt"

	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	groups "github.com/felixgeelhaar/aira/internal/groups/domain"
	"github.com/felixgeelhaar/aira/internal/rules/domain"
)

// ListConnectorRulesQuery lists the rules shown on a connector page.
type ListConnectorRulesQuery struct {
	// ConnectorID is a connector id or one of its aliases.
	ConnectorID string
	Search      string
}

// ListRulesResult contains rules after filtering.
type ListRulesResult struct {
	Rules []domain.Rule
	// Total counts the rules before the search filter.
	Total int
}

// Active counts the active rules in the filtered list.
func (r ListRulesResult) Active() int {
	n := 0
	for _, rule := range r.Rules {
		if rule.IsActive() {
			n++
		}
	}
	return n
}

// ConnectorRulesResult is a connector page.
type ConnectorRulesResult struct {
	ListRulesResult
	Connector connectors.Definition
}

// ListConnectorRulesHandler handles ListConnectorRulesQuery.
type ListConnectorRulesHandler struct {
	catalog *connectors.Catalog
	gateway domain.Gateway
}

// NewListConnectorRulesHandler creates a new ListConnectorRulesHandler.
func NewListConnectorRulesHandler(catalog *connectors.Catalog, gateway domain.Gateway) *ListConnectorRulesHandler {
	return &ListConnectorRulesHandler{catalog: catalog, gateway: gateway}
}

// Handle executes the query. Only connectors that carry rules hit the API;
// the others always list nothing.
func (h *ListConnectorRulesHandler) Handle(ctx context.Context, q ListConnectorRulesQuery) (*ConnectorRulesResult, error) {
	def, err := h.catalog.Resolve(q.ConnectorID)
	if err != nil {
		return nil, err
	}

	result := &ConnectorRulesResult{Connector: def}
	if !def.HasRules {
		result.Rules = []domain.Rule{}
		return result, nil
	}

	all, err := h.gateway.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	result.Total = len(all)
	result.Rules = domain.FilterRules(all, q.Search)
	return result, nil
}

// ListGroupRulesQuery lists the rules of one chat.
type ListGroupRulesQuery struct {
	WID    string
	Search string
}

// GroupRulesResult is a group page.
type GroupRulesResult struct {
	ListRulesResult
	Group groups.Group
}

// ListGroupRulesHandler handles ListGroupRulesQuery.
type ListGroupRulesHandler struct {
	rules  domain.Gateway
	groups groups.Gateway
}

// NewListGroupRulesHandler creates a new ListGroupRulesHandler.
func NewListGroupRulesHandler(rules domain.Gateway, groupGateway groups.Gateway) *ListGroupRulesHandler {
	return &ListGroupRulesHandler{rules: rules, groups: groupGateway}
}

// Handle executes the query. It fails with groups.ErrGroupNotFound when the
// chat is not in the listing.
func (h *ListGroupRulesHandler) Handle(ctx context.Context, q ListGroupRulesQuery) (*GroupRulesResult, error) {
	listing, err := h.groups.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	group, err := groups.Find(listing.Merge(), q.WID)
	if err != nil {
		return nil, err
	}

	all, err := h.rules.ListChatRules(ctx, q.WID)
	if err != nil {
		return nil, fmt.Errorf("list chat rules: %w", err)
	}
	return &GroupRulesResult{
		Group: group,
		ListRulesResult: ListRulesResult{
			Rules: domain.FilterRules(all, q.Search),
			Total: len(all),
		},
	}, nil
}

// GetRuleQuery fetches one rule for editing.
type GetRuleQuery struct {
	RuleID string
}

// GetRuleHandler handles GetRuleQuery.
type GetRuleHandler struct {
	gateway domain.Gateway
}

// NewGetRuleHandler creates a new GetRuleHandler.
func NewGetRuleHandler(gateway domain.Gateway) *GetRuleHandler {
	return &GetRuleHandler{gateway: gateway}
}

// Handle executes the query.
func (h *GetRuleHandler) Handle(ctx context.Context, q GetRuleQuery) (domain.Rule, error) {
	all, err := h.gateway.ListRules(ctx)
	if err != nil {
		return domain.Rule{}, fmt.Errorf("list rules: %w", err)
	}
	return domain.FindRule(all, q.RuleID)
}
