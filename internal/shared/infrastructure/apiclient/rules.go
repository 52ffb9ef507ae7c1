package apiclient

import (
	"context"
	"net/http"
	"net/url"

	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
)

var _ rules.Gateway = (*Client)(nil)

// ListRules implements rules.Gateway.
func (c *Client) ListRules(ctx context.Context) ([]rules.Rule, error) {
	body, err := c.do(ctx, http.MethodGet, "/rules", nil, nil)
	if err != nil {
		return nil, err
	}
	var out []rules.Rule
	if err := decode("rule list", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListChatRules implements rules.Gateway.
func (c *Client) ListChatRules(ctx context.Context, wID string) ([]rules.Rule, error) {
	body, err := c.do(ctx, http.MethodGet, "/rules/chat/"+url.PathEscape(wID), nil, nil)
	if err != nil {
		return nil, err
	}
	var out []rules.Rule
	if err := decode("rule list", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRule implements rules.Gateway.
func (c *Client) CreateRule(ctx context.Context, req rules.CreateRuleRequest) (rules.MutationResponse, error) {
	return c.mutate(ctx, http.MethodPost, req)
}

// UpdateRule implements rules.Gateway.
func (c *Client) UpdateRule(ctx context.Context, req rules.UpdateRuleRequest) (rules.MutationResponse, error) {
	return c.mutate(ctx, http.MethodPut, req)
}

func (c *Client) mutate(ctx context.Context, method string, req any) (rules.MutationResponse, error) {
	body, err := c.do(ctx, method, "/rules", nil, req)
	if err != nil {
		return rules.MutationResponse{}, err
	}
	var out rules.MutationResponse
	if err := decode("rule mutation", body, &out); err != nil {
		return rules.MutationResponse{}, err
	}
	return out, nil
}

// DeleteRule implements rules.Gateway. Any 2xx body is accepted.
func (c *Client) DeleteRule(ctx context.Context, req rules.DeleteRuleRequest) error {
	_, err := c.do(ctx, http.MethodDelete, "/rules", nil, req)
	return err
}

// RunOnce implements rules.Gateway.
func (c *Client) RunOnce(ctx context.Context, req rules.CreateRuleRequest) (rules.RunOnceResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/rules/run-once", nil, req)
	if err != nil {
		return rules.RunOnceResult{}, err
	}
	var out rules.RunOnceResult
	if err := decode("run-once result", body, &out); err != nil {
		return rules.RunOnceResult{}, err
	}
	return out, nil
}
