package apiclient

import (
	"context"
	"net/http"

	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
)

var _ connectors.Gateway = (*Client)(nil)

// ListStatuses implements connectors.Gateway.
func (c *Client) ListStatuses(ctx context.Context) ([]connectors.Status, error) {
	body, err := c.do(ctx, http.MethodGet, "/connectors", nil, nil)
	if err != nil {
		return nil, err
	}
	var out []connectors.Status
	if err := decode("connector list", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Connect implements connectors.Gateway.
func (c *Client) Connect(ctx context.Context, req connectors.ConnectRequest) (connectors.ConnectResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/connectors/connect", nil, req)
	if err != nil {
		return connectors.ConnectResponse{}, err
	}
	var out connectors.ConnectResponse
	if err := decode("connect response", body, &out); err != nil {
		return connectors.ConnectResponse{}, err
	}
	return out, nil
}
