package apiclient

import (
	"context"
	"net/http"
	"net/url"

	groups "github.com/felixgeelhaar/aira/internal/groups/domain"
)

var _ groups.Gateway = (*Client)(nil)

// ListGroups implements groups.Gateway. It asks for moderation status so
// rule counts are included.
func (c *Client) ListGroups(ctx context.Context) (groups.Listing, error) {
	query := url.Values{"moderation_status": {"true"}}
	body, err := c.do(ctx, http.MethodGet, "/waha/groups", query, nil)
	if err != nil {
		return groups.Listing{}, err
	}
	var out groups.Listing
	if err := decode("group listing", body, &out); err != nil {
		return groups.Listing{}, err
	}
	return out, nil
}
