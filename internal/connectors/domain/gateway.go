package domain

import (
	"context"
	"encoding/json"

	shared "github.com/felixgeelhaar/aira/internal/shared/domain"
)

// ConnectRequest asks the API to start an OAuth hand-off.
type ConnectRequest struct {
	ConnectorType ID     `json:"connectorType"`
	Platform      string `json:"platform"`
}

// ConnectResponse carries the provider URL to open, when there is one.
type ConnectResponse struct {
	RedirectURL string `json:"redirect_url,omitempty"`
}

// UnmarshalJSON requires the connector id.
func (s *Status) UnmarshalJSON(data []byte) error {
	var w struct {
		ID          *ID  `json:"id"`
		IsConnected bool `json:"is_connected"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return shared.SchemaError("connector status", err)
	}
	if err := shared.MissingFields("connector status", map[string]bool{"id": w.ID != nil}); err != nil {
		return err
	}
	*s = Status{ID: *w.ID, IsConnected: w.IsConnected}
	return nil
}

// Gateway is the remote connectors API.
type Gateway interface {
	// ListStatuses reports which connectors the user has connected.
	ListStatuses(ctx context.Context) ([]Status, error)

	// Connect starts connecting a connector.
	Connect(ctx context.Context, req ConnectRequest) (ConnectResponse, error)
}
