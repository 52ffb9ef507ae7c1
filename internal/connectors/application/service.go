// Package application contains the connectors application layer.
package application

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/aira/internal/connectors/domain"
)

// ConnectCommand starts connecting a connector.
type ConnectCommand struct {
	ConnectorID string
}

// ConnectResult is where the user continues the flow.
type ConnectResult struct {
	Connector domain.Definition
	// RedirectURL is the provider page to open. Empty when the API did not
	// return one.
	RedirectURL string
}

// SetupRequiredError is returned for connectors set up inside the app.
type SetupRequiredError struct {
	Connector domain.Definition
}

func (e *SetupRequiredError) Error() string {
	return fmt.Sprintf("%s: %s", e.Connector.Name, e.Connector.SetupHint)
}

// Unwrap makes errors.Is match domain.ErrSetupRequired.
func (e *SetupRequiredError) Unwrap() error {
	return domain.ErrSetupRequired
}

// Service provides connector operations.
type Service struct {
	catalog  *domain.Catalog
	gateway  domain.Gateway
	platform string
}

// NewService creates a new connector service. platform is sent with
// connect requests.
func NewService(catalog *domain.Catalog, gateway domain.Gateway, platform string) *Service {
	if platform == "" {
		platform = "web"
	}
	return &Service{catalog: catalog, gateway: gateway, platform: platform}
}

// Catalog returns the connector table.
func (s *Service) Catalog() *domain.Catalog {
	return s.catalog
}

// ListConnectors joins the catalog with the user's connection statuses.
func (s *Service) ListConnectors(ctx context.Context) ([]domain.Connector, error) {
	statuses, err := s.gateway.ListStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list connector statuses: %w", err)
	}
	return s.catalog.Join(statuses), nil
}

// GetConnector returns one connector with its status.
func (s *Service) GetConnector(ctx context.Context, idOrAlias string) (domain.Connector, error) {
	def, err := s.catalog.Resolve(idOrAlias)
	if err != nil {
		return domain.Connector{}, err
	}
	all, err := s.ListConnectors(ctx)
	if err != nil {
		return domain.Connector{}, err
	}
	for _, c := range all {
		if c.ID == def.ID {
			return c, nil
		}
	}
	return domain.Connector{ID: def.ID, Name: def.Name, Color: def.Color}, nil
}

// Connect starts the connect flow. Connectors with a setup hint never reach
// the API and fail with a *SetupRequiredError.
func (s *Service) Connect(ctx context.Context, cmd ConnectCommand) (ConnectResult, error) {
	def, err := s.catalog.Resolve(cmd.ConnectorID)
	if err != nil {
		return ConnectResult{}, err
	}
	if def.SetupHint != "" {
		return ConnectResult{}, &SetupRequiredError{Connector: def}
	}

	resp, err := s.gateway.Connect(ctx, domain.ConnectRequest{ConnectorType: def.ID, Platform: s.platform})
	if err != nil {
		return ConnectResult{}, fmt.Errorf("connect %s: %w", def.ID, err)
	}
	return ConnectResult{Connector: def, RedirectURL: resp.RedirectURL}, nil
}
