// Package application contains the groups application layer.
package application

import (
	"context"

	"github.com/felixgeelhaar/aira/internal/groups/application/queries"
	"github.com/felixgeelhaar/aira/internal/groups/domain"
)

// Service provides a facade for group operations.
type Service struct {
	gateway     domain.Gateway
	listHandler *queries.ListGroupsHandler
	getHandler  *queries.GetGroupHandler
}

// NewService creates a new group service.
func NewService(gateway domain.Gateway) *Service {
	return &Service{
		gateway:     gateway,
		listHandler: queries.NewListGroupsHandler(gateway),
		getHandler:  queries.NewGetGroupHandler(gateway),
	}
}

// ListGroups lists groups and chats.
func (s *Service) ListGroups(ctx context.Context, q queries.ListGroupsQuery) (*queries.ListGroupsResult, error) {
	return s.listHandler.Handle(ctx, q)
}

// GetGroup returns one group or chat.
func (s *Service) GetGroup(ctx context.Context, q queries.GetGroupQuery) (domain.Group, error) {
	return s.getHandler.Handle(ctx, q)
}

// AllGroups returns the merged listing the rule form's picker shows.
func (s *Service) AllGroups(ctx context.Context) ([]domain.Group, error) {
	res, err := s.listHandler.Handle(ctx, queries.ListGroupsQuery{})
	if err != nil {
		return nil, err
	}
	return res.Groups, nil
}
