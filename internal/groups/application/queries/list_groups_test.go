package queries

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/aira/internal/groups/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) ListGroups(ctx context.Context) (domain.Listing, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Listing), args.Error(1)
}

var listing = domain.Listing{
	Groups: []domain.Group{
		{WID: "fam@g.us", ChatName: "Family", NumActiveRules: 2, NumInactiveRules: 1},
		{WID: "work@g.us", ChatName: "Work Team", NumActiveRules: 1},
	},
	Chats: []domain.Group{
		{WID: "bob@c.us", ChatName: "Bob"},
		{WID: "fam@g.us", ChatName: "Family (dup)"},
	},
}

func TestListGroupsHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("merges and filters by name", func(t *testing.T) {
		gw := new(mockGateway)
		gw.On("ListGroups", ctx).Return(listing, nil)

		res, err := NewListGroupsHandler(gw).Handle(ctx, ListGroupsQuery{Search: "fam"})

		require.NoError(t, err)
		assert.Equal(t, 3, res.Total)
		require.Len(t, res.Groups, 1)
		assert.Equal(t, "Family", res.Groups[0].ChatName)
		assert.Equal(t, 2, res.ActiveRules())
	})

	t.Run("empty search keeps everything", func(t *testing.T) {
		gw := new(mockGateway)
		gw.On("ListGroups", ctx).Return(listing, nil)

		res, err := NewListGroupsHandler(gw).Handle(ctx, ListGroupsQuery{})

		require.NoError(t, err)
		assert.Len(t, res.Groups, 3)
	})

	t.Run("gateway failure", func(t *testing.T) {
		gw := new(mockGateway)
		gw.On("ListGroups", ctx).Return(domain.Listing{}, errors.New("timeout"))

		_, err := NewListGroupsHandler(gw).Handle(ctx, ListGroupsQuery{})
		assert.ErrorContains(t, err, "list groups: timeout")
	})
}

func TestGetGroupHandler(t *testing.T) {
	ctx := context.Background()
	gw := new(mockGateway)
	gw.On("ListGroups", ctx).Return(listing, nil)
	handler := NewGetGroupHandler(gw)

	g, err := handler.Handle(ctx, GetGroupQuery{WID: "bob@c.us"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", g.ChatName)

	_, err = handler.Handle(ctx, GetGroupQuery{WID: "nobody"})
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)
}
