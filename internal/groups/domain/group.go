// Package domain contains the chat group model.
package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	shared "github.com/felixgeelhaar/aira/internal/shared/domain"
)

// ErrGroupNotFound is returned when a w_id is not in the listing.
var ErrGroupNotFound = errors.New("group not found")

// Group is a chat or group that rules can target.
type Group struct {
	WID              string `json:"w_id" yaml:"w_id"`
	ChatName         string `json:"chat_name" yaml:"chat_name"`
	NumActiveRules   int    `json:"num_active_rules" yaml:"num_active_rules"`
	NumInactiveRules int    `json:"num_inactive_rules" yaml:"num_inactive_rules"`
}

// RulesCount is the number of rules targeting the group.
func (g Group) RulesCount() int {
	return g.NumActiveRules + g.NumInactiveRules
}

// DisplayName falls back to the id for unnamed chats.
func (g Group) DisplayName() string {
	if strings.TrimSpace(g.ChatName) == "" {
		return g.WID
	}
	return g.ChatName
}

// UnmarshalJSON requires a w_id.
func (g *Group) UnmarshalJSON(data []byte) error {
	type plain Group
	var w struct {
		plain
		WID *string `json:"w_id"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return shared.SchemaError("group", err)
	}
	if err := shared.MissingFields("group", map[string]bool{"w_id": w.WID != nil}); err != nil {
		return err
	}
	*g = Group(w.plain)
	g.WID = *w.WID
	return nil
}

// Listing is the groups endpoint response: WhatsApp groups and direct chats.
type Listing struct {
	Groups []Group `json:"groups"`
	Chats  []Group `json:"chats"`
}

// Merge returns groups then chats with duplicates removed by w_id. The
// first occurrence wins.
func (l Listing) Merge() []Group {
	seen := make(map[string]bool, len(l.Groups)+len(l.Chats))
	out := make([]Group, 0, len(l.Groups)+len(l.Chats))
	for _, list := range [][]Group{l.Groups, l.Chats} {
		for _, g := range list {
			if seen[g.WID] {
				continue
			}
			seen[g.WID] = true
			out = append(out, g)
		}
	}
	return out
}

// Filter keeps groups whose chat name contains query, ignoring case.
func Filter(groups []Group, query string) []Group {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if q == "" || strings.Contains(strings.ToLower(g.ChatName), q) {
			out = append(out, g)
		}
	}
	return out
}

// Search keeps groups whose name or id contains query, ignoring case. It is
// what the rule form's group picker uses.
func Search(groups []Group, query string) []Group {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if q == "" ||
			strings.Contains(strings.ToLower(g.ChatName), q) ||
			strings.Contains(strings.ToLower(g.WID), q) {
			out = append(out, g)
		}
	}
	return out
}

// Find returns the group with the given w_id.
func Find(groups []Group, wID string) (Group, error) {
	for _, g := range groups {
		if g.WID == wID {
			return g, nil
		}
	}
	return Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, wID)
}

// Gateway fetches the group listing.
type Gateway interface {
	ListGroups(ctx context.Context) (Listing, error)
}
