// Package domain contains the connector catalog and keyword suggestion.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Connector errors.
var (
	ErrUnknownConnector = errors.New("unknown connector")
	ErrInvalidCatalog   = errors.New("invalid connector catalog")
	ErrSetupRequired    = errors.New("connector requires in-app setup")
)

// ID identifies a connector type.
type ID string

const (
	WhatsApp       ID = "whatsapp"
	EmailScope     ID = "email_scope"
	GoogleCalendar ID = "google_calendar"
	GoogleDrive    ID = "google_drive"
)

// KnownIDs lists every connector id the service understands, in display order.
var KnownIDs = []ID{WhatsApp, EmailScope, GoogleCalendar, GoogleDrive}

// IsKnown reports whether id is one of KnownIDs.
func (id ID) IsKnown() bool {
	for _, k := range KnownIDs {
		if k == id {
			return true
		}
	}
	return false
}

// Definition is one row of the connector catalog.
type Definition struct {
	ID          ID
	Name        string
	Description string
	Color       string
	Keywords    []string
	Aliases     []string
	// HasRules is true for connectors whose rules are listed per connector.
	HasRules bool
	// SetupHint replaces the connect API for connectors set up in-app.
	SetupHint string
}

// Connector is a catalog entry joined with the user's connection status.
type Connector struct {
	ID          ID     `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
	IsConnected bool   `json:"is_connected" yaml:"is_connected"`
}

// Status is the connection state reported by the API for one connector.
type Status struct {
	ID          ID   `json:"id"`
	IsConnected bool `json:"is_connected"`
}

// Catalog is the fixed connector table keyed by connector id.
type Catalog struct {
	defs []Definition
	byID map[ID]int
	// alias -> canonical id
	aliases map[string]ID
}

// DefaultCatalog returns the built-in connector table.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]Definition{
		{
			ID:          WhatsApp,
			Name:        "WhatsApp",
			Description: "Automate replies and digests in your WhatsApp groups and chats",
			Color:       "#25D366",
			Keywords:    []string{"whatsapp", "group", "chat", "message", "reply"},
			HasRules:    true,
			SetupHint:   "WhatsApp is linked from the app: open Connectors > WhatsApp and scan the QR code.",
		},
		{
			ID:          EmailScope,
			Name:        "Email",
			Description: "Read and summarise your inbox",
			Color:       "#EA4335",
			Keywords:    []string{"email", "e-mail", "inbox", "gmail", "outlook"},
			Aliases:     []string{"email"},
		},
		{
			ID:          GoogleCalendar,
			Name:        "Google Calendar",
			Description: "Create events and meeting reminders",
			Color:       "#4285F4",
			Keywords:    []string{"calendar", "meeting", "event", "appointment"},
			Aliases:     []string{"calendar"},
		},
		{
			ID:          GoogleDrive,
			Name:        "Google Drive",
			Description: "Save shared documents and files",
			Color:       "#0F9D58",
			Keywords:    []string{"drive", "document", "spreadsheet", "folder", "pdf"},
			Aliases:     []string{"drive"},
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// NewCatalog validates defs and builds a catalog from them.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		defs:    make([]Definition, len(defs)),
		byID:    make(map[ID]int, len(defs)),
		aliases: make(map[string]ID),
	}
	copy(c.defs, defs)

	for i, d := range c.defs {
		if d.ID == "" || d.Name == "" {
			return nil, fmt.Errorf("%w: entry %d needs an id and a name", ErrInvalidCatalog, i)
		}
		if !d.ID.IsKnown() {
			return nil, fmt.Errorf("%w: %q is not a connector id", ErrInvalidCatalog, d.ID)
		}
		if len(d.Keywords) == 0 {
			return nil, fmt.Errorf("%w: %s has no keywords", ErrInvalidCatalog, d.ID)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidCatalog, d.ID)
		}
		c.byID[d.ID] = i
	}
	for _, d := range c.defs {
		for _, a := range d.Aliases {
			a = strings.ToLower(a)
			if _, clash := c.byID[ID(a)]; clash && ID(a) != d.ID {
				return nil, fmt.Errorf("%w: alias %q shadows a connector id", ErrInvalidCatalog, a)
			}
			if prev, dup := c.aliases[a]; dup && prev != d.ID {
				return nil, fmt.Errorf("%w: alias %q used by %s and %s", ErrInvalidCatalog, a, prev, d.ID)
			}
			c.aliases[a] = d.ID
		}
	}
	return c, nil
}

// Definitions returns the catalog rows in order.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Resolve looks up a connector by id or alias, case-insensitively.
func (c *Catalog) Resolve(idOrAlias string) (Definition, error) {
	key := strings.ToLower(strings.TrimSpace(idOrAlias))
	if i, ok := c.byID[ID(key)]; ok {
		return c.defs[i], nil
	}
	if id, ok := c.aliases[key]; ok {
		return c.defs[c.byID[id]], nil
	}
	return Definition{}, fmt.Errorf("%w: %q", ErrUnknownConnector, idOrAlias)
}

// Join merges the catalog with connection statuses. Connectors missing from
// statuses are reported as not connected; statuses for unknown ids are ignored.
func (c *Catalog) Join(statuses []Status) []Connector {
	connected := make(map[ID]bool, len(statuses))
	for _, s := range statuses {
		connected[s.ID] = s.IsConnected
	}
	out := make([]Connector, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, Connector{ID: d.ID, Name: d.Name, Color: d.Color, IsConnected: connected[d.ID]})
	}
	return out
}
