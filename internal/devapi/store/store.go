// Package store persists the development API's rules, chats and connector
// states. SQLite is the zero-config default; PostgreSQL is used when a
// database URL is configured.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	groups "github.com/felixgeelhaar/aira/internal/groups/domain"
	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
)

// Store errors.
var (
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	ErrDuplicateRule     = errors.New("rule already exists")
)

// Driver is a database backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// DetectDriver picks a driver from a connection string. Empty strings and
// file paths mean SQLite.
func DetectDriver(url string) Driver {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Chat is a WhatsApp group or direct chat known to the API.
type Chat struct {
	WID      string
	ChatName string
	IsGroup  bool
}

// StoredRule is a rule plus the fields only the store keeps.
type StoredRule struct {
	rules.Rule
	SuggestionID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Store is the development API's persistence.
type Store interface {
	// ListRules returns rules oldest first.
	ListRules(ctx context.Context) ([]StoredRule, error)
	// ListChatRules returns the rules whose targets include wID.
	ListChatRules(ctx context.Context, wID string) ([]StoredRule, error)
	GetRule(ctx context.Context, ruleID string) (StoredRule, error)
	CreateRule(ctx context.Context, rule StoredRule) error
	// UpdateRule replaces a rule's editable fields. is_default and the
	// creation time are kept.
	UpdateRule(ctx context.Context, rule StoredRule) error
	DeleteRule(ctx context.Context, ruleID string) error

	ListChats(ctx context.Context) ([]Chat, error)
	UpsertChat(ctx context.Context, chat Chat) error

	ListConnectors(ctx context.Context) ([]connectors.Status, error)
	SetConnector(ctx context.Context, id connectors.ID, connected bool) error

	Ping(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Driver is sqlite or postgres. Empty detects it from URL.
	Driver Driver
	// URL is the PostgreSQL connection string.
	URL string
	// SQLitePath is the SQLite file. ":memory:" keeps everything in memory.
	SQLitePath string
	// MaxConns caps the PostgreSQL pool.
	MaxConns int32
}

// Open connects to the configured backend and applies migrations.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DetectDriver(cfg.URL)
	}
	switch driver {
	case DriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = DefaultSQLitePath()
		}
		return OpenSQLite(ctx, path)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.URL, cfg.MaxConns)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

// DefaultSQLitePath returns ~/.aira/devapi.db.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".aira", "devapi.db")
}

// DefaultChats are seeded into an empty database so the groups page has
// something to show.
func DefaultChats() []Chat {
	return []Chat{
		{WID: "120363000000000001@g.us", ChatName: "Family", IsGroup: true},
		{WID: "120363000000000002@g.us", ChatName: "Work Team", IsGroup: true},
		{WID: "120363000000000003@g.us", ChatName: "Book Club", IsGroup: true},
		{WID: "15550000001@c.us", ChatName: "Alex", IsGroup: false},
		{WID: "15550000002@c.us", ChatName: "Sam", IsGroup: false},
	}
}

// Seed inserts the default chats and a connected WhatsApp when the store
// has no chats yet.
func Seed(ctx context.Context, s Store) error {
	chats, err := s.ListChats(ctx)
	if err != nil {
		return err
	}
	if len(chats) > 0 {
		return nil
	}
	for _, c := range DefaultChats() {
		if err := s.UpsertChat(ctx, c); err != nil {
			return fmt.Errorf("seed chat %s: %w", c.WID, err)
		}
	}
	return s.SetConnector(ctx, connectors.WhatsApp, true)
}

// Listing builds the groups endpoint payload with rule counts per chat.
func Listing(chats []Chat, stored []StoredRule) groups.Listing {
	active := make(map[string]int)
	inactive := make(map[string]int)
	for _, r := range stored {
		for _, wID := range r.WIDs {
			if r.IsActive() {
				active[wID]++
			} else {
				inactive[wID]++
			}
		}
	}

	out := groups.Listing{Groups: []groups.Group{}, Chats: []groups.Group{}}
	for _, c := range chats {
		g := groups.Group{
			WID:              c.WID,
			ChatName:         c.ChatName,
			NumActiveRules:   active[c.WID],
			NumInactiveRules: inactive[c.WID],
		}
		if c.IsGroup {
			out.Groups = append(out.Groups, g)
		} else {
			out.Chats = append(out.Chats, g)
		}
	}
	return out
}

// Rules strips the store-only fields.
func Rules(stored []StoredRule) []rules.Rule {
	out := make([]rules.Rule, 0, len(stored))
	for _, r := range stored {
		out = append(out, r.Rule)
	}
	return out
}

func ruleNotFound(ruleID string) error {
	return fmt.Errorf("%w: %s", rules.ErrRuleNotFound, ruleID)
}
