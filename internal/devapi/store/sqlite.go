package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
	"github.com/felixgeelhaar/aira/internal/shared/infrastructure/security"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	path, err := security.DatabasePath(path)
	if err != nil {
		return nil, err
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// WAL lets readers proceed while the single writer commits.
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// One connection: SQLite has a single writer and :memory: databases are
	// per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	scripts, err := migrations(DriverSQLite)
	if err != nil {
		db.Close()
		return nil, err
	}
	for i, script := range scripts {
		if _, err := db.ExecContext(ctx, script); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute migration %d: %w", i+1, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// sqliteTimeLayout is fixed width so text order matches time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const sqliteRuleColumns = `rule_id, w_ids, raw_text, status, trigger_time, interval_days,
	is_default, suggestion_id, created_at, updated_at`

// ListRules implements Store.
func (s *SQLiteStore) ListRules(ctx context.Context) ([]StoredRule, error) {
	return s.queryRules(ctx, `SELECT `+sqliteRuleColumns+` FROM rules ORDER BY created_at, rule_id`)
}

// ListChatRules implements Store.
func (s *SQLiteStore) ListChatRules(ctx context.Context, wID string) ([]StoredRule, error) {
	return s.queryRules(ctx, `
		SELECT `+sqliteRuleColumns+` FROM rules
		WHERE EXISTS (SELECT 1 FROM json_each(rules.w_ids) WHERE json_each.value = ?)
		ORDER BY created_at, rule_id
	`, wID)
}

// GetRule implements Store.
func (s *SQLiteStore) GetRule(ctx context.Context, ruleID string) (StoredRule, error) {
	found, err := s.queryRules(ctx, `SELECT `+sqliteRuleColumns+` FROM rules WHERE rule_id = ?`, ruleID)
	if err != nil {
		return StoredRule{}, err
	}
	if len(found) == 0 {
		return StoredRule{}, ruleNotFound(ruleID)
	}
	return found[0], nil
}

// CreateRule implements Store.
func (s *SQLiteStore) CreateRule(ctx context.Context, rule StoredRule) error {
	wids, err := marshalWIDs(rule.WIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rules (
			rule_id, w_ids, raw_text, status, trigger_time, interval_days,
			is_default, suggestion_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rule.RuleID,
		wids,
		rule.RawText,
		string(rule.Status),
		nullString(rule.TriggerTime),
		nullInt(rule.Interval),
		boolToInt(rule.IsDefault),
		sql.NullString{String: rule.SuggestionID, Valid: rule.SuggestionID != ""},
		rule.CreatedAt.UTC().Format(sqliteTimeLayout),
		rule.UpdatedAt.UTC().Format(sqliteTimeLayout),
	)
	if isSQLiteUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, rule.RuleID)
	}
	return err
}

// UpdateRule implements Store.
func (s *SQLiteStore) UpdateRule(ctx context.Context, rule StoredRule) error {
	wids, err := marshalWIDs(rule.WIDs)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE rules SET
			w_ids = ?, raw_text = ?, status = ?, trigger_time = ?, interval_days = ?, updated_at = ?
		WHERE rule_id = ?
	`,
		wids,
		rule.RawText,
		string(rule.Status),
		nullString(rule.TriggerTime),
		nullInt(rule.Interval),
		rule.UpdatedAt.UTC().Format(sqliteTimeLayout),
		rule.RuleID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res, rule.RuleID)
}

// DeleteRule implements Store.
func (s *SQLiteStore) DeleteRule(ctx context.Context, ruleID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE rule_id = ?`, ruleID)
	if err != nil {
		return err
	}
	return requireAffected(res, ruleID)
}

// ListChats implements Store.
func (s *SQLiteStore) ListChats(ctx context.Context) ([]Chat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT w_id, chat_name, is_group FROM chats ORDER BY chat_name, w_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var c Chat
		var isGroup int
		if err := rows.Scan(&c.WID, &c.ChatName, &isGroup); err != nil {
			return nil, err
		}
		c.IsGroup = isGroup == 1
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// UpsertChat implements Store.
func (s *SQLiteStore) UpsertChat(ctx context.Context, chat Chat) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (w_id, chat_name, is_group) VALUES (?, ?, ?)
		ON CONFLICT(w_id) DO UPDATE SET chat_name = excluded.chat_name, is_group = excluded.is_group
	`, chat.WID, chat.ChatName, boolToInt(chat.IsGroup))
	return err
}

// ListConnectors implements Store.
func (s *SQLiteStore) ListConnectors(ctx context.Context) ([]connectors.Status, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, is_connected FROM connectors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []connectors.Status
	for rows.Next() {
		var id string
		var connected int
		if err := rows.Scan(&id, &connected); err != nil {
			return nil, err
		}
		out = append(out, connectors.Status{ID: connectors.ID(id), IsConnected: connected == 1})
	}
	return out, rows.Err()
}

// SetConnector implements Store.
func (s *SQLiteStore) SetConnector(ctx context.Context, id connectors.ID, connected bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO connectors (id, is_connected) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET is_connected = excluded.is_connected
	`, string(id), boolToInt(connected))
	return err
}

// Ping implements Store.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) queryRules(ctx context.Context, query string, args ...any) ([]StoredRule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StoredRule{}
	for rows.Next() {
		var (
			r            StoredRule
			wids         string
			status       string
			triggerTime  sql.NullString
			intervalDays sql.NullInt64
			isDefault    int
			suggestionID sql.NullString
			createdAt    string
			updatedAt    string
		)
		if err := rows.Scan(
			&r.RuleID,
			&wids,
			&r.RawText,
			&status,
			&triggerTime,
			&intervalDays,
			&isDefault,
			&suggestionID,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(wids), &r.WIDs); err != nil {
			return nil, fmt.Errorf("rule %s: decode w_ids: %w", r.RuleID, err)
		}
		r.Status = rules.Status(status)
		if triggerTime.Valid {
			r.TriggerTime = &triggerTime.String
		}
		if intervalDays.Valid {
			days := int(intervalDays.Int64)
			r.Interval = &days
		}
		r.IsDefault = isDefault == 1
		r.SuggestionID = suggestionID.String
		r.CreatedAt, _ = time.Parse(sqliteTimeLayout, createdAt)
		r.UpdatedAt, _ = time.Parse(sqliteTimeLayout, updatedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

func marshalWIDs(wids []string) (string, error) {
	if wids == nil {
		wids = []string{}
	}
	data, err := json.Marshal(wids)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func requireAffected(res sql.Result, ruleID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ruleNotFound(ruleID)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ Store = (*SQLiteStore)(nil)
