package store

import (
	"context"
	"errors"
	"fmt"

	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to url and applies migrations.
func OpenPostgres(ctx context.Context, url string, maxConns int32) (*PostgresStore, error) {
	if url == "" {
		return nil, errors.New("postgres store needs a database URL")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	scripts, err := migrations(DriverPostgres)
	if err != nil {
		pool.Close()
		return nil, err
	}
	for i, script := range scripts {
		if _, err := pool.Exec(ctx, script); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to execute migration %d: %w", i+1, err)
		}
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresRuleColumns = `rule_id, w_ids, raw_text, status, trigger_time, interval_days,
	is_default, COALESCE(suggestion_id, ''), created_at, updated_at`

// ListRules implements Store.
func (s *PostgresStore) ListRules(ctx context.Context) ([]StoredRule, error) {
	return s.queryRules(ctx, `SELECT `+postgresRuleColumns+` FROM rules ORDER BY created_at, rule_id`)
}

// ListChatRules implements Store.
func (s *PostgresStore) ListChatRules(ctx context.Context, wID string) ([]StoredRule, error) {
	return s.queryRules(ctx, `
		SELECT `+postgresRuleColumns+` FROM rules
		WHERE $1 = ANY(w_ids)
		ORDER BY created_at, rule_id
	`, wID)
}

// GetRule implements Store.
func (s *PostgresStore) GetRule(ctx context.Context, ruleID string) (StoredRule, error) {
	found, err := s.queryRules(ctx, `SELECT `+postgresRuleColumns+` FROM rules WHERE rule_id = $1`, ruleID)
	if err != nil {
		return StoredRule{}, err
	}
	if len(found) == 0 {
		return StoredRule{}, ruleNotFound(ruleID)
	}
	return found[0], nil
}

// CreateRule implements Store.
func (s *PostgresStore) CreateRule(ctx context.Context, rule StoredRule) error {
	wids := rule.WIDs
	if wids == nil {
		wids = []string{}
	}
	var suggestionID *string
	if rule.SuggestionID != "" {
		suggestionID = &rule.SuggestionID
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO rules (
			rule_id, w_ids, raw_text, status, trigger_time, interval_days,
			is_default, suggestion_id, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		rule.RuleID,
		wids,
		rule.RawText,
		string(rule.Status),
		rule.TriggerTime,
		rule.Interval,
		rule.IsDefault,
		suggestionID,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, rule.RuleID)
	}
	return err
}

// UpdateRule implements Store.
func (s *PostgresStore) UpdateRule(ctx context.Context, rule StoredRule) error {
	wids := rule.WIDs
	if wids == nil {
		wids = []string{}
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE rules SET
			w_ids = $1, raw_text = $2, status = $3, trigger_time = $4, interval_days = $5, updated_at = $6
		WHERE rule_id = $7
	`,
		wids,
		rule.RawText,
		string(rule.Status),
		rule.TriggerTime,
		rule.Interval,
		rule.UpdatedAt,
		rule.RuleID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ruleNotFound(rule.RuleID)
	}
	return nil
}

// DeleteRule implements Store.
func (s *PostgresStore) DeleteRule(ctx context.Context, ruleID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rules WHERE rule_id = $1`, ruleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ruleNotFound(ruleID)
	}
	return nil
}

// ListChats implements Store.
func (s *PostgresStore) ListChats(ctx context.Context) ([]Chat, error) {
	rows, err := s.pool.Query(ctx, `SELECT w_id, chat_name, is_group FROM chats ORDER BY chat_name, w_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Chat, error) {
		var c Chat
		err := row.Scan(&c.WID, &c.ChatName, &c.IsGroup)
		return c, err
	})
}

// UpsertChat implements Store.
func (s *PostgresStore) UpsertChat(ctx context.Context, chat Chat) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chats (w_id, chat_name, is_group) VALUES ($1, $2, $3)
		ON CONFLICT (w_id) DO UPDATE SET chat_name = EXCLUDED.chat_name, is_group = EXCLUDED.is_group
	`, chat.WID, chat.ChatName, chat.IsGroup)
	return err
}

// ListConnectors implements Store.
func (s *PostgresStore) ListConnectors(ctx context.Context) ([]connectors.Status, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, is_connected FROM connectors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (connectors.Status, error) {
		var st connectors.Status
		var id string
		err := row.Scan(&id, &st.IsConnected)
		st.ID = connectors.ID(id)
		return st, err
	})
}

// SetConnector implements Store.
func (s *PostgresStore) SetConnector(ctx context.Context, id connectors.ID, connected bool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO connectors (id, is_connected) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET is_connected = EXCLUDED.is_connected
	`, string(id), connected)
	return err
}

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) queryRules(ctx context.Context, query string, args ...any) ([]StoredRule, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (StoredRule, error) {
		var r StoredRule
		var status string
		err := row.Scan(
			&r.RuleID,
			&r.WIDs,
			&r.RawText,
			&status,
			&r.TriggerTime,
			&r.Interval,
			&r.IsDefault,
			&r.SuggestionID,
			&r.CreatedAt,
			&r.UpdatedAt,
		)
		r.Status = rules.Status(status)
		if r.WIDs == nil {
			r.WIDs = []string{}
		}
		return r, err
	})
}

var _ Store = (*PostgresStore)(nil)
