package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alfredjeanlab/board/internal/model"
)

// ticketColumns is the column list used for SELECT statements on the tickets table.
const ticketColumns = `id, title, user_id, priority, status`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queryReplaceSnapshot clears the snapshot tables and inserts snap. The
// ordinal column records each row's position in the input.
func queryReplaceSnapshot(ctx context.Context, db executor, snap *model.Snapshot) error {
	for _, table := range []string{"ticket_tags", "tickets", "users"} {
		if _, err := db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, u := range snap.Users {
		if u == nil {
			continue
		}
		if _, err := db.ExecContext(ctx, `
			INSERT INTO users (id, name, ordinal) VALUES ($1, $2, $3)`,
			u.ID, u.Name, i,
		); err != nil {
			return fmt.Errorf("insert user %s: %w", u.ID, err)
		}
	}

	for i, t := range snap.Tickets {
		if t == nil {
			continue
		}
		if _, err := db.ExecContext(ctx, `
			INSERT INTO tickets (id, title, user_id, priority, status, ordinal)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			t.ID, t.Title, nullStringPtr(t.UserID), int(t.Priority), t.Status, i,
		); err != nil {
			return fmt.Errorf("insert ticket %s: %w", t.ID, err)
		}
		for pos, tag := range t.Tag {
			if _, err := db.ExecContext(ctx, `
				INSERT INTO ticket_tags (ticket_id, position, tag) VALUES ($1, $2, $3)`,
				t.ID, pos, tag,
			); err != nil {
				return fmt.Errorf("insert tag for %s: %w", t.ID, err)
			}
		}
	}
	return nil
}

// queryLoadSnapshot reads users, tickets and tags back in stored order.
func queryLoadSnapshot(ctx context.Context, db executor) (*model.Snapshot, error) {
	users, err := queryUsers(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	tickets, err := queryTickets(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}
	if err := attachTags(ctx, db, tickets); err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	return &model.Snapshot{Tickets: tickets, Users: users}, nil
}

func queryUsers(ctx context.Context, db executor) ([]*model.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM users ORDER BY ordinal`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func queryTickets(ctx context.Context, db executor) ([]*model.Ticket, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY ordinal`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func attachTags(ctx context.Context, db executor, tickets []*model.Ticket) error {
	byID := make(map[string]*model.Ticket, len(tickets))
	for _, t := range tickets {
		byID[t.ID] = t
	}

	rows, err := db.QueryContext(ctx, `
		SELECT ticket_id, tag FROM ticket_tags ORDER BY ticket_id, position`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ticketID, tag string
		if err := rows.Scan(&ticketID, &tag); err != nil {
			return err
		}
		if t, ok := byID[ticketID]; ok {
			t.Tag = append(t.Tag, tag)
		}
	}
	return rows.Err()
}

func querySetConfig(ctx context.Context, db executor, c *model.Config) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO configs (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()
		RETURNING created_at, updated_at`,
		c.Key, []byte(c.Value),
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func queryGetConfig(ctx context.Context, db executor, key string) (*model.Config, error) {
	row := db.QueryRowContext(ctx, `
		SELECT key, value, created_at, updated_at
		FROM configs WHERE key = $1`, key)
	return scanConfig(row)
}

func queryListConfigs(ctx context.Context, db executor, namespace string) ([]*model.Config, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT key, value, created_at, updated_at
		FROM configs WHERE key LIKE $1 || ':%'
		ORDER BY key`, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConfigs(rows)
}

func queryListAllConfigs(ctx context.Context, db executor) ([]*model.Config, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT key, value, created_at, updated_at
		FROM configs ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConfigs(rows)
}

func queryDeleteConfig(ctx context.Context, db executor, key string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM configs WHERE key = $1`, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
