package postgres

import (
	"database/sql"
	"encoding/json"

	"github.com/alfredjeanlab/board/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanTicket scans a single row into a model.Ticket.
// The row must contain columns in the order defined by ticketColumns.
func scanTicket(row scannable) (*model.Ticket, error) {
	var t model.Ticket
	var (
		userID   sql.NullString
		priority int
	)
	if err := row.Scan(&t.ID, &t.Title, &userID, &priority, &t.Status); err != nil {
		return nil, err
	}
	if userID.Valid {
		t.UserID = model.StringPtr(userID.String)
	}
	t.Priority = model.Priority(priority)
	// Tags are attached later; a ticket without tag rows keeps an empty list.
	t.Tag = []string{}
	return &t, nil
}

// scanTickets scans every row. The result is never nil, so an empty table
// still yields a loaded snapshot.
func scanTickets(rows *sql.Rows) ([]*model.Ticket, error) {
	tickets := []*model.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

func scanUsers(rows *sql.Rows) ([]*model.User, error) {
	users := []*model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// scanConfig scans a single row into a model.Config.
func scanConfig(row scannable) (*model.Config, error) {
	var c model.Config
	var value []byte
	err := row.Scan(&c.Key, &value, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Value = json.RawMessage(value)
	return &c, nil
}

// scanConfigs scans multiple rows into a slice of model.Config pointers.
func scanConfigs(rows *sql.Rows) ([]*model.Config, error) {
	var configs []*model.Config
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return configs, nil
}

// nullStringPtr converts an optional reference to sql.NullString.
func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
