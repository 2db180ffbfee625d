package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/alfredjeanlab/board/internal/model"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var ticketRowColumns = []string{"id", "title", "user_id", "priority", "status"}

// expectClear sets up the three DELETE statements that start a snapshot replace.
func expectClear(mock sqlmock.Sqlmock) {
	for _, table := range []string{"ticket_tags", "tickets", "users"} {
		mock.ExpectExec("DELETE FROM " + table).WillReturnResult(sqlmock.NewResult(0, 0))
	}
}

func testSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Users: []*model.User{{ID: "u1", Name: "Ann Lee"}},
		Tickets: []*model.Ticket{
			{ID: "T1", Title: "Fix login", UserID: model.StringPtr("u1"), Priority: model.PriorityHigh, Tag: []string{"Bug", "Auth"}, Status: model.StatusTodo},
			{ID: "T2", Title: "Docs", Priority: model.PriorityLow, Status: model.StatusBacklog},
		},
	}
}

func TestSaveSnapshot_KeepsOrdinal(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectBegin()
	expectClear(mock)
	mock.ExpectExec("INSERT INTO users").WithArgs("u1", "Ann Lee", 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tickets").WithArgs("T1", "Fix login", "u1", 3, "Todo", 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ticket_tags").WithArgs("T1", 0, "Bug").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ticket_tags").WithArgs("T1", 1, "Auth").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tickets").WithArgs("T2", "Docs", nil, 1, "Backlog", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.SaveSnapshot(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSaveSnapshot_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectBegin()
	expectClear(mock)
	mock.ExpectExec("INSERT INTO users").WithArgs("u1", "Ann Lee", 0).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.SaveSnapshot(context.Background(), testSnapshot())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSaveSnapshot_Nil(t *testing.T) {
	db, _ := newMockDB(t)
	s := &PostgresStore{db: db}
	if err := s.SaveSnapshot(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil snapshot")
	}
}

func TestQueryLoadSnapshot(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT id, name FROM users ORDER BY ordinal").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("u1", "Ann Lee"))
	mock.ExpectQuery("SELECT .+ FROM tickets ORDER BY ordinal").
		WillReturnRows(sqlmock.NewRows(ticketRowColumns).
			AddRow("T2", "Docs", nil, 1, "Backlog").
			AddRow("T1", "Fix login", "u1", 3, "Todo"))
	mock.ExpectQuery("SELECT ticket_id, tag FROM ticket_tags").
		WillReturnRows(sqlmock.NewRows([]string{"ticket_id", "tag"}).
			AddRow("T1", "Bug").
			AddRow("T1", "Auth").
			AddRow("gone", "Orphan"))

	snap, err := queryLoadSnapshot(context.Background(), db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.Loaded() {
		t.Fatal("expected a loaded snapshot")
	}
	if len(snap.Tickets) != 2 || snap.Tickets[0].ID != "T2" || snap.Tickets[1].ID != "T1" {
		t.Fatalf("tickets out of stored order: %+v", snap.Tickets)
	}
	if snap.Tickets[0].UserID != nil {
		t.Errorf("T2 owner = %q, want nil", *snap.Tickets[0].UserID)
	}
	t1 := snap.Tickets[1]
	if t1.OwnerID() != "u1" || t1.Priority != model.PriorityHigh {
		t.Errorf("T1 = %+v", t1)
	}
	if len(t1.Tag) != 2 || t1.Tag[0] != "Bug" || t1.Tag[1] != "Auth" {
		t.Errorf("T1 tags = %v", t1.Tag)
	}
	if snap.Tickets[0].Tag == nil || len(snap.Tickets[0].Tag) != 0 {
		t.Errorf("T2 tags = %#v, want empty non-nil", snap.Tickets[0].Tag)
	}
	data, err := json.Marshal(snap.Tickets[0])
	if err != nil {
		t.Fatalf("marshal T2: %v", err)
	}
	if !strings.Contains(string(data), `"tag":[]`) {
		t.Errorf("T2 JSON = %s, want an empty tag array", data)
	}
}

func TestQueryLoadSnapshot_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT id, name FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectQuery("SELECT .+ FROM tickets").
		WillReturnRows(sqlmock.NewRows(ticketRowColumns))
	mock.ExpectQuery("SELECT ticket_id, tag FROM ticket_tags").
		WillReturnRows(sqlmock.NewRows([]string{"ticket_id", "tag"}))

	snap, err := queryLoadSnapshot(context.Background(), db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.Loaded() || len(snap.Tickets) != 0 || len(snap.Users) != 0 {
		t.Fatalf("expected loaded empty snapshot, got %+v", snap)
	}
}

func TestQueryLoadSnapshot_Error(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT id, name FROM users").WillReturnError(errors.New("connection reset"))

	if _, err := queryLoadSnapshot(context.Background(), db); err == nil {
		t.Fatal("expected error")
	}
}

func TestNullStringPtr(t *testing.T) {
	if nullStringPtr(nil).Valid {
		t.Error("nullStringPtr(nil) should be invalid")
	}
	if ns := nullStringPtr(model.StringPtr("")); !ns.Valid {
		t.Error("an empty owner id is still a reference")
	}
	if ns := nullStringPtr(model.StringPtr("u1")); ns.String != "u1" {
		t.Errorf("nullStringPtr(u1) = %v", ns)
	}
}

func TestQuerySetConfig(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	config := &model.Config{Key: "pref:grouping", Value: json.RawMessage(`"user"`)}
	mock.ExpectQuery("INSERT INTO configs").
		WithArgs("pref:grouping", []byte(`"user"`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	if err := querySetConfig(context.Background(), db, config); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestQueryGetConfig(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM configs WHERE key = \\$1").WithArgs("pref:ordering").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "created_at", "updated_at"}).
			AddRow("pref:ordering", []byte(`"title"`), now, now))

	config, err := queryGetConfig(context.Background(), db, "pref:ordering")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Key != "pref:ordering" || string(config.Value) != `"title"` {
		t.Fatalf("got %q=%s", config.Key, config.Value)
	}
}

func TestQueryGetConfig_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM configs WHERE key = \\$1").WithArgs("nonexistent").
		WillReturnError(sql.ErrNoRows)

	if _, err := queryGetConfig(context.Background(), db, "nonexistent"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestListConfigs_Namespace(t *testing.T) {
	for _, tc := range []struct {
		name      string
		namespace string
		query     string
	}{
		{"namespaced", "pref", "SELECT .+ FROM configs WHERE key LIKE"},
		{"all", "", "SELECT .+ FROM configs ORDER BY key"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			s := &PostgresStore{db: db}
			now := time.Now().UTC()
			exp := mock.ExpectQuery(tc.query)
			if tc.namespace != "" {
				exp = exp.WithArgs(tc.namespace)
			}
			exp.WillReturnRows(sqlmock.NewRows([]string{"key", "value", "created_at", "updated_at"}).
				AddRow("pref:grouping", []byte(`"status"`), now, now).
				AddRow("pref:ordering", []byte(`"priority"`), now, now))

			configs, err := s.ListConfigs(context.Background(), tc.namespace)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(configs) != 2 || configs[0].Key != "pref:grouping" {
				t.Fatalf("unexpected configs: %+v", configs)
			}
		})
	}
}

func TestQueryDeleteConfig(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM configs WHERE key = \\$1").WithArgs("pref:grouping").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryDeleteConfig(context.Background(), db, "pref:grouping"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryDeleteConfig_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM configs WHERE key = \\$1").WithArgs("nonexistent").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := queryDeleteConfig(context.Background(), db, "nonexistent"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	for _, name := range []string{"migrations/000001_init.up.sql", "migrations/000001_init.down.sql"} {
		b, err := migrationsFS.ReadFile(name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if len(b) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}
