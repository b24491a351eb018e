package monitor

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pdm-backend/lib/sqliteutil"
)

const schema = `
create table poll_cursor (
    id integer primary key check (id = 1),
    last_seen text not null
);
create table filed_alerts (
    id integer primary key autoincrement,
    measured_at text not null,
    filed_at text not null
);
`

// Store persists the poll cursor and an audit log of filed alerts so a
// restarted daemon resumes where it left off instead of re-alerting on
// old measurements.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := sqliteutil.OpenDB(schema, path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LastSeen returns the stored poll cursor, or the zero time when the
// daemon has never polled.
func (s *Store) LastSeen(ctx context.Context) (time.Time, error) {
	row := s.db.QueryRowContext(ctx, "select last_seen from poll_cursor where id = 1")
	var raw string
	err := row.Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, raw)
}

func (s *Store) SetLastSeen(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`insert into poll_cursor (id, last_seen) values (1, ?)
		 on conflict (id) do update set last_seen = excluded.last_seen`,
		t.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *Store) RecordAlert(ctx context.Context, measuredAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"insert into filed_alerts (measured_at, filed_at) values (?, ?)",
		measuredAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *Store) AlertCount(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, "select count(*) from filed_alerts")
	var n int
	err := row.Scan(&n)
	return n, err
}
