package bookingstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/voxbook/internal/team"
	"github.com/MrWong99/voxbook/pkg/types"
)

// Schema is the SQL DDL for the tables the store reads. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
//
// Bookings carry both time representations: rows written before the
// start/end instant columns existed only fill date, start_time and end_time.
const Schema = `
CREATE TABLE IF NOT EXISTS teams (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS bookings (
    id              TEXT PRIMARY KEY,
    team_id         TEXT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
    event_name      TEXT NOT NULL DEFAULT '',
    description     TEXT NOT NULL DEFAULT '',
    start_date_time TIMESTAMPTZ,
    end_date_time   TIMESTAMPTZ,
    date            TEXT NOT NULL DEFAULT '',
    start_time      TEXT NOT NULL DEFAULT '',
    end_time        TEXT NOT NULL DEFAULT '',
    is_whole_day    BOOLEAN NOT NULL DEFAULT false,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_bookings_team ON bookings(team_id);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// pinger is implemented by *pgxpool.Pool and *pgx.Conn.
type pinger interface {
	Ping(ctx context.Context) error
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db   DB
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open creates a connection pool to the database at dsn, verifies it with a
// ping and, when migrate is set, applies [Schema]. The returned store owns
// the pool; release it with [PostgresStore.Close].
func Open(ctx context.Context, dsn string, migrate bool) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("bookingstore: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("bookingstore: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bookingstore: ping: %w", err)
	}

	s := &PostgresStore{db: pool, pool: pool}
	if migrate {
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close releases the pool created by [Open]. It is a no-op for stores built
// with [NewPostgresStore].
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate executes the [Schema] DDL.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("bookingstore: migrate: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if p, ok := s.db.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("bookingstore: ping: %w", err)
		}
		return nil
	}
	var one int
	if err := s.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("bookingstore: ping: %w", err)
	}
	return nil
}

// ListByTeam implements [Store].
func (s *PostgresStore) ListByTeam(ctx context.Context, teamID string) ([]types.ExistingBooking, error) {
	const query = `
		SELECT id, team_id, event_name, description,
		       start_date_time, end_date_time, date, start_time, end_time,
		       is_whole_day
		FROM bookings
		WHERE team_id = $1
		ORDER BY start_date_time NULLS LAST, date, start_time, id`

	rows, err := s.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("bookingstore: list bookings for %q: %w", teamID, err)
	}
	defer rows.Close()

	out := []types.ExistingBooking{}
	for rows.Next() {
		var (
			b          types.ExistingBooking
			start, end *time.Time
		)
		if err := rows.Scan(
			&b.ID, &b.TeamID, &b.EventName, &b.Description,
			&start, &end, &b.Date, &b.StartTime, &b.EndTime,
			&b.IsWholeDay,
		); err != nil {
			return nil, fmt.Errorf("bookingstore: scan booking: %w", err)
		}
		b.Start, b.End = start, end
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookingstore: list bookings for %q: %w", teamID, err)
	}
	return out, nil
}

// Teams returns a [team.Store] view over the teams table.
func (s *PostgresStore) Teams() team.Store {
	return teamView{db: s.db}
}

type teamView struct {
	db DB
}

func (v teamView) List(ctx context.Context) ([]team.Team, error) {
	rows, err := v.db.Query(ctx, `SELECT id, name FROM teams ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("bookingstore: list teams: %w", err)
	}
	defer rows.Close()

	out := []team.Team{}
	for rows.Next() {
		var t team.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("bookingstore: scan team: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookingstore: list teams: %w", err)
	}
	return out, nil
}

func (v teamView) Get(ctx context.Context, id string) (team.Team, error) {
	var t team.Team
	err := v.db.QueryRow(ctx, `SELECT id, name FROM teams WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return team.Team{}, fmt.Errorf("bookingstore: team %q: %w", id, team.ErrNotFound)
		}
		return team.Team{}, fmt.Errorf("bookingstore: get team %q: %w", id, err)
	}
	return t, nil
}
