package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/community-roots/internal/model"
)

// SQLiteStore implements SnapshotStore using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ SnapshotStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

type parkRow struct {
	ID          string          `db:"id"`
	Position    int             `db:"position"`
	Name        string          `db:"name"`
	Location    string          `db:"location"`
	Description string          `db:"description"`
	MapURL      string          `db:"map_url"`
	Lat         sql.NullFloat64 `db:"lat"`
	Lng         sql.NullFloat64 `db:"lng"`
}

type taskRow struct {
	ParkID      string `db:"park_id"`
	ID          string `db:"id"`
	Position    int    `db:"position"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Status      string `db:"status"`
	Volunteers  string `db:"volunteers"`
	Date        string `db:"date"`
	Urgency     string `db:"urgency"`
}

type ledgerRow struct {
	ID       string    `db:"id"`
	Position int       `db:"position"`
	Action   string    `db:"action"`
	Points   int       `db:"points"`
	Date     time.Time `db:"date"`
}

// Save replaces the stored parks, tasks and ledger with snap in a single
// transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"tasks", "parks", "ledger"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for i, p := range snap.Parks {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO parks (id, position, name, location, description, map_url, lat, lng)
			VALUES (:id, :position, :name, :location, :description, :map_url, :lat, :lng)`,
			parkRow{
				ID: p.ID, Position: i, Name: p.Name, Location: p.Location,
				Description: p.Description, MapURL: p.MapURL,
				Lat: nullFloat(p.Lat), Lng: nullFloat(p.Lng),
			},
		)
		if err != nil {
			return fmt.Errorf("saving park %s: %w", p.ID, err)
		}

		for j, t := range p.Tasks {
			volunteers, err := json.Marshal(nonNil(t.Volunteers))
			if err != nil {
				return fmt.Errorf("marshaling volunteers for task %s: %w", t.ID, err)
			}
			_, err = tx.NamedExecContext(ctx, `
				INSERT INTO tasks (park_id, id, position, title, description, status, volunteers, date, urgency)
				VALUES (:park_id, :id, :position, :title, :description, :status, :volunteers, :date, :urgency)`,
				taskRow{
					ParkID: p.ID, ID: t.ID, Position: j, Title: t.Title,
					Description: t.Description, Status: string(t.Status),
					Volunteers: string(volunteers), Date: t.Date,
					Urgency: string(model.ParseUrgency(string(t.Urgency))),
				},
			)
			if err != nil {
				return fmt.Errorf("saving task %s/%s: %w", p.ID, t.ID, err)
			}
		}
	}

	for i, e := range snap.Ledger {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO ledger (id, position, action, points, date)
			VALUES (:id, :position, :action, :points, :date)`,
			ledgerRow{ID: e.ID, Position: i, Action: e.Action, Points: e.Points, Date: e.Date.UTC()},
		)
		if err != nil {
			return fmt.Errorf("saving ledger entry %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// Load reads the stored snapshot. An empty database yields an empty
// snapshot.
func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	var parks []parkRow
	if err := s.db.SelectContext(ctx, &parks, "SELECT * FROM parks ORDER BY position"); err != nil {
		return Snapshot{}, fmt.Errorf("querying parks: %w", err)
	}

	var tasks []taskRow
	if err := s.db.SelectContext(ctx, &tasks, "SELECT * FROM tasks ORDER BY park_id, position"); err != nil {
		return Snapshot{}, fmt.Errorf("querying tasks: %w", err)
	}

	byPark := make(map[string][]model.Task, len(parks))
	for _, r := range tasks {
		var volunteers []string
		if err := json.Unmarshal([]byte(r.Volunteers), &volunteers); err != nil {
			return Snapshot{}, fmt.Errorf("unmarshaling volunteers for task %s: %w", r.ID, err)
		}
		byPark[r.ParkID] = append(byPark[r.ParkID], model.Task{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Status:      model.TaskStatus(r.Status),
			Volunteers:  nonNil(volunteers),
			Date:        r.Date,
			Urgency:     model.ParseUrgency(r.Urgency),
		})
	}

	snap := Snapshot{Parks: make([]model.Park, 0, len(parks))}
	for _, r := range parks {
		p := model.Park{
			ID:          r.ID,
			Name:        r.Name,
			Location:    r.Location,
			Description: r.Description,
			MapURL:      r.MapURL,
			Tasks:       byPark[r.ID],
			Lat:         floatPtr(r.Lat),
			Lng:         floatPtr(r.Lng),
		}
		if p.Tasks == nil {
			p.Tasks = []model.Task{}
		}
		snap.Parks = append(snap.Parks, p)
	}

	var entries []ledgerRow
	if err := s.db.SelectContext(ctx, &entries, "SELECT * FROM ledger ORDER BY position"); err != nil {
		return Snapshot{}, fmt.Errorf("querying ledger: %w", err)
	}
	for _, r := range entries {
		snap.Ledger = append(snap.Ledger, model.LedgerEntry{
			ID: r.ID, Action: r.Action, Points: r.Points, Date: r.Date,
		})
	}

	return snap, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
