// Package persistence stores generated dynasties in SQLite so runs can be
// listed, reloaded and exported later.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/dynasty-gen/internal/engine"
	"github.com/talgya/dynasty-gen/internal/people"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// DB wraps a SQLite connection holding saved runs.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		dynasty TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		config_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS people (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		id INTEGER NOT NULL,
		given_name TEXT NOT NULL,
		dynasty TEXT NOT NULL,
		female INTEGER NOT NULL,
		birth_day INTEGER NOT NULL,
		death_day INTEGER NOT NULL,
		alive_at_end INTEGER NOT NULL,
		father_id INTEGER,
		mother_id INTEGER,
		spouse_id INTEGER,
		marriage_day INTEGER,
		skip_generation INTEGER NOT NULL,
		mother_age_first_child INTEGER NOT NULL,
		generation INTEGER,
		PRIMARY KEY (run_id, id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		day INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, day);
	CREATE INDEX IF NOT EXISTS idx_people_generation ON people(run_id, generation);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is a dynasty loaded back from the database.
type Run struct {
	ID        string
	Seed      int64
	CreatedAt time.Time
	Dynasty   *engine.Dynasty
}

// RunSummary is one line of the run listing.
type RunSummary struct {
	ID          string `db:"id"`
	Seed        int64  `db:"seed"`
	Dynasty     string `db:"dynasty"`
	CreatedUnix int64  `db:"created_at"`
	People      int    `db:"people"`
	Generations int    `db:"generations"`
}

// CreatedAt returns the save time.
func (r RunSummary) CreatedAt() time.Time {
	return time.Unix(r.CreatedUnix, 0).UTC()
}

type runRow struct {
	ID         string `db:"id"`
	Seed       int64  `db:"seed"`
	Dynasty    string `db:"dynasty"`
	CreatedAt  int64  `db:"created_at"`
	ConfigJSON string `db:"config_json"`
}

type personRow struct {
	ID                  int64         `db:"id"`
	GivenName           string        `db:"given_name"`
	Dynasty             string        `db:"dynasty"`
	Female              bool          `db:"female"`
	BirthDay            int           `db:"birth_day"`
	DeathDay            int           `db:"death_day"`
	AliveAtEnd          bool          `db:"alive_at_end"`
	FatherID            sql.NullInt64 `db:"father_id"`
	MotherID            sql.NullInt64 `db:"mother_id"`
	SpouseID            sql.NullInt64 `db:"spouse_id"`
	MarriageDay         sql.NullInt64 `db:"marriage_day"`
	SkipGeneration      bool          `db:"skip_generation"`
	MotherAgeFirstChild int           `db:"mother_age_first_child"`
	Generation          sql.NullInt64 `db:"generation"`
}

// SaveRun writes a whole dynasty in one transaction and returns its new
// run ID.
func (db *DB) SaveRun(d *engine.Dynasty, seed int64) (string, error) {
	id := uuid.NewString()
	cfgJSON, err := json.Marshal(d.Config)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO runs (id, seed, dynasty, created_at, config_json) VALUES (?, ?, ?, ?, ?)",
		id, seed, d.Name(), time.Now().UTC().Unix(), string(cfgJSON),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT INTO people
		(run_id, id, given_name, dynasty, female, birth_day, death_day, alive_at_end,
		 father_id, mother_id, spouse_id, marriage_day, skip_generation,
		 mother_age_first_child, generation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	gens := d.GenerationIndex()
	for _, p := range d.Registry.All() {
		var generation sql.NullInt64
		if g, ok := gens[p.ID]; ok {
			generation = sql.NullInt64{Int64: int64(g), Valid: true}
		}
		_, err := stmt.Exec(
			id, p.ID, p.GivenName, p.Dynasty, boolInt(p.Female()),
			p.BirthDay, p.DeathDay, boolInt(p.AliveAtEnd),
			nullID(p.FatherID), nullID(p.MotherID), nullID(p.SpouseID), nullDay(p.MarriageDay),
			boolInt(p.SkipGeneration), p.MotherAgeAtFirstChild, generation,
		)
		if err != nil {
			return "", fmt.Errorf("insert person %d: %w", p.ID, err)
		}
	}

	for _, e := range d.Events {
		if _, err := tx.Exec(
			"INSERT INTO events (run_id, day, description, category) VALUES (?, ?, ?, ?)",
			id, e.Day, e.Description, e.Category,
		); err != nil {
			return "", fmt.Errorf("insert event: %w", err)
		}
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)", metaLastRun, id,
	); err != nil {
		return "", fmt.Errorf("save meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slog.Info("run saved", "run", id, "dynasty", d.Name(), "people", d.Registry.Len(), "events", len(d.Events))
	return id, nil
}

// LoadRun rebuilds a saved dynasty: the registry, children lists, the
// generation index and the event log.
func (db *DB) LoadRun(id string) (*Run, error) {
	var row runRow
	err := db.conn.Get(&row, "SELECT id, seed, dynasty, created_at, config_json FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}

	var cfg engine.Config
	if err := json.Unmarshal([]byte(row.ConfigJSON), &cfg); err != nil {
		return nil, fmt.Errorf("decode config of %s: %w", id, err)
	}

	var rows []personRow
	if err := db.conn.Select(&rows, `SELECT id, given_name, dynasty, female, birth_day, death_day,
		alive_at_end, father_id, mother_id, spouse_id, marriage_day, skip_generation,
		mother_age_first_child, generation
		FROM people WHERE run_id = ? ORDER BY id`, id); err != nil {
		return nil, fmt.Errorf("load people of %s: %w", id, err)
	}

	reg := people.NewRegistry()
	var generations [][]people.PersonID
	for _, r := range rows {
		p := r.person()
		if err := reg.Restore(p); err != nil {
			return nil, fmt.Errorf("load people of %s: %w", id, err)
		}
		if p.FatherID != nil {
			if err := reg.AddChild(*p.FatherID, p.ID); err != nil {
				return nil, fmt.Errorf("load people of %s: %w", id, err)
			}
		}
		if r.Generation.Valid {
			g := int(r.Generation.Int64)
			for len(generations) <= g {
				generations = append(generations, nil)
			}
			generations[g] = append(generations[g], p.ID)
		}
	}

	var events []engine.Event
	if err := db.conn.Select(&events,
		"SELECT day, description, category FROM events WHERE run_id = ? ORDER BY id", id,
	); err != nil {
		return nil, fmt.Errorf("load events of %s: %w", id, err)
	}

	slog.Debug("run loaded", "run", id, "people", reg.Len(), "generations", len(generations))
	return &Run{
		ID:        row.ID,
		Seed:      row.Seed,
		CreatedAt: time.Unix(row.CreatedAt, 0).UTC(),
		Dynasty: &engine.Dynasty{
			Config:      cfg,
			Registry:    reg,
			Generations: generations,
			Events:      events,
		},
	}, nil
}

// ListRuns returns every saved run, newest first.
func (db *DB) ListRuns() ([]RunSummary, error) {
	var runs []RunSummary
	err := db.conn.Select(&runs, `SELECT r.id, r.seed, r.dynasty, r.created_at,
		(SELECT COUNT(*) FROM people p WHERE p.run_id = r.id) AS people,
		(SELECT COALESCE(MAX(p.generation) + 1, 0) FROM people p WHERE p.run_id = r.id) AS generations
		FROM runs r ORDER BY r.created_at DESC, r.rowid DESC`)
	return runs, err
}

// DeleteRun removes a run and everything that belongs to it.
func (db *DB) DeleteRun(id string) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM events WHERE run_id = ?",
		"DELETE FROM people WHERE run_id = ?",
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
	}
	res, err := tx.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %s: %w", id, ErrRunNotFound)
	}
	return tx.Commit()
}

const metaLastRun = "last_run"

// LastRun returns the ID of the most recently saved run.
func (db *DB) LastRun() (string, error) {
	v, err := db.GetMeta(metaLastRun)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrRunNotFound
	}
	return v, err
}

// SaveMeta stores a key-value pair in run metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM run_meta WHERE key = ?", key)
	return value, err
}

func (r personRow) person() *people.Person {
	p := &people.Person{
		ID:                    people.PersonID(r.ID),
		GivenName:             r.GivenName,
		Dynasty:               r.Dynasty,
		BirthDay:              r.BirthDay,
		DeathDay:              r.DeathDay,
		AliveAtEnd:            r.AliveAtEnd,
		FatherID:              idPtr(r.FatherID),
		MotherID:              idPtr(r.MotherID),
		SpouseID:              idPtr(r.SpouseID),
		SkipGeneration:        r.SkipGeneration,
		MotherAgeAtFirstChild: r.MotherAgeFirstChild,
	}
	if r.Female {
		p.Sex = people.SexFemale
	}
	if r.MarriageDay.Valid {
		d := int(r.MarriageDay.Int64)
		p.MarriageDay = &d
	}
	return p
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullID(id *people.PersonID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func nullDay(day *int) sql.NullInt64 {
	if day == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*day), Valid: true}
}

func idPtr(v sql.NullInt64) *people.PersonID {
	if !v.Valid {
		return nil
	}
	id := people.PersonID(v.Int64)
	return &id
}
