// Package fixture loads YAML seed data into the database. Each file is a
// list of records with a model name, a primary key and a field map; related
// objects are referenced by primary key.
package fixture

import (
	"database/sql"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/clubm8/clubm8api/internal/filter"
)

//go:embed data/*.yaml
var builtin embed.FS

// Default lists the built-in fixtures in dependency order.
var Default = []string{"test_user", "tags", "events", "occurrences", "plans", "slots", "news"}

type record struct {
	Model  string    `yaml:"model"`
	PK     int64     `yaml:"pk"`
	Fields yaml.Node `yaml:"fields"`
}

type userFields struct {
	Username    string   `yaml:"username"`
	FirstName   string   `yaml:"first_name"`
	LastName    string   `yaml:"last_name"`
	Email       string   `yaml:"email"`
	IsSuperuser bool     `yaml:"is_superuser"`
	Inactive    bool     `yaml:"inactive"`
	Permissions []string `yaml:"permissions"`
	APIKey      string   `yaml:"api_key"`
}

type tagFields struct {
	Name string `yaml:"name"`
}

type eventFields struct {
	Title string  `yaml:"title"`
	Tags  []int64 `yaml:"tags"`
}

type occurrenceFields struct {
	Event int64 `yaml:"event"`
}

type planFields struct {
	Occurrences []int64 `yaml:"occurrences"`
}

type slotFields struct {
	Plan  int64  `yaml:"plan"`
	Start string `yaml:"start"`
}

type newsFields struct {
	Title  string `yaml:"title"`
	Text   string `yaml:"text"`
	Author *int64 `yaml:"author"`
	Date   string `yaml:"date"`
	Time   string `yaml:"time"`
}

// Load loads fixtures by name. A name is either a built-in fixture
// ("slots") or a path to a YAML file. Each fixture is applied in its own
// transaction. It returns the number of records written.
func Load(db *sql.DB, names ...string) (int, error) {
	total := 0
	for _, name := range names {
		data, err := read(name)
		if err != nil {
			return total, err
		}
		n, err := Apply(db, data)
		if err != nil {
			return total, fmt.Errorf("fixture %s: %w", name, err)
		}
		total += n
	}
	return total, nil
}

func read(name string) ([]byte, error) {
	if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") || strings.ContainsRune(name, filepath.Separator) {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("open fixture: %w", err)
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	data, err := builtin.ReadFile("data/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown fixture %q", name)
	}
	return data, nil
}

// Apply parses a YAML fixture document and writes its records.
func Apply(db *sql.DB, data []byte) (int, error) {
	var records []record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("parse fixture: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for i, rec := range records {
		if err := insert(tx, rec); err != nil {
			return 0, fmt.Errorf("record %d (%s %d): %w", i, rec.Model, rec.PK, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

func insert(tx *sql.Tx, rec record) error {
	switch rec.Model {
	case "user":
		var f userFields
		if err := rec.Fields.Decode(&f); err != nil {
			return err
		}
		return insertUser(tx, rec.PK, f)
	case "tag":
		var f tagFields
		if err := rec.Fields.Decode(&f); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT INTO tags (id, name) VALUES (?, ?)`, rec.PK, f.Name)
		return err
	case "event":
		var f eventFields
		if err := rec.Fields.Decode(&f); err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO events (id, title) VALUES (?, ?)`, rec.PK, f.Title); err != nil {
			return err
		}
		return link(tx, `INSERT INTO event_tags (event_id, tag_id) VALUES (?, ?)`, rec.PK, f.Tags)
	case "occurrence", "special":
		var f occurrenceFields
		if err := rec.Fields.Decode(&f); err != nil {
			return err
		}
		table := "occurrences"
		if rec.Model == "special" {
			table = "special_occurrences"
		}
		_, err := tx.Exec(`INSERT INTO `+table+` (id, event_id) VALUES (?, ?)`, rec.PK, f.Event)
		return err
	case "plan":
		var f planFields
		if err := rec.Fields.Decode(&f); err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO plans (id) VALUES (?)`, rec.PK); err != nil {
			return err
		}
		return link(tx, `INSERT INTO plan_occurrences (plan_id, occurrence_id) VALUES (?, ?)`, rec.PK, f.Occurrences)
	case "slot":
		var f slotFields
		if err := rec.Fields.Decode(&f); err != nil {
			return err
		}
		start, err := parseTimestamp(f.Start)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`INSERT INTO slots (id, plan_id, start) VALUES (?, ?, ?)`, rec.PK, f.Plan, start.UTC())
		return err
	case "news":
		var f newsFields
		if err := rec.Fields.Decode(&f); err != nil {
			return err
		}
		day, err := filter.ParseDate(f.Date)
		if err != nil {
			return fmt.Errorf("news date %q: %w", f.Date, err)
		}
		clock, err := parseClock(f.Time)
		if err != nil {
			return err
		}
		var author sql.NullInt64
		if f.Author != nil {
			author = sql.NullInt64{Int64: *f.Author, Valid: true}
		}
		_, err = tx.Exec(
			`INSERT INTO news (id, title, text, author_id, date, time) VALUES (?, ?, ?, ?, ?, ?)`,
			rec.PK, f.Title, f.Text, author, day.Format(filter.DateLayout), clock,
		)
		return err
	default:
		return fmt.Errorf("unknown model %q", rec.Model)
	}
}

func insertUser(tx *sql.Tx, pk int64, f userFields) error {
	_, err := tx.Exec(
		`INSERT INTO users (id, username, first_name, last_name, email, is_active, is_superuser) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pk, f.Username, f.FirstName, f.LastName, f.Email, !f.Inactive, f.IsSuperuser,
	)
	if err != nil {
		return err
	}
	for _, p := range f.Permissions {
		if _, err := tx.Exec(`INSERT INTO user_permissions (user_id, codename) VALUES (?, ?)`, pk, p); err != nil {
			return err
		}
	}
	if f.APIKey == "" {
		return nil
	}
	// Seed keys are hashed at the minimum cost.
	hash, err := bcrypt.GenerateFromPassword([]byte(f.APIKey), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("hash api key: %w", err)
	}
	_, err = tx.Exec(`INSERT INTO api_keys (user_id, key_hash) VALUES (?, ?)`, pk, string(hash))
	return err
}

func link(tx *sql.Tx, stmt string, owner int64, targets []int64) error {
	for _, t := range targets {
		if _, err := tx.Exec(stmt, owner, t); err != nil {
			return err
		}
	}
	return nil
}

// parseClock normalizes HH:MM[:SS] to HH:MM:SS. Empty means midnight.
func parseClock(s string) (string, error) {
	if s == "" {
		return "00:00:00", nil
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("invalid news time %q", s)
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
