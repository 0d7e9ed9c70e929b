package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cloudpe/pemarket/internal/domain"
	"github.com/cloudpe/pemarket/internal/pe"
)

// Cache stores the last successfully fetched catalog per environment kind
// in a local sqlite database, so browsing and search keep working when the
// catalog endpoint is unreachable.
type Cache struct {
	db *sql.DB
}

func OpenCache(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		return nil, fmt.Errorf("could not migrate catalog cache: %w", err)
	}

	return c, nil
}

func (c *Cache) migrate() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS catalogs (
			kind       TEXT PRIMARY KEY,
			fetched_at INTEGER NOT NULL,
			payload    TEXT NOT NULL
		)`)
	return err
}

func (c *Cache) Put(kind pe.Kind, plugins []domain.Plugin) error {
	payload, err := json.Marshal(plugins)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO catalogs (kind, fetched_at, payload) VALUES (?, ?, ?)`,
		kind.String(), time.Now().Unix(), string(payload),
	)
	return err
}

func (c *Cache) Get(kind pe.Kind) ([]domain.Plugin, time.Time, error) {
	row := c.db.QueryRow(`SELECT fetched_at, payload FROM catalogs WHERE kind = ? LIMIT 1`, kind.String())

	var fetchedAt int64
	var payload string
	if err := row.Scan(&fetchedAt, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, fmt.Errorf("failed to read catalog cache: %w", err)
	}

	var plugins []domain.Plugin
	if err := json.Unmarshal([]byte(payload), &plugins); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode cached catalog: %w", err)
	}

	return plugins, time.Unix(fetchedAt, 0), nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}
