package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kqlmd/pkg/filter"
	"kqlmd/pkg/models"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const SELECT_CONVERSIONS_WHERE = `SELECT
		id,
		created_at,
		source,
		query,
		cluster_url,
		row_count,
		column_count,
		markdown
	FROM conversions WHERE 1=1
	`

const schemaVersion = 1

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

func (s *Store) init() error {
	queries := []string{
		`PRAGMA journal_mode=WAL`,
		`CREATE TABLE IF NOT EXISTS conversions (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			source TEXT NOT NULL,
			query TEXT,
			cluster_url TEXT,
			row_count INTEGER NOT NULL,
			column_count INTEGER NOT NULL,
			markdown TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_created_at ON conversions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_cluster_url ON conversions(cluster_url)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_source ON conversions(source)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	var version int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	switch {
	case version == 0:
		if _, err := s.db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	case version > schemaVersion:
		return fmt.Errorf("history database schema version %d is newer than this build supports (%d)", version, schemaVersion)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts a record, filling ID and CreatedAt when they are zero, and
// returns the record as stored
func (s *Store) Save(conv models.Conversion) (models.Conversion, error) {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO conversions
		(id, created_at, source, query, cluster_url, row_count, column_count, markdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query, conv.ID, conv.CreatedAt, conv.Source, conv.Query, conv.ClusterURL, conv.Rows, conv.Columns, conv.Markdown)
	if err != nil {
		return models.Conversion{}, fmt.Errorf("failed to save conversion: %w", err)
	}

	return conv, nil
}

// Get looks up a record by exact ID first, then by unique ID prefix.
// Returns nil without error when nothing matches
func (s *Store) Get(id string) (*models.Conversion, error) {
	row := s.db.QueryRow(SELECT_CONVERSIONS_WHERE+"AND id = ?", id)

	var conv models.Conversion
	err := scanRow(row, &conv)
	if err == nil {
		return &conv, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get conversion: %w", err)
	}

	rows, err := s.db.Query(SELECT_CONVERSIONS_WHERE+"AND id LIKE ? ORDER BY created_at DESC", id+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion: %w", err)
	}
	defer rows.Close()

	matches := []models.Conversion{}
	for rows.Next() {
		var c models.Conversion
		if err := scanRows(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan conversion: %w", err)
		}
		matches = append(matches, c)
	}

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("conversion ID prefix '%s' is ambiguous (%d matches)", id, len(matches))
	}
}

// List returns the most recent records, newest first. A limit of zero or
// less returns everything
func (s *Store) List(limit int) ([]models.Conversion, error) {
	query := SELECT_CONVERSIONS_WHERE + "ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}
	defer rows.Close()

	conversions := []models.Conversion{}
	for rows.Next() {
		var conv models.Conversion
		if err := scanRows(rows, &conv); err != nil {
			return nil, fmt.Errorf("failed to scan conversion: %w", err)
		}
		conversions = append(conversions, conv)
	}

	return conversions, nil
}

// Search narrows with SQL where it can (cluster, source, since) and applies
// the remaining filter modes in process, newest first
func (s *Store) Search(f *filter.ConversionFilter, limit int) ([]models.Conversion, error) {
	query := SELECT_CONVERSIONS_WHERE
	args := []any{}

	if f.Cluster != "" {
		query += " AND cluster_url LIKE ?"
		args = append(args, "%"+f.Cluster+"%")
	}

	if f.Source != "" {
		query += " AND source = ? COLLATE NOCASE"
		args = append(args, f.Source)
	}

	if !f.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, f.Since)
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search conversions: %w", err)
	}
	defer rows.Close()

	conversions := []models.Conversion{}
	for rows.Next() {
		var conv models.Conversion
		if err := scanRows(rows, &conv); err != nil {
			return nil, fmt.Errorf("failed to scan conversion: %w", err)
		}

		ok, err := f.Matches(conv)
		if err != nil {
			return nil, err
		}
		if ok {
			conversions = append(conversions, conv)
		}
	}

	if limit > 0 && len(conversions) > limit {
		conversions = conversions[:limit]
	}

	return conversions, nil
}

// Delete removes a single record by exact ID. Missing records are not an error
func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec("DELETE FROM conversions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete conversion: %w", err)
	}
	return nil
}

// Clear removes every record and returns how many were deleted
func (s *Store) Clear() (int, error) {
	res, err := s.db.Exec("DELETE FROM conversions")
	if err != nil {
		return 0, fmt.Errorf("failed to clear conversions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared conversions: %w", err)
	}

	return int(n), nil
}

// Prune removes records created before the cutoff and returns how many were
// deleted
func (s *Store) Prune(olderThan time.Time) (int, error) {
	res, err := s.db.Exec("DELETE FROM conversions WHERE created_at < ?", olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune conversions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned conversions: %w", err)
	}

	return int(n), nil
}

func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM conversions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count conversions: %w", err)
	}
	return count, nil
}

// DefaultPath returns the history database location under the user cache dir
func DefaultPath() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return filepath.Join(cacheDir, "kqlmd", "history.db")
}

func scanRow(row *sql.Row, conv *models.Conversion) error {
	var query, clusterURL sql.NullString

	err := row.Scan(&conv.ID, &conv.CreatedAt, &conv.Source, &query, &clusterURL, &conv.Rows, &conv.Columns, &conv.Markdown)
	if err != nil {
		return err
	}

	conv.Query = query.String
	conv.ClusterURL = clusterURL.String
	return nil
}

func scanRows(rows *sql.Rows, conv *models.Conversion) error {
	var query, clusterURL sql.NullString

	err := rows.Scan(&conv.ID, &conv.CreatedAt, &conv.Source, &query, &clusterURL, &conv.Rows, &conv.Columns, &conv.Markdown)
	if err != nil {
		return err
	}

	conv.Query = query.String
	conv.ClusterURL = clusterURL.String
	return nil
}
