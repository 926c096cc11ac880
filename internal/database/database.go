package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/franckalain/nutritionscore/internal/additives"
	"github.com/franckalain/nutritionscore/internal/models"
)

//go:embed schema.sql
var schemaFS embed.FS

// DB is the additive reference catalog
type DB interface {
	SaveAdditive(ctx context.Context, rec *models.AdditiveRecord) error
	SeedAdditives(ctx context.Context, records []models.AdditiveRecord) error
	GetAdditive(ctx context.Context, eNumber string) (*models.AdditiveRecord, error)
	ListAdditives(ctx context.Context) ([]models.AdditiveRecord, error)
	CountAdditives(ctx context.Context) (int, error)
	Close() error
}

// SQLiteDB implements the DB interface
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error enabling WAL mode: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

func initializeSchema(db *sql.DB) error {
	schemaBytes, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("error reading schema file: %w", err)
	}

	if _, err := db.Exec(string(schemaBytes)); err != nil {
		return fmt.Errorf("error executing schema: %w", err)
	}

	log.Debug().Msg("Database schema initialized")
	return nil
}

const upsertAdditive = `
	INSERT INTO additives (
		e_number, position, name, type, efsa_risk, risk, created_at, updated_at
	) VALUES (?, (SELECT COUNT(*) FROM additives), ?, ?, ?, ?, ?, ?)
	ON CONFLICT(e_number) DO UPDATE SET
		name = excluded.name,
		type = excluded.type,
		efsa_risk = excluded.efsa_risk,
		risk = excluded.risk,
		updated_at = excluded.updated_at
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveAdditive(ctx context.Context, ex execer, rec *models.AdditiveRecord, now time.Time) error {
	eNumber := additives.NormalizeID(rec.ENumber)

	var efsa sql.NullInt64
	if rec.EFSARisk != nil {
		efsa = sql.NullInt64{Int64: int64(*rec.EFSARisk), Valid: true}
	}

	_, err := ex.ExecContext(ctx, upsertAdditive,
		eNumber, rec.Name, rec.Type, efsa, int(rec.Risk), now, now,
	)
	return err
}

// SaveAdditive inserts or updates one record. New records are appended to
// the reference order; updates keep their position.
func (s *SQLiteDB) SaveAdditive(ctx context.Context, rec *models.AdditiveRecord) error {
	return saveAdditive(ctx, s.db, rec, time.Now())
}

// SeedAdditives saves records in order inside one transaction
func (s *SQLiteDB) SeedAdditives(ctx context.Context, records []models.AdditiveRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for i := range records {
		if err := saveAdditive(ctx, tx, &records[i], now); err != nil {
			return fmt.Errorf("error saving additive %s: %w", records[i].ENumber, err)
		}
	}
	return tx.Commit()
}

// GetAdditive retrieves one record; it returns nil, nil when not found
func (s *SQLiteDB) GetAdditive(ctx context.Context, eNumber string) (*models.AdditiveRecord, error) {
	query := `
		SELECT e_number, name, type, efsa_risk, risk
		FROM additives WHERE e_number = ?
	`

	rec, err := scanAdditive(s.db.QueryRowContext(ctx, query, additives.NormalizeID(eNumber)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListAdditives returns every record in reference order
func (s *SQLiteDB) ListAdditives(ctx context.Context) ([]models.AdditiveRecord, error) {
	query := `
		SELECT e_number, name, type, efsa_risk, risk
		FROM additives
		ORDER BY position, e_number
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.AdditiveRecord
	for rows.Next() {
		rec, err := scanAdditive(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *rec)
	}
	return results, rows.Err()
}

// CountAdditives returns the number of stored records
func (s *SQLiteDB) CountAdditives(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM additives").Scan(&n)
	return n, err
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAdditive(row scanner) (*models.AdditiveRecord, error) {
	var (
		rec  models.AdditiveRecord
		efsa sql.NullInt64
		risk int
	)
	if err := row.Scan(&rec.ENumber, &rec.Name, &rec.Type, &efsa, &risk); err != nil {
		return nil, err
	}
	rec.Risk = models.RiskLevel(risk)
	if efsa.Valid {
		r := models.RiskLevel(efsa.Int64)
		rec.EFSARisk = &r
	}
	return &rec, nil
}

// LoadRegistry builds the additive registry from the catalog, seeding an
// empty catalog with the embedded reference data first.
func LoadRegistry(ctx context.Context, db DB) (*additives.Registry, error) {
	n, err := db.CountAdditives(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting additives: %w", err)
	}

	if n == 0 {
		records, err := additives.Embedded()
		if err != nil {
			return nil, err
		}
		if err := db.SeedAdditives(ctx, records); err != nil {
			return nil, fmt.Errorf("error seeding additives: %w", err)
		}
		log.Info().Int("count", len(records)).Msg("Seeded additive catalog")
	}

	records, err := db.ListAdditives(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing additives: %w", err)
	}

	reg, err := additives.NewRegistry(records)
	if err != nil {
		return nil, err
	}
	log.Info().Int("count", reg.Len()).Msg("Loaded additive registry")
	return reg, nil
}
