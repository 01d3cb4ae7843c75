package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/facecat/internal/config"
	"github.com/your-org/facecat/internal/models"
)

// signatureDim is the appearance-signature length (256 luminance bins).
const signatureDim = 256

// PostgresStore keeps the catalog in Postgres. It implements the same
// wholesale load/rewrite contract as FileStore: Persist replaces the whole
// table inside one transaction. The appearance signature is stored as a
// pgvector column so a future indexed nearest-neighbour lookup can replace
// the in-memory linear scan without changing the record shape.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS person_records (
			id         INTEGER PRIMARY KEY,
			image_ref  TEXT NOT NULL,
			gender     TEXT NOT NULL,
			age        TEXT NOT NULL,
			first_seen TIMESTAMPTZ NOT NULL,
			signature  vector(%d)
		)`, signatureDim),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Load reads all records ordered by durable ID, which equals insertion
// order because IDs are strictly increasing.
func (s *PostgresStore) Load(ctx context.Context) ([]models.PersonRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, image_ref, gender, age, first_seen, signature FROM person_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load person records: %w", err)
	}
	defer rows.Close()

	var records []models.PersonRecord
	for rows.Next() {
		var r models.PersonRecord
		var sig *pgvector.Vector
		if err := rows.Scan(&r.ID, &r.ImageRef, &r.Gender, &r.Age, &r.FirstSeen, &sig); err != nil {
			return nil, fmt.Errorf("scan person record: %w", err)
		}
		if sig != nil {
			r.Signature = sig.Slice()
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load person records: %w", err)
	}

	if err := validateOrder(records); err != nil {
		return nil, fmt.Errorf("person_records table: %w", err)
	}

	return records, nil
}

// Persist rewrites the whole table in one transaction.
func (s *PostgresStore) Persist(ctx context.Context, records []models.PersonRecord) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin persist: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE person_records`); err != nil {
		return fmt.Errorf("truncate person records: %w", err)
	}

	for _, r := range records {
		var sig *pgvector.Vector
		if len(r.Signature) == signatureDim {
			v := pgvector.NewVector(r.Signature)
			sig = &v
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO person_records (id, image_ref, gender, age, first_seen, signature)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			r.ID, r.ImageRef, r.Gender, r.Age, r.FirstSeen, sig); err != nil {
			return fmt.Errorf("insert person record %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit persist: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE person_records`); err != nil {
		return fmt.Errorf("clear person records: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
