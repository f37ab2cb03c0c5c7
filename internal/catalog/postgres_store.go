package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore reads and writes the services table.
type PostgresStore struct {
	db db
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

func newPostgresStoreWithDB(conn db) *PostgresStore {
	return &PostgresStore{db: conn}
}

const serviceColumns = `id::text, name, description, duration_minutes, price::float8, created_at`

func (s *PostgresStore) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := s.db.Query(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		out = append(out, *svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list rows: %w", err)
	}
	return out, nil
}

// FindServiceByName folds both sides with the database's lower() so the match
// agrees with the services_name_key index under any collation.
func (s *PostgresStore) FindServiceByName(ctx context.Context, name string) (*Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE lower(name) = lower($1) LIMIT 1`
	svc, err := scanService(s.db.QueryRow(ctx, query, strings.TrimSpace(name)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: find service: %w", err)
	}
	return svc, nil
}

func (s *PostgresStore) CreateService(ctx context.Context, req CreateServiceRequest) (*Service, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	query := `
		INSERT INTO services (id, name, description, duration_minutes, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + serviceColumns
	svc, err := scanService(s.db.QueryRow(ctx, query,
		uuid.NewString(),
		req.Name,
		req.Description,
		req.DurationMinutes,
		req.Price,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateService
		}
		return nil, fmt.Errorf("catalog: insert service: %w", err)
	}
	return svc, nil
}

func scanService(row pgx.Row) (*Service, error) {
	var svc Service
	if err := row.Scan(&svc.ID, &svc.Name, &svc.Description, &svc.DurationMinutes, &svc.Price, &svc.CreatedAt); err != nil {
		return nil, err
	}
	return &svc, nil
}
