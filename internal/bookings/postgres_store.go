package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const uniqueViolation = "23505"

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists bookings in the bookings table. The
// bookings_slot_key unique constraint is the authoritative exclusivity guard.
type PostgresStore struct {
	db db
}

// NewPostgresStore creates a store backed by pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

func newPostgresStoreWithDB(conn db) *PostgresStore {
	if conn == nil {
		panic("bookings: db required")
	}
	return &PostgresStore{db: conn}
}

const bookingColumns = `id::text, name, service, booking_date, booking_time, phone, created_at`

func (s *PostgresStore) FindBooking(ctx context.Context, slot Slot) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.pg.find")
	defer span.End()

	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE service = $1 AND booking_date = $2 AND booking_time = $3
		LIMIT 1`
	b, err := scanBooking(s.db.QueryRow(ctx, query, slot.Service, slot.Date, slot.Time))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("bookings: pg find: %w", err)
	}
	return b, nil
}

// InsertBooking relies on ON CONFLICT DO NOTHING: a taken slot returns no row.
// A racing insert that still trips the constraint surfaces as 23505; both are ErrConflict.
func (s *PostgresStore) InsertBooking(ctx context.Context, b Booking) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.pg.insert")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("bookings: generate id: %w", err)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO bookings (id, name, service, booking_date, booking_time, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (service, booking_date, booking_time) DO NOTHING
		RETURNING id::text
	`
	var inserted string
	err = s.db.QueryRow(ctx, query,
		toPGUUID(id),
		b.Name,
		b.Service,
		b.Date,
		b.Time,
		b.Phone,
		toPGTime(b.CreatedAt),
	).Scan(&inserted)
	switch {
	case errors.Is(err, pgx.ErrNoRows), isUniqueViolation(err):
		return nil, ErrConflict
	case err != nil:
		span.RecordError(err)
		return nil, fmt.Errorf("bookings: pg insert: %w", err)
	}
	b.ID = inserted
	span.SetAttributes(attribute.String("turnos.booking_id", b.ID))
	return &b, nil
}

func (s *PostgresStore) ListBookings(ctx context.Context) ([]Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.pg.list")
	defer span.End()

	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY booking_date, booking_time, id`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("bookings: pg list: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: pg scan: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: pg list rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetBooking(ctx context.Context, id string) (*Booking, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(s.db.QueryRow(ctx, query, toPGUUID(parsed)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: pg get: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) UpdateBooking(ctx context.Context, b Booking) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.pg.update")
	defer span.End()

	parsed, err := uuid.Parse(b.ID)
	if err != nil {
		return nil, ErrNotFound
	}
	query := `
		UPDATE bookings
		SET name = $2, service = $3, booking_date = $4, booking_time = $5, phone = $6
		WHERE id = $1
		RETURNING created_at
	`
	var createdAt time.Time
	err = s.db.QueryRow(ctx, query,
		toPGUUID(parsed),
		b.Name,
		b.Service,
		b.Date,
		b.Time,
		b.Phone,
	).Scan(&createdAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrNotFound
	case isUniqueViolation(err):
		return nil, ErrConflict
	case err != nil:
		span.RecordError(err)
		return nil, fmt.Errorf("bookings: pg update: %w", err)
	}
	b.CreatedAt = createdAt
	return &b, nil
}

func (s *PostgresStore) DeleteBooking(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	ct, err := s.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, toPGUUID(parsed))
	if err != nil {
		return fmt.Errorf("bookings: pg delete: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(&b.ID, &b.Name, &b.Service, &b.Date, &b.Time, &b.Phone, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func toPGUUID(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{
		Bytes: [16]byte(id),
		Valid: true,
	}
}

func toPGTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t,
		Valid: true,
	}
}
