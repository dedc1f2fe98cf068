package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicate is returned when a record for the same (dni, class, day)
// already exists.
var ErrDuplicate = errors.New("attendance already recorded today")

// Record is a single attendance submission.
type Record struct {
	ID         string    `json:"id"`
	ClassID    string    `json:"class_id"`
	Surname    string    `json:"surname"`
	GivenName  string    `json:"given_name"`
	DNI        string    `json:"dni"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new record. The insert is conditional on the unique index
// over (dni, class_id, recorded_at::date): when a same-day record exists the
// statement inserts nothing and ErrDuplicate is returned, so two racing
// submissions cannot both land.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, class_id, surname, given_name, dni, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (dni, class_id, (recorded_at::date)) DO NOTHING
		RETURNING id
	`, rec.ID, rec.ClassID, rec.Surname, rec.GivenName, rec.DNI, rec.RecordedAt)
	if err := row.Scan(&rec.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrDuplicate
		}
		return Record{}, err
	}
	return rec, nil
}

// ListAll returns every record, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]Record, error) {
	return r.List(ctx, "", 0, 0)
}

// List returns records with an optional class filter. A non-positive limit
// means no limit.
func (r *Repository) List(ctx context.Context, classID string, limit, offset int) ([]Record, error) {
	query := `SELECT id, class_id, surname, given_name, dni, recorded_at FROM attendance_records`
	args := []any{}
	if classID != "" {
		args = append(args, classID)
		query += fmt.Sprintf(" WHERE class_id = $%d", len(args))
	}
	query += " ORDER BY recorded_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		if offset > 0 {
			args = append(args, offset)
			query += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ClassID, &rec.Surname, &rec.GivenName, &rec.DNI, &rec.RecordedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
