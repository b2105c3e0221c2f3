package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"termo/internal/participant/models"
	"termo/pkg/platform/sentinel"
)

//go:embed schema.sql
var schema string

const participantColumns = `document_id, full_name, guardian_name, guardian_phone, campus, email, age,
	contact_name, contact_phone, document_path, signed, signed_at, updated_at`

// PostgresStore persists participants in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed participant store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the participants table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure participants schema: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row rowScanner) (*models.Participant, error) {
	var p models.Participant
	var signedAt sql.NullTime
	err := row.Scan(
		&p.DocumentID, &p.FullName, &p.GuardianName, &p.GuardianPhone, &p.Campus, &p.Email, &p.Age,
		&p.ContactName, &p.ContactPhone, &p.DocumentPath, &p.Signed, &signedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if signedAt.Valid {
		at := signedAt.Time
		p.SignedAt = &at
	}
	return &p, nil
}

// queryOne runs a single-row query, mapping sql.ErrNoRows to sentinel.ErrNotFound.
func (s *PostgresStore) queryOne(ctx context.Context, op, query string, args ...any) (*models.Participant, error) {
	p, err := scanParticipant(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *PostgresStore) FindByDocumentID(ctx context.Context, id models.DocumentID) (*models.Participant, error) {
	return s.queryOne(ctx, "find participant",
		`SELECT `+participantColumns+` FROM participants WHERE document_id = $1`, id)
}

// Upsert inserts p, or refreshes the registration fields of an existing
// record. Contact, document and signature state are never touched on conflict.
func (s *PostgresStore) Upsert(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (` + participantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (document_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			guardian_name = EXCLUDED.guardian_name,
			guardian_phone = EXCLUDED.guardian_phone,
			campus = EXCLUDED.campus,
			email = EXCLUDED.email,
			age = EXCLUDED.age,
			updated_at = EXCLUDED.updated_at
	`
	var signedAt sql.NullTime
	if p.SignedAt != nil {
		signedAt = sql.NullTime{Time: *p.SignedAt, Valid: true}
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, query,
		p.DocumentID, p.FullName, p.GuardianName, p.GuardianPhone, p.Campus, p.Email, p.Age,
		p.ContactName, p.ContactPhone, p.DocumentPath, p.Signed, signedAt, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert participant: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateDetails(ctx context.Context, id models.DocumentID, d models.Details, at time.Time) (*models.Participant, error) {
	return s.queryOne(ctx, "update participant details", `
		UPDATE participants SET
			full_name = $2, guardian_name = $3, guardian_phone = $4,
			contact_name = $5, contact_phone = $6, updated_at = $7
		WHERE document_id = $1
		RETURNING `+participantColumns,
		id, d.FullName, d.GuardianName, d.GuardianPhone, d.ContactName, d.ContactPhone, at)
}

func (s *PostgresStore) SetArtifact(ctx context.Context, id models.DocumentID, path string, at time.Time) (*models.Participant, error) {
	return s.queryOne(ctx, "set participant artifact", `
		UPDATE participants SET
			document_path = $2, signed = FALSE, signed_at = NULL, updated_at = $3
		WHERE document_id = $1
		RETURNING `+participantColumns,
		id, path, at)
}

func (s *PostgresStore) MarkSigned(ctx context.Context, id models.DocumentID, at time.Time) (*models.Participant, error) {
	return s.queryOne(ctx, "mark participant signed", `
		UPDATE participants SET signed = TRUE, signed_at = $2, updated_at = $2
		WHERE document_id = $1
		RETURNING `+participantColumns,
		id, at)
}

// signedWhere builds the WHERE clause shared by the listing and its count.
func signedWhere(f models.SignedFilter) (string, []any) {
	conds := []string{"signed", "signed_at IS NOT NULL"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		cond := "full_name ILIKE " + arg("%"+escapeLike(f.Search)+"%")
		if digits := f.SearchDigits(); digits != "" {
			cond += " OR document_id LIKE " + arg(digits+"%")
		}
		conds = append(conds, "("+cond+")")
	}
	if f.Campus != "" {
		conds = append(conds, "campus ILIKE "+arg("%"+escapeLike(f.Campus)+"%"))
	}
	if f.SignedFrom != nil {
		conds = append(conds, "signed_at >= "+arg(*f.SignedFrom))
	}
	if f.SignedBefore != nil {
		conds = append(conds, "signed_at < "+arg(*f.SignedBefore))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *PostgresStore) ListSigned(ctx context.Context, f models.SignedFilter) ([]*models.Participant, int, error) {
	where, args := signedWhere(f)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count signed participants: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM participants%s ORDER BY signed_at DESC, full_name ASC LIMIT $%d OFFSET $%d`,
		participantColumns, where, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list signed participants: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Participant, 0, f.Limit)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan signed participant: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate signed participants: %w", err)
	}
	return items, total, nil
}

func (s *PostgresStore) SignedStats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT NULLIF(LOWER(TRIM(campus)), ''))
		FROM participants WHERE signed
	`).Scan(&stats.TotalSigned, &stats.TotalCampuses)
	if err != nil {
		return models.Stats{}, fmt.Errorf("signed stats: %w", err)
	}
	return stats, nil
}
