package keys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const keyColumns = `id, key_value, is_active, created_at, expired_at, note,
	machine_name, os_version, revit_version, cpu_info, ip_address, machine_hash, last_check`

// Service owns license key records: issuance, lookup, mutation and the
// validation transaction.
type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// UpdatePatch is a partial update: nil fields are left untouched.
type UpdatePatch struct {
	IsActive *bool
	Note     *string
}

// ValidationResult is the discriminant response returned for every
// validation call, valid or not.
type ValidationResult struct {
	Valid       bool
	IsActive    bool
	ExpiredAt   *time.Time
	MachineHash *string
	Note        string
}

// Issue generates a fresh token, computes the expiry from the key type and
// persists an active record. Token collisions are vanishingly unlikely but
// handled by regenerating until the store accepts the insert.
func (s *Service) Issue(ctx context.Context, keyType string, note *string) (*KeyRecord, error) {
	now := time.Now().UTC()
	expiry, err := ExpiryForType(keyType, now)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < 5; attempt++ {
		keyValue, err := GenerateKeyValue()
		if err != nil {
			return nil, err
		}

		row := s.pool.QueryRow(ctx, `
			INSERT INTO key_records (key_value, is_active, created_at, expired_at, note)
			VALUES ($1, true, $2, $3, $4)
			RETURNING `+keyColumns,
			keyValue, now, expiry, note)

		rec, err := scanKeyRecord(row)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				slog.Warn("License token collision, regenerating", "attempt", attempt)
				continue
			}
			return nil, fmt.Errorf("insert key record: %w", err)
		}
		return rec, nil
	}
	return nil, errors.New("could not generate a unique license token")
}

// List returns all key records, newest first.
func (s *Service) List(ctx context.Context) ([]*KeyRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+keyColumns+` FROM key_records ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list key records: %w", err)
	}
	defer rows.Close()

	var records []*KeyRecord
	for rows.Next() {
		rec, err := scanKeyRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan key record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Service) Get(ctx context.Context, keyValue string) (*KeyRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+keyColumns+` FROM key_records WHERE key_value = $1`, keyValue)
	rec, err := scanKeyRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("get key record: %w", err)
	}
	return rec, nil
}

// Update applies a partial patch; omitted fields keep their stored value.
func (s *Service) Update(ctx context.Context, keyValue string, patch UpdatePatch) (*KeyRecord, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE key_records
		SET is_active = COALESCE($2, is_active),
		    note = COALESCE($3, note)
		WHERE key_value = $1
		RETURNING `+keyColumns,
		keyValue, patch.IsActive, patch.Note)

	rec, err := scanKeyRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("update key record: %w", err)
	}
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, keyValue string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM key_records WHERE key_value = $1`, keyValue)
	if err != nil {
		return fmt.Errorf("delete key record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// Validate runs the validation state machine inside a single transaction.
// The record is read with a row lock so two concurrent validations of the
// same key cannot race on the first machine-hash bind, and the metadata
// refresh on the valid path commits atomically with the read.
func (s *Service) Validate(ctx context.Context, payload ValidatePayload) (ValidationResult, error) {
	var result ValidationResult

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+keyColumns+` FROM key_records WHERE key_value = $1 FOR UPDATE`,
			payload.KeyValue)

		rec, err := scanKeyRecord(row)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("load key record: %w", err)
		}

		now := time.Now().UTC()
		decision := Decide(rec, now)
		result = ValidationResult{
			Valid:     decision.Valid,
			IsActive:  decision.IsActive,
			ExpiredAt: decision.ExpiredAt,
			Note:      decision.Note,
		}
		if !decision.Refresh {
			return nil
		}

		// Empty payload fields keep their stored value; machine_hash is
		// first-bind-wins, the COALESCE order makes the stored hash sticky.
		updated := tx.QueryRow(ctx, `
			UPDATE key_records
			SET machine_name = COALESCE(NULLIF($2, ''), machine_name),
			    os_version = COALESCE(NULLIF($3, ''), os_version),
			    revit_version = COALESCE(NULLIF($4, ''), revit_version),
			    cpu_info = COALESCE(NULLIF($5, ''), cpu_info),
			    ip_address = COALESCE(NULLIF($6, ''), ip_address),
			    machine_hash = COALESCE(machine_hash, NULLIF($7, '')),
			    last_check = $8
			WHERE id = $1
			RETURNING machine_hash`,
			rec.ID, payload.MachineName, payload.OSVersion, payload.RevitVersion,
			payload.CPUInfo, payload.IPAddress, payload.MachineHash, now)

		if err := updated.Scan(&result.MachineHash); err != nil {
			return fmt.Errorf("refresh key metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		return ValidationResult{}, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKeyRecord(row rowScanner) (*KeyRecord, error) {
	var rec KeyRecord
	err := row.Scan(&rec.ID, &rec.KeyValue, &rec.IsActive, &rec.CreatedAt, &rec.ExpiredAt,
		&rec.Note, &rec.MachineName, &rec.OSVersion, &rec.RevitVersion, &rec.CPUInfo,
		&rec.IPAddress, &rec.MachineHash, &rec.LastCheck)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
