package updates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const versionColumns = `id, version, release_date, release_notes, download_url, file_size,
	checksum_sha256, update_type, force_update, min_required_version, is_active, created_at, updated_at`

// Service owns version records and the append-only statistics log.
type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// PublishSpec is the payload for publishing a new release.
type PublishSpec struct {
	Version            string
	ReleaseNotes       string
	DownloadURL        string
	FileSize           int64
	ChecksumSHA256     string
	UpdateType         string
	ForceUpdate        bool
	MinRequiredVersion string
}

// VersionPatch is a partial update; nil fields keep their stored value. The
// version identity itself is not patchable and has no field here.
type VersionPatch struct {
	ReleaseNotes       *string
	DownloadURL        *string
	FileSize           *int64
	ChecksumSHA256     *string
	UpdateType         *string
	ForceUpdate        *bool
	MinRequiredVersion *string
	IsActive           *bool
}

// CheckInput carries one update-check call from a client machine.
type CheckInput struct {
	Product        string
	CurrentVersion string
	RevitVersion   string
	MachineHash    string
	OS             string
}

// Publish stores a new release record. When no file size is supplied and the
// download URL points at a locally readable artifact, the size is taken from
// the artifact; otherwise zero is stored.
func (s *Service) Publish(ctx context.Context, spec PublishSpec) (*VersionRecord, error) {
	now := time.Now().UTC()

	fileSize := spec.FileSize
	if fileSize <= 0 && spec.DownloadURL != "" {
		if info, err := os.Stat(spec.DownloadURL); err == nil && !info.IsDir() {
			fileSize = info.Size()
		}
	}

	updateType := spec.UpdateType
	if updateType == "" {
		updateType = UpdateTypeOptional
	}
	minRequired := spec.MinRequiredVersion
	if minRequired == "" {
		minRequired = "1.0.0.0"
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO update_versions (version, release_date, release_notes, download_url, file_size,
			checksum_sha256, update_type, force_update, min_required_version, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true, $2, $2)
		RETURNING `+versionColumns,
		spec.Version, now, spec.ReleaseNotes, spec.DownloadURL, fileSize,
		spec.ChecksumSHA256, updateType, spec.ForceUpdate, minRequired)

	rec, err := scanVersionRecord(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrVersionExists
		}
		return nil, fmt.Errorf("insert version record: %w", err)
	}
	return rec, nil
}

// List returns version records sorted by release date, newest first.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*VersionRecord, error) {
	query := `SELECT ` + versionColumns + ` FROM update_versions ORDER BY release_date DESC`
	if activeOnly {
		query = `SELECT ` + versionColumns + ` FROM update_versions WHERE is_active = true ORDER BY release_date DESC`
	}

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var records []*VersionRecord
	for rows.Next() {
		rec, err := scanVersionRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Service) GetByID(ctx context.Context, id int64) (*VersionRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+versionColumns+` FROM update_versions WHERE id = $1`, id)
	rec, err := scanVersionRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("get version record: %w", err)
	}
	return rec, nil
}

// Latest returns the most recently released active version, or nil when
// nothing has been published.
func (s *Service) Latest(ctx context.Context) (*VersionRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+versionColumns+` FROM update_versions
		WHERE is_active = true
		ORDER BY release_date DESC
		LIMIT 1`)

	rec, err := scanVersionRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest version: %w", err)
	}
	return rec, nil
}

// Patch applies a partial update to every mutable field. The version string
// is identity and stays as published.
func (s *Service) Patch(ctx context.Context, id int64, patch VersionPatch) (*VersionRecord, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE update_versions
		SET release_notes = COALESCE($2, release_notes),
		    download_url = COALESCE($3, download_url),
		    file_size = COALESCE($4, file_size),
		    checksum_sha256 = COALESCE($5, checksum_sha256),
		    update_type = COALESCE($6, update_type),
		    force_update = COALESCE($7, force_update),
		    min_required_version = COALESCE($8, min_required_version),
		    is_active = COALESCE($9, is_active),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+versionColumns,
		id, patch.ReleaseNotes, patch.DownloadURL, patch.FileSize, patch.ChecksumSHA256,
		patch.UpdateType, patch.ForceUpdate, patch.MinRequiredVersion, patch.IsActive)

	rec, err := scanVersionRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("patch version record: %w", err)
	}
	return rec, nil
}

func (s *Service) Deactivate(ctx context.Context, id int64) (*VersionRecord, error) {
	inactive := false
	return s.Patch(ctx, id, VersionPatch{IsActive: &inactive})
}

func (s *Service) Delete(ctx context.Context, id int64) (string, error) {
	var version string
	err := s.pool.QueryRow(ctx, `DELETE FROM update_versions WHERE id = $1 RETURNING version`, id).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrVersionNotFound
		}
		return "", fmt.Errorf("delete version record: %w", err)
	}
	return version, nil
}

// Check runs the update gate for one client and always appends a check row
// to the statistics log, whatever the outcome branch.
func (s *Service) Check(ctx context.Context, input CheckInput) (CheckResult, error) {
	var result CheckResult

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT `+versionColumns+` FROM update_versions
			WHERE is_active = true
			ORDER BY release_date DESC
			LIMIT 1`)

		latest, err := scanVersionRecord(row)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("load latest version: %w", err)
		}

		result, err = DecideUpdate(input.CurrentVersion, latest, time.Now().UTC())
		if err != nil {
			return err
		}

		var target *string
		if result.UpdateAvailable {
			target = &result.LatestVersion
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO update_statistics (machine_hash, current_version, target_version,
				revit_version, os_version, action, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			input.MachineHash, input.CurrentVersion, target, input.RevitVersion, input.OS,
			ActionCheck, StatusSuccess)
		if err != nil {
			return fmt.Errorf("insert check statistic: %w", err)
		}
		return nil
	})
	if err != nil {
		return CheckResult{}, err
	}
	return result, nil
}

// RecordDownload appends a download event to the statistics log.
func (s *Service) RecordDownload(ctx context.Context, version, machineHash, status string) error {
	if machineHash == "" {
		machineHash = "unknown"
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO update_statistics (machine_hash, target_version, action, status)
		VALUES ($1, $2, $3, $4)`,
		machineHash, version, ActionDownload, status)
	if err != nil {
		return fmt.Errorf("insert download statistic: %w", err)
	}
	return nil
}

// RecordInstall appends an install result to the statistics log.
func (s *Service) RecordInstall(ctx context.Context, version, machineHash string, success bool, errorMessage *string) error {
	status := StatusFailed
	if success {
		status = StatusSuccess
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO update_statistics (machine_hash, target_version, action, status, error_message)
		VALUES ($1, $2, $3, $4, $5)`,
		machineHash, version, ActionInstall, status, errorMessage)
	if err != nil {
		return fmt.Errorf("insert install statistic: %w", err)
	}
	return nil
}

// Counts computes download/install counters for one version from the log.
func (s *Service) Counts(ctx context.Context, version string) (VersionCounts, error) {
	var counts VersionCounts
	err := s.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE action = 'download'),
			count(*) FILTER (WHERE action = 'install' AND status = 'success')
		FROM update_statistics
		WHERE target_version = $1`,
		version).Scan(&counts.DownloadCount, &counts.InstallCount)
	if err != nil {
		return VersionCounts{}, fmt.Errorf("count version statistics: %w", err)
	}
	return counts, nil
}

// Statistics aggregates the whole log for the admin report. Read-side only,
// no row is touched.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{VersionDistribution: make(map[string]int64)}

	err := s.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE action = 'check'),
			count(*) FILTER (WHERE action = 'download'),
			count(*) FILTER (WHERE action = 'install'),
			count(*) FILTER (WHERE action = 'install' AND status = 'success')
		FROM update_statistics`).
		Scan(&stats.TotalChecks, &stats.TotalDownloads, &stats.TotalInstalls, &stats.SuccessInstalls)
	if err != nil {
		return nil, fmt.Errorf("aggregate statistics: %w", err)
	}
	stats.SuccessRate = SuccessRate(stats.SuccessInstalls, stats.TotalInstalls)

	rows, err := s.pool.Query(ctx, `
		SELECT current_version, count(*)
		FROM update_statistics
		WHERE action = 'check' AND current_version IS NOT NULL
		GROUP BY current_version`)
	if err != nil {
		return nil, fmt.Errorf("version distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var version string
		var count int64
		if err := rows.Scan(&version, &count); err != nil {
			return nil, fmt.Errorf("scan version distribution: %w", err)
		}
		stats.VersionDistribution[version] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slog.Debug("Computed update statistics", "checks", stats.TotalChecks, "installs", stats.TotalInstalls)
	return stats, nil
}

func scanVersionRecord(row interface{ Scan(dest ...any) error }) (*VersionRecord, error) {
	var rec VersionRecord
	err := row.Scan(&rec.ID, &rec.Version, &rec.ReleaseDate, &rec.ReleaseNotes, &rec.DownloadURL,
		&rec.FileSize, &rec.ChecksumSHA256, &rec.UpdateType, &rec.ForceUpdate,
		&rec.MinRequiredVersion, &rec.IsActive, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
