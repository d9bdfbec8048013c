package updates

import (
	"fmt"
	"time"
)

// Notification texts shown by the add-in. Locale content, not a contract.
const (
	msgNoRelease   = "Chưa có bản phát hành nào"
	msgForceUpdate = "⚠️ CẬP NHẬT BẮT BUỘC - Phiên bản của bạn đã quá cũ"
	msgNewVersion  = "🎉 Phiên bản mới có sẵn! Cập nhật để có trải nghiệm tốt nhất"
	msgUpToDate    = "✅ Bạn đang sử dụng phiên bản mới nhất"
)

// CheckResult is what the update gate hands back for one check call. Field
// meanings mirror the wire contract in the HTTP layer one-to-one.
type CheckResult struct {
	UpdateAvailable        bool
	LatestVersion          string
	MinimumRequiredVersion string
	ReleaseDate            time.Time
	ReleaseNotes           string
	DownloadURL            string
	FileSize               int64
	ChecksumSHA256         string
	UpdateType             string
	ForceUpdate            bool
	NotificationMessage    string
}

// DecideUpdate is the update gate: a pure decision over the client's current
// version and the latest active release. latest == nil means nothing has
// been published yet. Checksum, size and URL are passed through verbatim;
// artifact integrity is the client's job.
func DecideUpdate(currentVersion string, latest *VersionRecord, now time.Time) (CheckResult, error) {
	if latest == nil {
		return CheckResult{
			UpdateAvailable:        false,
			LatestVersion:          currentVersion,
			MinimumRequiredVersion: currentVersion,
			ReleaseDate:            now,
			ReleaseNotes:           msgNoRelease,
			UpdateType:             UpdateTypeOptional,
			NotificationMessage:    msgNoRelease,
		}, nil
	}

	current, err := ParseVersion(currentVersion)
	if err != nil {
		return CheckResult{}, fmt.Errorf("parse current version: %w", err)
	}
	latestVer, err := ParseVersion(latest.Version)
	if err != nil {
		return CheckResult{}, fmt.Errorf("parse latest version: %w", err)
	}
	minRequired, err := ParseVersion(latest.MinRequiredVersion)
	if err != nil {
		return CheckResult{}, fmt.Errorf("parse minimum required version: %w", err)
	}

	updateAvailable := current.Less(latestVer)
	forceUpdate := current.Less(minRequired)

	updateType := latest.UpdateType
	if forceUpdate {
		updateType = UpdateTypeMandatory
	}

	var message string
	switch {
	case forceUpdate:
		message = msgForceUpdate
	case updateAvailable:
		message = msgNewVersion
	default:
		message = msgUpToDate
	}

	notes := ""
	if latest.ReleaseNotes != nil {
		notes = *latest.ReleaseNotes
	}

	return CheckResult{
		UpdateAvailable:        updateAvailable,
		LatestVersion:          latest.Version,
		MinimumRequiredVersion: latest.MinRequiredVersion,
		ReleaseDate:            latest.ReleaseDate,
		ReleaseNotes:           notes,
		DownloadURL:            latest.DownloadURL,
		FileSize:               latest.FileSize,
		ChecksumSHA256:         latest.ChecksumSHA256,
		UpdateType:             updateType,
		ForceUpdate:            forceUpdate,
		NotificationMessage:    message,
	}, nil
}

// SuccessRate computes the install success percentage, rounded to two
// decimals. Zero installs means zero, not a division error.
func SuccessRate(successInstalls, totalInstalls int64) float64 {
	if totalInstalls == 0 {
		return 0
	}
	rate := 100 * float64(successInstalls) / float64(totalInstalls)
	return float64(int64(rate*100+0.5)) / 100
}
