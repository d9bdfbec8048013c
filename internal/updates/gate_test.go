package updates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notesPtr(s string) *string { return &s }

func testRecord(version, minRequired string) *VersionRecord {
	return &VersionRecord{
		ID:                 1,
		Version:            version,
		ReleaseDate:        time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		ReleaseNotes:       notesPtr("bug fixes"),
		DownloadURL:        "https://example.com/release.zip",
		FileSize:           1024,
		ChecksumSHA256:     "ab12",
		UpdateType:         UpdateTypeRecommended,
		MinRequiredVersion: minRequired,
		IsActive:           true,
	}
}

func TestDecideUpdateForced(t *testing.T) {
	result, err := DecideUpdate("1.0.0.0", testRecord("2.0.0.0", "1.5.0.0"), time.Now())
	require.NoError(t, err)

	assert.True(t, result.UpdateAvailable)
	assert.True(t, result.ForceUpdate)
	assert.Equal(t, UpdateTypeMandatory, result.UpdateType, "force update overrides the stored type")
	assert.Equal(t, "2.0.0.0", result.LatestVersion)
	assert.Equal(t, "1.5.0.0", result.MinimumRequiredVersion)
	assert.Equal(t, msgForceUpdate, result.NotificationMessage)
}

func TestDecideUpdateUpToDate(t *testing.T) {
	result, err := DecideUpdate("1.0.0.0", testRecord("1.0.0.0", "1.0.0.0"), time.Now())
	require.NoError(t, err)

	assert.False(t, result.UpdateAvailable)
	assert.False(t, result.ForceUpdate)
	assert.Equal(t, UpdateTypeRecommended, result.UpdateType)
	assert.Equal(t, msgUpToDate, result.NotificationMessage)
}

func TestDecideUpdateAvailableNotForced(t *testing.T) {
	result, err := DecideUpdate("1.5.0.0", testRecord("2.0.0.0", "1.5.0.0"), time.Now())
	require.NoError(t, err)

	assert.True(t, result.UpdateAvailable)
	assert.False(t, result.ForceUpdate, "meeting the minimum exactly is not forced")
	assert.Equal(t, UpdateTypeRecommended, result.UpdateType)
	assert.Equal(t, msgNewVersion, result.NotificationMessage)
}

func TestDecideUpdateNoRelease(t *testing.T) {
	now := time.Now()
	result, err := DecideUpdate("1.3.0.0", nil, now)
	require.NoError(t, err)

	assert.False(t, result.UpdateAvailable)
	assert.False(t, result.ForceUpdate)
	// The client's own version is echoed back as both bounds
	assert.Equal(t, "1.3.0.0", result.LatestVersion)
	assert.Equal(t, "1.3.0.0", result.MinimumRequiredVersion)
	assert.Equal(t, now, result.ReleaseDate)
	assert.Equal(t, msgNoRelease, result.NotificationMessage)
}

func TestDecideUpdatePassesArtifactFieldsVerbatim(t *testing.T) {
	rec := testRecord("2.0.0.0", "1.0.0.0")
	result, err := DecideUpdate("1.0.0.0", rec, time.Now())
	require.NoError(t, err)

	assert.Equal(t, rec.DownloadURL, result.DownloadURL)
	assert.Equal(t, rec.FileSize, result.FileSize)
	assert.Equal(t, rec.ChecksumSHA256, result.ChecksumSHA256)
	assert.Equal(t, "bug fixes", result.ReleaseNotes)
	assert.Equal(t, rec.ReleaseDate, result.ReleaseDate)
}

func TestDecideUpdateBadCurrentVersion(t *testing.T) {
	_, err := DecideUpdate("not-a-version", testRecord("2.0.0.0", "1.0.0.0"), time.Now())
	assert.Error(t, err)
}

func TestSuccessRate(t *testing.T) {
	assert.Equal(t, float64(0), SuccessRate(0, 0), "no installs means zero, not NaN")
	assert.Equal(t, float64(100), SuccessRate(5, 5))
	assert.Equal(t, float64(50), SuccessRate(1, 2))
	assert.Equal(t, 66.67, SuccessRate(2, 3))
}
