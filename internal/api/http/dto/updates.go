package dto

import "time"

// UpdateCheckRequest uses PascalCase wire names: the field names are a fixed
// contract with the non-native add-in client and must be preserved verbatim.
type UpdateCheckRequest struct {
	Product        string `json:"Product" binding:"required"`
	CurrentVersion string `json:"CurrentVersion" binding:"required"`
	RevitVersion   string `json:"RevitVersion"`
	MachineHash    string `json:"MachineHash" binding:"required"`
	OS             string `json:"OS"`
}

type UpdateCheckResponse struct {
	UpdateAvailable        bool   `json:"UpdateAvailable"`
	LatestVersion          string `json:"LatestVersion"`
	MinimumRequiredVersion string `json:"MinimumRequiredVersion"`
	ReleaseDate            string `json:"ReleaseDate"`
	ReleaseNotes           string `json:"ReleaseNotes"`
	DownloadUrl            string `json:"DownloadUrl"`
	FileSize               int64  `json:"FileSize"`
	ChecksumSHA256         string `json:"ChecksumSHA256"`
	UpdateType             string `json:"UpdateType"`
	ForceUpdate            bool   `json:"ForceUpdate"`
	NotificationMessage    string `json:"NotificationMessage"`
}

type CreateVersionRequest struct {
	Version            string `json:"version" binding:"required"`
	ReleaseNotes       string `json:"release_notes"`
	DownloadURL        string `json:"download_url" binding:"required"`
	ChecksumSHA256     string `json:"checksum_sha256" binding:"required,len=64"`
	UpdateType         string `json:"update_type" binding:"omitempty,oneof=optional recommended mandatory"`
	FileSize           int64  `json:"file_size"`
	ForceUpdate        bool   `json:"force_update"`
	MinRequiredVersion string `json:"min_required_version"`
}

// UpdateVersionRequest is a partial patch; absent fields stay untouched. A
// version field sent by naive clients that resend the whole object is
// accepted and ignored: the version string is identity and immutable.
type UpdateVersionRequest struct {
	Version            *string `json:"version"`
	ReleaseNotes       *string `json:"release_notes"`
	DownloadURL        *string `json:"download_url"`
	FileSize           *int64  `json:"file_size"`
	ChecksumSHA256     *string `json:"checksum_sha256"`
	UpdateType         *string `json:"update_type" binding:"omitempty,oneof=optional recommended mandatory"`
	ForceUpdate        *bool   `json:"force_update"`
	MinRequiredVersion *string `json:"min_required_version"`
	IsActive           *bool   `json:"is_active"`
}

type VersionResponse struct {
	ID                 int64     `json:"id"`
	Version            string    `json:"version"`
	ReleaseDate        time.Time `json:"release_date"`
	ReleaseNotes       *string   `json:"release_notes"`
	DownloadURL        string    `json:"download_url"`
	FileSize           int64     `json:"file_size"`
	ChecksumSHA256     string    `json:"checksum_sha256"`
	UpdateType         string    `json:"update_type"`
	ForceUpdate        bool      `json:"force_update"`
	MinRequiredVersion string    `json:"min_required_version"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	DownloadCount      *int64    `json:"download_count,omitempty"`
	InstallCount       *int64    `json:"install_count,omitempty"`
}

type DownloadStatsRequest struct {
	Version     string `form:"version" json:"version" binding:"required"`
	MachineHash string `form:"machine_hash" json:"machine_hash" binding:"required"`
}

type InstallStatsRequest struct {
	Version      string  `form:"version" json:"version" binding:"required"`
	MachineHash  string  `form:"machine_hash" json:"machine_hash" binding:"required"`
	Success      bool    `form:"success" json:"success"`
	ErrorMessage *string `form:"error_message" json:"error_message"`
}

type TrackDownloadResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	DownloadURL string `json:"download_url"`
}

type UpdateStatisticsResponse struct {
	TotalChecks         int64            `json:"total_checks"`
	TotalDownloads      int64            `json:"total_downloads"`
	TotalInstalls       int64            `json:"total_installs"`
	SuccessInstalls     int64            `json:"success_installs"`
	SuccessRate         float64          `json:"success_rate"`
	VersionDistribution map[string]int64 `json:"version_distribution"`
}

type ChecksumRequest struct {
	FilePath string `json:"file_path" binding:"required"`
}

type ChecksumResponse struct {
	FilePath       string  `json:"file_path"`
	ChecksumSHA256 string  `json:"checksum_sha256"`
	FileSizeBytes  int64   `json:"file_size_bytes"`
	FileSizeMB     float64 `json:"file_size_mb"`
}

type UpdateHealthResponse struct {
	Status             string  `json:"status"`
	Service            string  `json:"service"`
	Version            string  `json:"version"`
	LatestVersionKnown *string `json:"latest_version_known"`
}
