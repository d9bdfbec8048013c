package updates

import (
	"errors"
	"time"
)

var (
	ErrVersionNotFound = errors.New("version not found")
	ErrVersionExists   = errors.New("version already exists")
)

// Update-type classifications stored on a version record. A force-update
// decision overrides the stored type with "mandatory" at check time.
const (
	UpdateTypeOptional    = "optional"
	UpdateTypeRecommended = "recommended"
	UpdateTypeMandatory   = "mandatory"
)

// Statistic actions and statuses. Rows are append-only.
const (
	ActionCheck    = "check"
	ActionDownload = "download"
	ActionInstall  = "install"

	StatusSuccess    = "success"
	StatusFailed     = "failed"
	StatusStarted    = "started"
	StatusCancelled  = "cancelled"
	StatusWebStarted = "web_started"
	StatusWebTracked = "web_tracked"
)

// VersionRecord describes one published release. The version string is its
// identity and immutable after publish.
type VersionRecord struct {
	ID                 int64
	Version            string
	ReleaseDate        time.Time
	ReleaseNotes       *string
	DownloadURL        string
	FileSize           int64
	ChecksumSHA256     string
	UpdateType         string
	ForceUpdate        bool
	MinRequiredVersion string
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// VersionCounts pairs a record with its computed download/install counters,
// derived purely from the statistics log.
type VersionCounts struct {
	DownloadCount int64
	InstallCount  int64
}

// UpdateStatistic is one append-only event row.
type UpdateStatistic struct {
	ID             int64
	MachineHash    string
	CurrentVersion *string
	TargetVersion  *string
	RevitVersion   *string
	OSVersion      *string
	Action         string
	Status         *string
	ErrorMessage   *string
	Timestamp      time.Time
}

// Statistics is the aggregate report over the whole statistics log.
type Statistics struct {
	TotalChecks         int64
	TotalDownloads      int64
	TotalInstalls       int64
	SuccessInstalls     int64
	SuccessRate         float64
	VersionDistribution map[string]int64
}
