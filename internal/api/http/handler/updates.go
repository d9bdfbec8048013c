package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simplebim/license-server/internal/api/http/dto"
	"github.com/simplebim/license-server/internal/updates"
)

type UpdatesHandler struct {
	updateService *updates.Service
	repoRoot      string
}

func NewUpdatesHandler(updateService *updates.Service, repoRoot string) *UpdatesHandler {
	return &UpdatesHandler{updateService: updateService, repoRoot: repoRoot}
}

// Check serves the add-in's update poll. The PascalCase wire names are a
// fixed contract with the client, see the dto package.
func (h *UpdatesHandler) Check(c *gin.Context) {
	var req dto.UpdateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.updateService.Check(c.Request.Context(), updates.CheckInput{
		Product:        req.Product,
		CurrentVersion: req.CurrentVersion,
		RevitVersion:   req.RevitVersion,
		MachineHash:    req.MachineHash,
		OS:             req.OS,
	})
	if err != nil {
		slog.Error("Update check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update check failed"})
		return
	}

	c.JSON(http.StatusOK, dto.UpdateCheckResponse{
		UpdateAvailable:        result.UpdateAvailable,
		LatestVersion:          result.LatestVersion,
		MinimumRequiredVersion: result.MinimumRequiredVersion,
		ReleaseDate:            result.ReleaseDate.Format(time.RFC3339),
		ReleaseNotes:           result.ReleaseNotes,
		DownloadUrl:            result.DownloadURL,
		FileSize:               result.FileSize,
		ChecksumSHA256:         result.ChecksumSHA256,
		UpdateType:             result.UpdateType,
		ForceUpdate:            result.ForceUpdate,
		NotificationMessage:    result.NotificationMessage,
	})
}

func (h *UpdatesHandler) CreateVersion(c *gin.Context) {
	var req dto.CreateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.updateService.Publish(c.Request.Context(), updates.PublishSpec{
		Version:            req.Version,
		ReleaseNotes:       req.ReleaseNotes,
		DownloadURL:        req.DownloadURL,
		FileSize:           req.FileSize,
		ChecksumSHA256:     req.ChecksumSHA256,
		UpdateType:         req.UpdateType,
		ForceUpdate:        req.ForceUpdate,
		MinRequiredVersion: req.MinRequiredVersion,
	})
	if err != nil {
		if errors.Is(err, updates.ErrVersionExists) {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Version %s already exists", req.Version)})
			return
		}
		slog.Error("Failed to publish version", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, versionToResponse(rec, nil))
}

func (h *UpdatesHandler) ListVersions(c *gin.Context) {
	records, err := h.updateService.List(c.Request.Context(), false)
	if err != nil {
		slog.Error("Failed to list versions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	responses := make([]dto.VersionResponse, len(records))
	for i, rec := range records {
		responses[i] = versionToResponse(rec, nil)
	}
	c.JSON(http.StatusOK, responses)
}

// ListPublicActive returns active versions with their computed
// download/install counts for the public download page.
func (h *UpdatesHandler) ListPublicActive(c *gin.Context) {
	records, err := h.updateService.List(c.Request.Context(), true)
	if err != nil {
		slog.Error("Failed to list active versions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	responses := make([]dto.VersionResponse, len(records))
	for i, rec := range records {
		counts, err := h.updateService.Counts(c.Request.Context(), rec.Version)
		if err != nil {
			slog.Error("Failed to count version statistics", "version", rec.Version, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		responses[i] = versionToResponse(rec, &counts)
	}
	c.JSON(http.StatusOK, responses)
}

func (h *UpdatesHandler) Latest(c *gin.Context) {
	rec, err := h.updateService.Latest(c.Request.Context())
	if err != nil {
		slog.Error("Failed to get latest version", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active version found"})
		return
	}

	counts, err := h.updateService.Counts(c.Request.Context(), rec.Version)
	if err != nil {
		slog.Error("Failed to count version statistics", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, versionToResponse(rec, &counts))
}

func (h *UpdatesHandler) PatchVersion(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version id"})
		return
	}

	var req dto.UpdateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// req.Version is deliberately dropped: identity is immutable.

	rec, err := h.updateService.Patch(c.Request.Context(), id, updates.VersionPatch{
		ReleaseNotes:       req.ReleaseNotes,
		DownloadURL:        req.DownloadURL,
		FileSize:           req.FileSize,
		ChecksumSHA256:     req.ChecksumSHA256,
		UpdateType:         req.UpdateType,
		ForceUpdate:        req.ForceUpdate,
		MinRequiredVersion: req.MinRequiredVersion,
		IsActive:           req.IsActive,
	})
	if err != nil {
		if errors.Is(err, updates.ErrVersionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Version not found"})
			return
		}
		slog.Error("Failed to patch version", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	counts, err := h.updateService.Counts(c.Request.Context(), rec.Version)
	if err != nil {
		slog.Error("Failed to count version statistics", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, versionToResponse(rec, &counts))
}

func (h *UpdatesHandler) DeactivateVersion(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version id"})
		return
	}

	rec, err := h.updateService.Deactivate(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, updates.ErrVersionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Version not found"})
			return
		}
		slog.Error("Failed to deactivate version", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deactivated", "version": rec.Version})
}

func (h *UpdatesHandler) DeleteVersion(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version id"})
		return
	}

	version, err := h.updateService.Delete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, updates.ErrVersionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Version not found"})
			return
		}
		slog.Error("Failed to delete version", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "version": version})
}

// Download packages the release artifacts into a zip on demand and streams
// it back, logging a web_started download row.
func (h *UpdatesHandler) Download(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version id"})
		return
	}

	rec, err := h.updateService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, updates.ErrVersionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Version not found"})
			return
		}
		slog.Error("Failed to get version", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	zipPath, err := updates.BuildReleaseArchive(rec.Version, h.repoRoot)
	if err != nil {
		slog.Error("Failed to build release archive", "version", rec.Version, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build release archive"})
		return
	}
	defer os.RemoveAll(filepath.Dir(zipPath))

	if err := h.updateService.RecordDownload(c.Request.Context(), rec.Version, "browser_download", updates.StatusWebStarted); err != nil {
		slog.Error("Failed to record download statistic", "error", err)
	}

	c.FileAttachment(zipPath, filepath.Base(zipPath))
}

// TrackDownload records a download started from the web download page.
func (h *UpdatesHandler) TrackDownload(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version id"})
		return
	}

	rec, err := h.updateService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, updates.ErrVersionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Version not found"})
			return
		}
		slog.Error("Failed to get version", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	machineHash := c.Query("machine_hash")
	if err := h.updateService.RecordDownload(c.Request.Context(), rec.Version, machineHash, updates.StatusWebTracked); err != nil {
		slog.Error("Failed to record download statistic", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, dto.TrackDownloadResponse{
		Status:      "success",
		Version:     rec.Version,
		DownloadURL: fmt.Sprintf("/updates/versions/%d/download", rec.ID),
	})
}

func (h *UpdatesHandler) DownloadStats(c *gin.Context) {
	var req dto.DownloadStatsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.updateService.RecordDownload(c.Request.Context(), req.Version, req.MachineHash, updates.StatusStarted); err != nil {
		slog.Error("Failed to record download statistic", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged"})
}

func (h *UpdatesHandler) InstallStats(c *gin.Context) {
	var req dto.InstallStatsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.updateService.RecordInstall(c.Request.Context(), req.Version, req.MachineHash, req.Success, req.ErrorMessage); err != nil {
		slog.Error("Failed to record install statistic", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged"})
}

func (h *UpdatesHandler) Statistics(c *gin.Context) {
	stats, err := h.updateService.Statistics(c.Request.Context())
	if err != nil {
		slog.Error("Failed to aggregate statistics", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, dto.UpdateStatisticsResponse{
		TotalChecks:         stats.TotalChecks,
		TotalDownloads:      stats.TotalDownloads,
		TotalInstalls:       stats.TotalInstalls,
		SuccessInstalls:     stats.SuccessInstalls,
		SuccessRate:         stats.SuccessRate,
		VersionDistribution: stats.VersionDistribution,
	})
}

// CalculateChecksum hashes a local artifact so the admin UI can fill the
// publish form.
func (h *UpdatesHandler) CalculateChecksum(c *gin.Context) {
	var req dto.ChecksumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	checksum, size, err := updates.FileChecksum(req.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		slog.Error("Failed to checksum file", "path", req.FilePath, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, dto.ChecksumResponse{
		FilePath:       req.FilePath,
		ChecksumSHA256: checksum,
		FileSizeBytes:  size,
		FileSizeMB:     float64(size) / (1024 * 1024),
	})
}

func (h *UpdatesHandler) Health(c *gin.Context) {
	rec, err := h.updateService.Latest(c.Request.Context())
	if err != nil {
		slog.Error("Update health check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	var latest *string
	if rec != nil {
		latest = &rec.Version
	}
	c.JSON(http.StatusOK, dto.UpdateHealthResponse{
		Status:             "healthy",
		Service:            "SimpleBIM Update Service",
		Version:            "1.0.0",
		LatestVersionKnown: latest,
	})
}

func versionToResponse(rec *updates.VersionRecord, counts *updates.VersionCounts) dto.VersionResponse {
	resp := dto.VersionResponse{
		ID:                 rec.ID,
		Version:            rec.Version,
		ReleaseDate:        rec.ReleaseDate,
		ReleaseNotes:       rec.ReleaseNotes,
		DownloadURL:        rec.DownloadURL,
		FileSize:           rec.FileSize,
		ChecksumSHA256:     rec.ChecksumSHA256,
		UpdateType:         rec.UpdateType,
		ForceUpdate:        rec.ForceUpdate,
		MinRequiredVersion: rec.MinRequiredVersion,
		IsActive:           rec.IsActive,
		CreatedAt:          rec.CreatedAt,
	}
	if counts != nil {
		resp.DownloadCount = &counts.DownloadCount
		resp.InstallCount = &counts.InstallCount
	}
	return resp
}
