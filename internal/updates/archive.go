package updates

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// BuildReleaseArchive packages the fixed set of release artifacts for one
// version into a zip under a fresh temp directory and returns the archive
// path. Missing artifacts are skipped so a partial release still downloads.
func BuildReleaseArchive(version string, repoRoot string) (string, error) {
	tempDir, err := os.MkdirTemp("", "simplebim-release-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	zipPath := filepath.Join(tempDir, fmt.Sprintf("SimpleBIM_v%s.zip", version))
	f, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	artifacts := []struct {
		source  string
		archive string
	}{
		{filepath.Join(repoRoot, "Releases", version, "SimpleBIM.dll"), "SimpleBIM.dll"},
		{filepath.Join(repoRoot, "Releases", version, "SimpleBIM.pdb"), "SimpleBIM.pdb"},
		{filepath.Join(repoRoot, "Installer", "SimpleBIM.Installer.exe"), "SimpleBIM.Installer.exe"},
		{filepath.Join(repoRoot, "Installer", "SimpleBIM.Installer.exe.config"), "SimpleBIM.Installer.exe.config"},
	}

	for _, artifact := range artifacts {
		if err := addFileToZip(zw, artifact.source, artifact.archive); err != nil {
			if os.IsNotExist(err) {
				slog.Warn("Release artifact missing, skipping", "path", artifact.source)
				continue
			}
			return "", fmt.Errorf("add %s to archive: %w", artifact.archive, err)
		}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	return zipPath, nil
}

func addFileToZip(zw *zip.Writer, sourcePath, archiveName string) error {
	src, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := zw.Create(archiveName)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

// FileChecksum computes the SHA-256 hex digest and size of a local artifact.
func FileChecksum(path string) (checksum string, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
