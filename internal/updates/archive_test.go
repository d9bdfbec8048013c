package updates

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReleaseArchive(t *testing.T) {
	repoRoot := t.TempDir()
	releaseDir := filepath.Join(repoRoot, "Releases", "1.2.0.0")
	installerDir := filepath.Join(repoRoot, "Installer")
	require.NoError(t, os.MkdirAll(releaseDir, 0o755))
	require.NoError(t, os.MkdirAll(installerDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(releaseDir, "SimpleBIM.dll"), []byte("dll-bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(installerDir, "SimpleBIM.Installer.exe"), []byte("exe-bytes"), 0o644))
	// No .pdb and no installer config: missing artifacts are skipped

	zipPath, err := BuildReleaseArchive("1.2.0.0", repoRoot)
	require.NoError(t, err)
	defer os.RemoveAll(filepath.Dir(zipPath))

	assert.Equal(t, "SimpleBIM_v1.2.0.0.zip", filepath.Base(zipPath))

	reader, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer reader.Close()

	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"SimpleBIM.dll", "SimpleBIM.Installer.exe"}, names)
}

func TestFileChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	checksum, size, err := FileChecksum(path)
	require.NoError(t, err)
	// sha256("hello")
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", checksum)
	assert.Equal(t, int64(5), size)
	assert.Len(t, checksum, 64)
}

func TestFileChecksumMissingFile(t *testing.T) {
	_, _, err := FileChecksum(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}
