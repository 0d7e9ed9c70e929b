package pe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeCloudPEMedium(t *testing.T, version string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cloud-pe"), 0755))
	cfg := `{"pe": {"version": "` + version + `"}}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "cloud-pe", "config.json"), []byte(cfg), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cloud-PE.iso"), []byte("iso"), 0644))
	return root
}

func makeHotPEMedium(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "HotPEModule"), 0755))
	return root
}

func TestProbeCloudPEMedium(t *testing.T) {
	root := makeCloudPEMedium(t, "1.3")

	sig := CloudPE.Probe(root)
	assert.True(t, sig.Match)
	assert.Equal(t, "1.3", sig.Version)
	assert.False(t, sig.Compat)
}

func TestProbeCloudPENeedsBothMarkers(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cloud-pe"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cloud-pe", "config.json"), []byte(`{}`), 0644))

	// config without the boot image is not a prepared medium
	assert.False(t, CloudPE.Probe(root).Match)
}

func TestProbeCloudPEUnreadableConfigStillMatches(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cloud-pe"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cloud-pe", "config.json"), []byte("garbage"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Cloud-PE.iso"), []byte("iso"), 0644))

	sig := CloudPE.Probe(root)
	assert.True(t, sig.Match)
	assert.Empty(t, sig.Version)
}

func TestProbeHotPEMedium(t *testing.T) {
	root := makeHotPEMedium(t)

	sig := HotPE.Probe(root)
	assert.True(t, sig.Match)
	assert.False(t, sig.Compat)
}

func TestProbeHotPEAcceptsCloudPEMedium(t *testing.T) {
	root := makeCloudPEMedium(t, "1.3")

	sig := HotPE.Probe(root)
	assert.True(t, sig.Match)
	assert.True(t, sig.Compat)
	assert.Equal(t, "1.3", sig.Version)
}

func TestProbeCloudPERejectsHotPEMedium(t *testing.T) {
	root := makeHotPEMedium(t)
	assert.False(t, CloudPE.Probe(root).Match)
}

func TestProbePlainDirectory(t *testing.T) {
	root := t.TempDir()
	assert.False(t, CloudPE.Probe(root).Match)
	assert.False(t, HotPE.Probe(root).Match)
}
