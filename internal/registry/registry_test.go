package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudpe/pemarket/internal/domain"
	"github.com/cloudpe/pemarket/internal/pe"
)

func record(id string, enabled bool, files ...string) *domain.InstalledPlugin {
	return &domain.InstalledPlugin{
		ID:          id,
		Name:        id,
		Version:     "1.0",
		Author:      "tester",
		Enabled:     enabled,
		InstalledAt: time.Now().Truncate(time.Second),
		Files:       files,
	}
}

func TestLoadMissingFileYieldsEmptyRegistryNoWarning(t *testing.T) {
	reg, warn := Load(pe.CloudPE, t.TempDir())

	require.NoError(t, warn)
	assert.Empty(t, reg.Records)
}

func TestLoadCorruptFileYieldsEmptyRegistryWithWarning(t *testing.T) {
	root := t.TempDir()
	path := Path(pe.CloudPE, root)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	reg, warn := Load(pe.CloudPE, root)

	require.Error(t, warn)
	assert.ErrorIs(t, warn, domain.ErrRegistryCorrupt)
	assert.Empty(t, reg.Records)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()

	reg := New()
	reg.Put(record("alpha_tester", true, filepath.Join(root, "ce-apps", "alpha.ce")))
	reg.Put(record("beta_tester", false, filepath.Join(root, "ce-apps", "beta.CBK")))

	require.NoError(t, Save(pe.CloudPE, root, reg))

	got, warn := Load(pe.CloudPE, root)
	require.NoError(t, warn)
	require.Len(t, got.Records, 2)

	alpha, ok := got.Get("alpha_tester")
	require.True(t, ok)
	assert.True(t, alpha.Enabled)

	beta, ok := got.Get("beta_tester")
	require.True(t, ok)
	assert.False(t, beta.Enabled)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()

	reg := New()
	reg.Put(record("alpha_tester", true))
	require.NoError(t, Save(pe.HotPE, root, reg))

	entries, err := os.ReadDir(pe.HotPE.PluginsDir(root))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(Path(pe.HotPE, root)), entries[0].Name())
}

func TestSaveOverwritesAtomically(t *testing.T) {
	root := t.TempDir()

	reg := New()
	reg.Put(record("alpha_tester", true))
	require.NoError(t, Save(pe.CloudPE, root, reg))

	reg.Delete("alpha_tester")
	reg.Put(record("beta_tester", false))
	require.NoError(t, Save(pe.CloudPE, root, reg))

	got, warn := Load(pe.CloudPE, root)
	require.NoError(t, warn)
	require.Len(t, got.Records, 1)
	_, ok := got.Get("beta_tester")
	assert.True(t, ok)
}

func TestListIsSortedByID(t *testing.T) {
	reg := New()
	reg.Put(record("zeta_tester", true))
	reg.Put(record("alpha_tester", true))
	reg.Put(record("mid_tester", false))

	list := reg.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha_tester", list[0].ID)
	assert.Equal(t, "mid_tester", list[1].ID)
	assert.Equal(t, "zeta_tester", list[2].ID)
}

func TestAdoptPicksUpForeignPluginFiles(t *testing.T) {
	root := t.TempDir()
	dir := pe.CloudPE.PluginsDir(root)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "DiskGenius_5.4.2_Eassos_partition-manager.ce"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CPU-Z_2.05_CPUID_hardware-info.CBK"), []byte("x"), 0644))
	// not following the naming convention: ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0644))

	reg := New()
	changed := reg.Adopt(pe.CloudPE, root)
	require.True(t, changed)
	require.Len(t, reg.Records, 2)

	dg, ok := reg.Get("DiskGenius_Eassos")
	require.True(t, ok)
	assert.True(t, dg.Enabled)
	assert.Equal(t, "5.4.2", dg.Version)

	cz, ok := reg.Get("CPU-Z_CPUID")
	require.True(t, ok)
	assert.False(t, cz.Enabled)
}

func TestAdoptFollowsExternalRename(t *testing.T) {
	root := t.TempDir()
	dir := pe.CloudPE.PluginsDir(root)
	require.NoError(t, os.MkdirAll(dir, 0755))

	// registry says enabled, but someone renamed the file to its disabled form
	disabled := filepath.Join(dir, "DiskGenius_5.4.2_Eassos_partition-manager.CBK")
	require.NoError(t, os.WriteFile(disabled, []byte("x"), 0644))

	reg := New()
	reg.Put(record("DiskGenius_Eassos", true, filepath.Join(dir, "DiskGenius_5.4.2_Eassos_partition-manager.ce")))

	changed := reg.Adopt(pe.CloudPE, root)
	require.True(t, changed)

	rec, ok := reg.Get("DiskGenius_Eassos")
	require.True(t, ok)
	assert.False(t, rec.Enabled)
	assert.Equal(t, []string{disabled}, rec.Files)
}

func TestAdoptDropsRecordsWithoutFiles(t *testing.T) {
	root := t.TempDir()
	dir := pe.HotPE.PluginsDir(root)
	require.NoError(t, os.MkdirAll(dir, 0755))

	reg := New()
	reg.Put(record("Ghost_nobody", true, filepath.Join(dir, "Ghost_nobody_1.0.HPM")))

	changed := reg.Adopt(pe.HotPE, root)
	require.True(t, changed)
	assert.Empty(t, reg.Records)
}

func TestAdoptNoChangesReturnsFalse(t *testing.T) {
	root := t.TempDir()
	dir := pe.HotPE.PluginsDir(root)
	require.NoError(t, os.MkdirAll(dir, 0755))

	name := "NVMeFix_gnome_1.2_nvme-support.HPM"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))

	reg := New()
	require.True(t, reg.Adopt(pe.HotPE, root))
	assert.False(t, reg.Adopt(pe.HotPE, root), "second pass must be a no-op")
}
