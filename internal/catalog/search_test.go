package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudpe/pemarket/internal/domain"
)

func sampleCatalog() []domain.Plugin {
	return []domain.Plugin{
		{ID: "DiskGenius_Eassos", Name: "DiskGenius", Author: "Eassos", Category: "System Tools", Description: "partition manager", Version: "5.4.2"},
		{ID: "CPU-Z_CPUID", Name: "CPU-Z", Author: "CPUID", Category: "System Tools", Description: "hardware info", Version: "2.05"},
		{ID: "WinSCP_Prikryl", Name: "WinSCP", Author: "Prikryl", Category: "Network", Description: "sftp client", Version: "6.1"},
	}
}

func TestSearchByName(t *testing.T) {
	got := Search(sampleCatalog(), "diskgenius", "")
	require.Len(t, got, 1)
	assert.Equal(t, "DiskGenius_Eassos", got[0].ID)
}

func TestSearchMatchesAuthorAndDescription(t *testing.T) {
	got := Search(sampleCatalog(), "prikryl", "")
	require.Len(t, got, 1)
	assert.Equal(t, "WinSCP_Prikryl", got[0].ID)

	got = Search(sampleCatalog(), "hardware", "")
	require.Len(t, got, 1)
	assert.Equal(t, "CPU-Z_CPUID", got[0].ID)
}

func TestSearchCategoryFilterIsExact(t *testing.T) {
	got := Search(sampleCatalog(), "", "System Tools")
	require.Len(t, got, 2)
	assert.Equal(t, "DiskGenius_Eassos", got[0].ID)
	assert.Equal(t, "CPU-Z_CPUID", got[1].ID)

	assert.Empty(t, Search(sampleCatalog(), "", "system tools"))
}

func TestSearchCombinesQueryAndCategory(t *testing.T) {
	got := Search(sampleCatalog(), "cpu", "Network")
	assert.Empty(t, got)

	got = Search(sampleCatalog(), "cpu", "System Tools")
	require.Len(t, got, 1)
	assert.Equal(t, "CPU-Z_CPUID", got[0].ID)
}

func TestSearchEmptyQueryReturnsAll(t *testing.T) {
	got := Search(sampleCatalog(), "  ", "")
	assert.Len(t, got, 3)
}

func TestCategoriesFirstSeenOrder(t *testing.T) {
	assert.Equal(t, []string{"System Tools", "Network"}, Categories(sampleCatalog()))
}

func TestFindByID(t *testing.T) {
	p, ok := FindByID(sampleCatalog(), "WinSCP_Prikryl")
	require.True(t, ok)
	assert.Equal(t, "WinSCP", p.Name)

	_, ok = FindByID(sampleCatalog(), "missing")
	assert.False(t, ok)
}
