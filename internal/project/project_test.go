package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSlug(t *testing.T) {
	assert.True(t, ValidateSlug("aatrox-redux"))
	assert.True(t, ValidateSlug("base"))
	assert.False(t, ValidateSlug("Aatrox-Redux"))
	assert.False(t, ValidateSlug("-leading"))
	assert.False(t, ValidateSlug("trailing-"))
	assert.False(t, ValidateSlug(""))
}

func TestValidateSemver(t *testing.T) {
	assert.True(t, ValidateSemver("1.0.0"))
	assert.True(t, ValidateSemver("1.2.3-beta.1"))
	assert.True(t, ValidateSemver("1.2.3+build.5"))
	assert.False(t, ValidateSemver("1.0"))
	assert.False(t, ValidateSemver("v1.0.0"))
}

func TestValidateRejectsBadBaseLayerPriority(t *testing.T) {
	p := ModProject{Name: "foo", Version: "1.0.0", Layers: []Layer{{Name: "base", Priority: 1}}}
	err := p.Validate()
	require.Error(t, err)
}

func TestDefaultsAddsBaseLayer(t *testing.T) {
	p := ModProject{Name: "foo", Version: "1.0.0"}
	p.Defaults()
	require.Len(t, p.Layers, 1)
	assert.Equal(t, BaseLayerName, p.Layers[0].Name)
	assert.Equal(t, int32(0), p.Layers[0].Priority)
}

func TestSortedLayersOrdersByPriorityThenName(t *testing.T) {
	p := ModProject{Layers: []Layer{
		{Name: "skins", Priority: 10},
		{Name: "base", Priority: 0},
		{Name: "audio", Priority: 10},
	}}
	sorted := p.SortedLayers()
	require.Len(t, sorted, 3)
	assert.Equal(t, "base", sorted[0].Name)
	assert.Equal(t, "audio", sorted[1].Name)
	assert.Equal(t, "skins", sorted[2].Name)
}

func TestLoadJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "mod.config.json"), []byte(`{
		"name": "aatrox-redux",
		"displayName": "Aatrox Redux",
		"version": "1.0.0",
		"layers": [{"name": "base", "priority": 0}]
	}`), 0o644)
	require.NoError(t, err)

	p, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "aatrox-redux", p.Name)
	assert.True(t, p.HasBaseLayer())
	require.NoError(t, p.Validate())
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "mod.config.toml"), []byte(`
name = "aatrox-redux"
displayName = "Aatrox Redux"
version = "1.0.0"

[[layers]]
name = "base"
priority = 0
`), 0o644)
	require.NoError(t, err)

	p, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "aatrox-redux", p.Name)
}

func TestLoadMissingConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir)
	require.Error(t, err)
}
