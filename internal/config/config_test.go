package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://uts-ws.nlm.nih.gov/rest", cfg.Terminology.BaseURL)
	assert.Equal(t, 25, cfg.Terminology.PageSize)
	assert.Equal(t, 5, cfg.Terminology.MaxPages)
	assert.Equal(t, 30*time.Second, cfg.Terminology.HTTPTimeout)
	assert.Equal(t, 1, cfg.Resolver.HopCount)
	assert.Equal(t, 5, cfg.Resolver.TopN)
	assert.Equal(t, 1, cfg.Resolver.MaxConcepts)
	assert.InDelta(t, 0.9, cfg.Resolver.AdmissionThreshold, 1e-9)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MEDKB_TERMINOLOGY_URL", "http://localhost:8888/rest")
	t.Setenv("MEDKB_TERMINOLOGY_TIMEOUT", "5s")
	t.Setenv("MEDKB_HOP_COUNT", "2")
	t.Setenv("MEDKB_TOP_N", "10")
	t.Setenv("MEDKB_ADMISSION_THRESHOLD", "0.85")
	t.Setenv("MEDKB_CACHE_PATH", "/tmp/defs.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8888/rest", cfg.Terminology.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Terminology.HTTPTimeout)
	assert.Equal(t, 2, cfg.Resolver.HopCount)
	assert.Equal(t, 10, cfg.Resolver.TopN)
	assert.InDelta(t, 0.85, cfg.Resolver.AdmissionThreshold, 1e-9)
	assert.Equal(t, "/tmp/defs.db", cfg.Cache.Path)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("MEDKB_HOP_COUNT", "0")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("MEDKB_TERMINOLOGY_TIMEOUT", "whenever")
	_, err := Load()
	require.Error(t, err)
}
