// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IO_Shock_Propagation_Project/internal/iomodel"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ioshock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5.0, cfg.Shock.Factor)
	assert.Equal(t, []string{iomodel.GasSector}, cfg.Shock.ExogenousSectors)
	assert.Equal(t, iomodel.DefaultConsumptionCode, cfg.Run.ConsumptionCode)

	// the default group is a copy
	cfg.Shock.Group[0] = "XX"
	assert.Equal(t, "AT", iomodel.EU28[0])
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromFile(t *testing.T) {
	path := writeYAML(t, `
paths:
  data_dir: /srv/io
  output_dir: /srv/out
run:
  years: [2019, 2021]
  workers: 2
  schemes: [per_country, core_periphery]
shock:
  factor: 2.5
  rule: extra_intra
  quadrant_policy: even
mappings:
  systemic_sectors:
    C10: C
  country_merges:
    FIGW1: [AR]
  region_groups:
    core_periphery:
      CORE: [DE, FR]
      PERIPHERY: [EL, PT]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/io", cfg.Paths.DataDir)
	assert.Equal(t, []int{2019, 2021}, cfg.Run.Years)
	assert.Equal(t, 2, cfg.Run.Workers)
	// keys absent from the file keep their defaults
	assert.Equal(t, iomodel.DefaultConsumptionCode, cfg.Run.ConsumptionCode)
	assert.Equal(t, "json", cfg.Logging.Format)

	sc, err := cfg.Scenario("gas")
	require.NoError(t, err)
	assert.Equal(t, iomodel.ExtraIntraRegional, sc.Rule)
	assert.Equal(t, 2.5, sc.ShockFactor)
	assert.Equal(t, iomodel.QuadrantEven, cfg.ShareOptions().ZeroQuadrant)

	assert.Equal(t, iomodel.SectorMapping{"C10": "C"}, cfg.Mappings.Systemic())
	assert.Equal(t, iomodel.CountryMapping{"AR": iomodel.FIGAROWorld}, cfg.Mappings.MergeMapping())

	scheme, err := cfg.RegionScheme(iomodel.SchemeCorePeriphery)
	require.NoError(t, err)
	assert.Equal(t, "CORE", scheme.RegionOf("DE"))
	assert.Equal(t, iomodel.RestOfWorld, scheme.RegionOf("AT"))
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeYAML(t, "run:\n  workers: 2\n")
	t.Setenv("IOSHOCK_RUN_WORKERS", "8")
	t.Setenv("IOSHOCK_RUN_YEARS", "2010,2011")
	t.Setenv("IOSHOCK_SHOCK_PSEUDO_INVERSE_FALLBACK", "true")
	t.Setenv("IOSHOCK_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Run.Workers)
	assert.Equal(t, []int{2010, 2011}, cfg.Run.Years)
	assert.True(t, cfg.SolveOptions().PseudoInverseFallback)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched by the environment
	assert.Equal(t, 5.0, cfg.Shock.Factor)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero factor", "shock:\n  factor: 0\n"},
		{"unknown rule", "shock:\n  rule: sideways\n"},
		{"unknown scheme", "run:\n  schemes: [galactic]\n"},
		{"no years", "run:\n  years: []\n"},
		{"bad log level", "logging:\n  level: loud\n"},
		{"overlapping region override", "mappings:\n  region_groups:\n    eu28:\n      A: [DE]\n      B: [DE]\n"},
		{"malformed yaml", "run: [\n"},
	}
	for i, test := range tests {
		_, err := Load(writeYAML(t, test.yaml))
		if err == nil {
			t.Errorf("Test %d (%s): expected an error", i+1, test.name)
		}
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMappingDefaults(t *testing.T) {
	var m MappingsConfig
	assert.Equal(t, iomodel.SystemicSectorMapping, m.Systemic())
	assert.Empty(t, m.Gas())
	assert.Equal(t, iomodel.FIGARORenames, m.Renames())
	assert.Equal(t, iomodel.DefaultSectorFallback, m.Fallback())
	assert.Equal(t, iomodel.CountryMapping{"AR": "FIGW1", "SA": "FIGW1"}, m.MergeMapping())
	assert.Equal(t, "FIGW1", m.Exiobase().Apply("WA"))
	assert.Equal(t, "DE", m.Exiobase().Apply("DE"))
}

func TestPaths(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("data", "sea", "raw", "WIOD_SEA.xlsx"), cfg.SEAPath())
	cfg.Paths.SEAFile = "/abs/sea.xlsx"
	assert.Equal(t, "/abs/sea.xlsx", cfg.SEAPath())
	assert.Equal(t, filepath.Join("outputs", "2021"), cfg.YearDir(2021))
}
