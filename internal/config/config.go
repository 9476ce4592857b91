// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

// Package config loads the pipeline settings: built-in defaults, then an
// optional YAML file, then IOSHOCK_* environment variables, then validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"IO_Shock_Propagation_Project/internal/iomodel"
)

// EnvPrefix prefixes every environment override, e.g. IOSHOCK_RUN_WORKERS.
const EnvPrefix = "IOSHOCK"

// Config holds every pipeline setting.
type Config struct {
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Run      RunConfig      `yaml:"run" envconfig:"RUN"`
	Shock    ShockConfig    `yaml:"shock" envconfig:"SHOCK"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Metrics  MetricsConfig  `yaml:"metrics" envconfig:"METRICS"`
	Mappings MappingsConfig `yaml:"mappings" ignored:"true"`
}

// PathsConfig locates inputs and outputs.
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	// WIOD SEA workbook; relative paths resolve against DataDir
	SEAFile string `yaml:"sea_file" envconfig:"SEA_FILE"`
}

// RunConfig selects what a batch computes.
type RunConfig struct {
	Years           []int    `yaml:"years" envconfig:"YEARS" validate:"required,min=1,dive,gte=1995,lte=2100"`
	Workers         int      `yaml:"workers" envconfig:"WORKERS" validate:"gte=1,lte=256"`
	Schemes         []string `yaml:"schemes" envconfig:"SCHEMES" validate:"required,min=1,dive,oneof=per_country eu28 core_periphery north_south west_east cluster_2019"`
	ConsumptionCode string   `yaml:"consumption_code" envconfig:"CONSUMPTION_CODE" validate:"required"`
}

// ShockConfig describes the energy price scenario.
type ShockConfig struct {
	Factor           float64  `yaml:"factor" envconfig:"FACTOR" validate:"ne=0"`
	ExogenousSectors []string `yaml:"exogenous_sectors" envconfig:"EXOGENOUS_SECTORS" validate:"required,min=1,dive,required"`
	Group            []string `yaml:"group" envconfig:"GROUP" validate:"required,min=1,dive,required"`
	Rule             string   `yaml:"rule" envconfig:"RULE" validate:"oneof=extra extra_intra full"`
	// Also solve the other rule and write the intra-regional difference
	CompareRules          bool   `yaml:"compare_rules" envconfig:"COMPARE_RULES"`
	QuadrantPolicy        string `yaml:"quadrant_policy" envconfig:"QUADRANT_POLICY" validate:"oneof=nongas even"`
	PseudoInverseFallback bool   `yaml:"pseudo_inverse_fallback" envconfig:"PSEUDO_INVERSE_FALLBACK"`
}

// LoggingConfig configures the slog logger.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	File   string `yaml:"file" envconfig:"FILE"`
}

// MetricsConfig configures the batch metrics export.
type MetricsConfig struct {
	// Prometheus textfile written after each batch; empty disables it
	TextfilePath string `yaml:"textfile_path" envconfig:"TEXTFILE_PATH"`
}

// MappingsConfig overrides the built-in mapping tables. A nil field keeps
// the default. Mappings are only read from YAML.
type MappingsConfig struct {
	SystemicSectors map[string]string              `yaml:"systemic_sectors"`
	GasSectors      map[string]string              `yaml:"gas_sectors"`
	FIGARORenames   map[string]string              `yaml:"figaro_renames"`
	SectorFallback  map[string]string              `yaml:"sector_fallback"`
	CountryMerges   map[string][]string            `yaml:"country_merges"`
	ExiobaseRegions map[string]string              `yaml:"exiobase_regions"`
	RegionGroups    map[string]map[string][]string `yaml:"region_groups"`
}

// DefaultExiobaseRegions folds the EXIOBASE rest-of-world regions and Taiwan
// into FIGARO's FIGW1.
var DefaultExiobaseRegions = map[string]string{
	"WA": iomodel.FIGAROWorld,
	"WE": iomodel.FIGAROWorld,
	"WF": iomodel.FIGAROWorld,
	"WL": iomodel.FIGAROWorld,
	"WM": iomodel.FIGAROWorld,
	"WP": iomodel.FIGAROWorld,
	"TW": iomodel.FIGAROWorld,
}

// DefaultCountryMerges folds Argentina and Saudi Arabia into FIGW1, which
// EXIOBASE does not report separately.
var DefaultCountryMerges = map[string][]string{
	iomodel.FIGAROWorld: {"AR", "SA"},
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:   "data",
			OutputDir: "outputs",
			SEAFile:   "sea/raw/WIOD_SEA.xlsx",
		},
		Run: RunConfig{
			Years:           []int{2021},
			Workers:         4,
			Schemes:         []string{iomodel.SchemeEU28, iomodel.SchemePerCountry},
			ConsumptionCode: iomodel.DefaultConsumptionCode,
		},
		Shock: ShockConfig{
			Factor:           5.0,
			ExogenousSectors: []string{iomodel.GasSector},
			Group:            slices.Clone(iomodel.EU28),
			Rule:             "extra",
			CompareRules:     true,
			QuadrantPolicy:   "nongas",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and environment overrides apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	// 1. YAML file on top of the defaults
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 2. Environment overrides
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 3. Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile decodes a YAML file into cfg, keeping defaults for absent keys.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct tags and the settings that depend on iomodel.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if _, err := iomodel.ParseQuadrantPolicy(c.Shock.QuadrantPolicy); err != nil {
		return err
	}
	if _, err := iomodel.ParseShockRule(c.Shock.Rule); err != nil {
		return err
	}
	// Region overrides must still describe valid schemes
	for _, name := range c.Run.Schemes {
		if _, err := c.RegionScheme(name); err != nil {
			return err
		}
	}
	return nil
}

// SEAPath resolves the SEA workbook location.
func (c *Config) SEAPath() string {
	if c.Paths.SEAFile == "" || filepath.IsAbs(c.Paths.SEAFile) {
		return c.Paths.SEAFile
	}
	return filepath.Join(c.Paths.DataDir, c.Paths.SEAFile)
}

// YearDir returns the output directory of one year.
func (c *Config) YearDir(year int) string {
	return filepath.Join(c.Paths.OutputDir, fmt.Sprintf("%d", year))
}

// SolveOptions returns the solver settings.
func (c *Config) SolveOptions() iomodel.SolveOptions {
	return iomodel.SolveOptions{PseudoInverseFallback: c.Shock.PseudoInverseFallback}
}

// ShareOptions returns the share matrix settings.
func (c *Config) ShareOptions() iomodel.ShareOptions {
	p, _ := iomodel.ParseQuadrantPolicy(c.Shock.QuadrantPolicy)
	return iomodel.ShareOptions{ZeroQuadrant: p}
}

// Scenario returns the configured shock scenario under the given name.
func (c *Config) Scenario(name string) (iomodel.Scenario, error) {
	rule, err := iomodel.ParseShockRule(c.Shock.Rule)
	if err != nil {
		return iomodel.Scenario{}, err
	}
	return iomodel.Scenario{
		Name:             name,
		ExogenousSectors: slices.Clone(c.Shock.ExogenousSectors),
		Group:            slices.Clone(c.Shock.Group),
		Rule:             rule,
		ShockFactor:      c.Shock.Factor,
	}, nil
}

// RegionScheme resolves a scheme with the YAML member overrides applied.
func (c *Config) RegionScheme(name string) (iomodel.RegionScheme, error) {
	return iomodel.SchemeByName(name, c.Mappings.RegionGroups)
}

// Systemic returns the sector aggregation of the systemic analysis.
func (m MappingsConfig) Systemic() iomodel.SectorMapping {
	if m.SystemicSectors != nil {
		return m.SystemicSectors
	}
	return iomodel.SystemicSectorMapping
}

// Gas returns the FIGARO sector aggregation of the gas analysis. The default
// keeps every code.
func (m MappingsConfig) Gas() iomodel.SectorMapping {
	if m.GasSectors != nil {
		return m.GasSectors
	}
	return iomodel.SectorMapping{}
}

// Renames returns the raw FIGARO code renames.
func (m MappingsConfig) Renames() iomodel.SectorMapping {
	if m.FIGARORenames != nil {
		return m.FIGARORenames
	}
	return iomodel.FIGARORenames
}

// Fallback returns the share lookup fallback of disaggregated sectors.
func (m MappingsConfig) Fallback() iomodel.SectorFallback {
	if m.SectorFallback != nil {
		return m.SectorFallback
	}
	return iomodel.DefaultSectorFallback
}

// Merges returns target -> countries folded into it.
func (m MappingsConfig) Merges() map[string][]string {
	if m.CountryMerges != nil {
		return m.CountryMerges
	}
	return DefaultCountryMerges
}

// MergeMapping flattens Merges into a country -> target mapping.
func (m MappingsConfig) MergeMapping() iomodel.CountryMapping {
	out := make(iomodel.CountryMapping)
	for target, countries := range m.Merges() {
		for _, c := range countries {
			out[c] = target
		}
	}
	return out
}

// Exiobase returns the EXIOBASE region renames.
func (m MappingsConfig) Exiobase() iomodel.CountryMapping {
	if m.ExiobaseRegions != nil {
		return m.ExiobaseRegions
	}
	return DefaultExiobaseRegions
}
