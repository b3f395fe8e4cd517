/*
Package config manages TOML config for the ldig-go training and detection
pipeline.

InitConfig handles automatic config file creation and loading with fallback
to defaults. LoadConfig and SaveConfig provide direct access for one-off
reads and writes.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/nakatani/ldig-go/internal/fsutil"
	"github.com/nakatani/ldig-go/internal/logger"
)

// logg returns this package's logger, built fresh per call so it always
// reflects the current global log level (internal/logger.Default).
func logg() *log.Logger { return logger.Default("config") }

// TrainConfig holds the SGD learner's tunable constants (spec.md §4.4).
type TrainConfig struct {
	InitEpochs       int     `toml:"init_epochs"`
	CVEpochs         int     `toml:"cv_epochs"`
	RegStartEpoch    int     `toml:"reg_start_epoch"`
	ShrinkAfterEpoch int     `toml:"shrink_after_epoch"`
	EtaDecay         float64 `toml:"eta_decay"`
	AlmostZero       float64 `toml:"almost_zero"`
	Seed             int64   `toml:"seed"`
}

// DetectConfig holds detection-time heuristics.
type DetectConfig struct {
	MinEventsForMargin int `toml:"min_events_for_margin"`
}

// CorpusConfig holds corpus ingestion options.
type CorpusConfig struct {
	ChunkSize int    `toml:"chunk_size"`
	SQLiteDSN string `toml:"sqlite_dsn"`
}

// Config holds the entire config structure.
type Config struct {
	Train    TrainConfig  `toml:"train"`
	Detect   DetectConfig `toml:"detect"`
	Corpus   CorpusConfig `toml:"corpus"`
	FeatureFreq int       `toml:"feature_freq"`
	Eta         float64   `toml:"eta"`
	Reg         float64   `toml:"reg"`
}

// DefaultConfig returns a Config with the literal constants from spec.md.
func DefaultConfig() *Config {
	return &Config{
		FeatureFreq: 5,
		Eta:         0.1,
		Reg:         0,
		Train: TrainConfig{
			InitEpochs:       10,
			CVEpochs:         5,
			RegStartEpoch:    5,
			ShrinkAfterEpoch: 4,
			EtaDecay:         0.8,
			AlmostZero:       1e-7,
			Seed:             0,
		},
		Detect: DetectConfig{
			MinEventsForMargin: 10,
		},
		Corpus: CorpusConfig{
			ChunkSize: 10000,
		},
	}
}

// InitConfig loads config from file or creates the default one if missing.
func InitConfig(configPath string) (*Config, error) {
	if !fsutil.FileExists(configPath) {
		cfg := DefaultConfig()
		if err := SaveConfig(cfg, configPath); err != nil {
			return nil, err
		}
		logg().Debugf("Created default config file at: ( %s )", configPath)
		return cfg, nil
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		logg().Warnf("Failed to load config, using defaults: %v", err)
		return DefaultConfig(), nil
	}
	return cfg, nil
}

// LoadConfig loads from a TOML file.
func LoadConfig(configPath string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		logg().Errorf("Failed to decode config file: %v", err)
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig saves into a TOML file.
func SaveConfig(cfg *Config, configPath string) error {
	if err := fsutil.EnsureDir(filepath.Dir(configPath)); err != nil {
		return err
	}
	file, err := os.Create(configPath)
	if err != nil {
		logg().Errorf("Failed to create config file: %v", err)
		return err
	}
	defer file.Close()
	encoder := toml.NewEncoder(file)
	return encoder.Encode(cfg)
}
