package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultHistoryDir           = "history"
	defaultExecutionHistoryFile = "execution_history.log"
	defaultSnapshotFile         = "snapshot.json"
	defaultQuoteInterval        = 100 * time.Millisecond
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Instruments []InstrumentConfig `json:"instruments"`
	History     HistoryConfig      `json:"history"`
	Archive     ArchiveConfig      `json:"archive"`
	Sim         SimConfig          `json:"sim"`
	Features    FeatureFlagsConfig `json:"features"`
}

// InstrumentConfig describes a tradable instrument entry.
type InstrumentConfig struct {
	Symbol string `json:"symbol"`
	Depths int    `json:"depths"`
}

// HistoryConfig defines where execution history and snapshots land.
type HistoryConfig struct {
	Dir                  string `json:"dir"`
	ExecutionHistoryFile string `json:"executionHistoryFile"`
	SnapshotFile         string `json:"snapshotFile"`
}

// ArchiveConfig holds the optional relational archive settings.
type ArchiveConfig struct {
	DSN string `json:"dsn"`
}

// SimConfig controls the built-in session simulator.
type SimConfig struct {
	Seed            int64  `json:"seed"`
	QuoteIntervalMs int64  `json:"quoteIntervalMs"`
	BasePrice       string `json:"basePrice"`
}

// FeatureFlagsConfig captures optional runtime flags.
type FeatureFlagsConfig struct {
	StoreAllTicks      *bool `json:"storeAllTicks"`
	SaveHistoryToFiles *bool `json:"saveHistoryToFiles"`
	PersistPositions   *bool `json:"persistPositions"`
}

// FeatureFlags are resolved runtime flags.
type FeatureFlags struct {
	StoreAllTicks      bool
	SaveHistoryToFiles bool
	PersistPositions   bool
}

// Instrument is a resolved instrument definition.
type Instrument struct {
	Symbol string
	Depths int
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Instruments          []Instrument
	HistoryDir           string
	ExecutionHistoryPath string
	SnapshotPath         string
	ArchiveDSN           string
	Sim                  SimSpec
	Features             FeatureFlags
}

// SimSpec is the resolved simulator definition.
type SimSpec struct {
	Seed          int64
	QuoteInterval time.Duration
	BasePrice     string
}

// Load reads a JSON config file and resolves defaults.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return Resolve(cfg)
}

// Resolve validates a file config and applies defaults.
func Resolve(cfg FileConfig) (Loaded, error) {
	if len(cfg.Instruments) == 0 {
		return Loaded{}, fmt.Errorf("config has no instruments")
	}
	seen := make(map[string]bool, len(cfg.Instruments))
	instruments := make([]Instrument, 0, len(cfg.Instruments))
	for _, inst := range cfg.Instruments {
		if inst.Symbol == "" {
			return Loaded{}, fmt.Errorf("instrument symbol is empty")
		}
		if seen[inst.Symbol] {
			return Loaded{}, fmt.Errorf("duplicate instrument: %s", inst.Symbol)
		}
		seen[inst.Symbol] = true
		if inst.Depths < 0 {
			return Loaded{}, fmt.Errorf("invalid depths for %s: %d", inst.Symbol, inst.Depths)
		}
		instruments = append(instruments, Instrument{Symbol: inst.Symbol, Depths: inst.Depths})
	}

	historyDir := cfg.History.Dir
	if historyDir == "" {
		historyDir = defaultHistoryDir
	}
	historyFile := cfg.History.ExecutionHistoryFile
	if historyFile == "" {
		historyFile = defaultExecutionHistoryFile
	}
	snapshotFile := cfg.History.SnapshotFile
	if snapshotFile == "" {
		snapshotFile = defaultSnapshotFile
	}

	sim := SimSpec{
		Seed:          cfg.Sim.Seed,
		QuoteInterval: defaultQuoteInterval,
		BasePrice:     cfg.Sim.BasePrice,
	}
	if cfg.Sim.QuoteIntervalMs < 0 {
		return Loaded{}, fmt.Errorf("invalid quote interval: %d", cfg.Sim.QuoteIntervalMs)
	}
	if cfg.Sim.QuoteIntervalMs > 0 {
		sim.QuoteInterval = time.Duration(cfg.Sim.QuoteIntervalMs) * time.Millisecond
	}

	return Loaded{
		Instruments:          instruments,
		HistoryDir:           historyDir,
		ExecutionHistoryPath: filepath.Join(historyDir, historyFile),
		SnapshotPath:         filepath.Join(historyDir, snapshotFile),
		ArchiveDSN:           cfg.Archive.DSN,
		Sim:                  sim,
		Features:             resolveFeatures(cfg.Features),
	}, nil
}

func resolveFeatures(cfg FeatureFlagsConfig) FeatureFlags {
	flags := FeatureFlags{
		StoreAllTicks:      false,
		SaveHistoryToFiles: true,
		PersistPositions:   true,
	}
	if cfg.StoreAllTicks != nil {
		flags.StoreAllTicks = *cfg.StoreAllTicks
	}
	if cfg.SaveHistoryToFiles != nil {
		flags.SaveHistoryToFiles = *cfg.SaveHistoryToFiles
	}
	if cfg.PersistPositions != nil {
		flags.PersistPositions = *cfg.PersistPositions
	}
	return flags
}
