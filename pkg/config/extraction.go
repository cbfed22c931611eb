package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	"gopkg.in/yaml.v3"

	"github.com/lexigraph/lexigraph/pkg/extractor"
)

// ExtractionStore loads and saves the user-editable extraction
// configuration (entity types, dictionaries, rules) as a JSON file. The
// file is commonly hand-edited, so loading tolerates broken JSON by
// repairing it first.
type ExtractionStore struct {
	path   string
	logger *slog.Logger
}

// NewExtractionStore creates a store for the config file at path.
func NewExtractionStore(path string, logger *slog.Logger) *ExtractionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionStore{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *ExtractionStore) Path() string { return s.path }

// Load reads the extraction configuration. A missing file yields the
// default configuration; malformed JSON is repaired before parsing and the
// repair is logged.
func (s *ExtractionStore) Load() (extractor.Config, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return extractor.DefaultConfig(), nil
	}
	if err != nil {
		return extractor.Config{}, fmt.Errorf("failed to read extraction config: %w", err)
	}

	var cfg extractor.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(string(raw))
		if repairErr != nil {
			return extractor.Config{}, fmt.Errorf("failed to parse extraction config: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &cfg); err != nil {
			return extractor.Config{}, fmt.Errorf("failed to parse extraction config after repair: %w", err)
		}
		s.logger.Warn("extraction config was malformed and has been repaired", "path", s.path)
	}
	return cfg, nil
}

// Save writes the configuration as indented JSON, creating the parent
// directory if needed.
func (s *ExtractionStore) Save(cfg extractor.Config) error {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode extraction config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create extraction config directory: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write extraction config: %w", err)
	}
	return nil
}

// Reset replaces the stored configuration with the built-in default and
// returns it.
func (s *ExtractionStore) Reset() (extractor.Config, error) {
	cfg := extractor.DefaultConfig()
	if err := s.Save(cfg); err != nil {
		return extractor.Config{}, err
	}
	return cfg, nil
}

// ExportYAML renders the stored configuration as YAML, for sharing configs
// between deployments.
func (s *ExtractionStore) ExportYAML() ([]byte, error) {
	cfg, err := s.Load()
	if err != nil {
		return nil, err
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extraction config as yaml: %w", err)
	}
	return raw, nil
}

// ImportYAML parses a YAML configuration, persists it and returns it.
func (s *ExtractionStore) ImportYAML(data []byte) (extractor.Config, error) {
	var cfg extractor.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return extractor.Config{}, fmt.Errorf("failed to parse yaml extraction config: %w", err)
	}
	if err := s.Save(cfg); err != nil {
		return extractor.Config{}, err
	}
	return cfg, nil
}
