package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sicbo/models"
)

//go:embed game_settings.yaml
var defaultGameSettingsYAML []byte

// gameSettingsFile mirrors the layout of game_settings.yaml
type gameSettingsFile struct {
	Stakes struct {
		Min int64 `yaml:"min"`
		Max int64 `yaml:"max"`
	} `yaml:"stakes"`
	Limits struct {
		SizeParity int `yaml:"size_parity"`
		Sum        int `yaml:"sum"`
		Triple     int `yaml:"triple"`
	} `yaml:"limits"`
	Odds struct {
		SizeParity int64 `yaml:"size_parity"`
		Sum        int64 `yaml:"sum"`
		Triple     int64 `yaml:"triple"`
	} `yaml:"odds"`
	BettingEnabled  bool `yaml:"betting_enabled"`
	AllowIrrelevant bool `yaml:"allow_irrelevant"`
}

// DefaultGameSettings returns the game defaults, read from GameSettingsFile when set
// and from the embedded game_settings.yaml otherwise
func (c *Config) DefaultGameSettings() (*models.GameSettings, error) {
	data := defaultGameSettingsYAML
	if c.GameSettingsFile != "" {
		fileData, err := os.ReadFile(c.GameSettingsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read game settings file %s: %w", c.GameSettingsFile, err)
		}
		data = fileData
	}
	return ParseGameSettings(data)
}

// ParseGameSettings decodes and validates a game settings YAML document
func ParseGameSettings(data []byte) (*models.GameSettings, error) {
	var file gameSettingsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse game settings: %w", err)
	}

	settings := &models.GameSettings{
		MinStake:          file.Stakes.Min,
		MaxStake:          file.Stakes.Max,
		MaxSizeParityBets: file.Limits.SizeParity,
		MaxSumBets:        file.Limits.Sum,
		MaxTripleBets:     file.Limits.Triple,
		OddsSizeParity:    file.Odds.SizeParity,
		OddsSum:           file.Odds.Sum,
		OddsTriple:        file.Odds.Triple,
		BettingEnabled:    file.BettingEnabled,
		AllowIrrelevant:   file.AllowIrrelevant,
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game settings: %w", err)
	}
	return settings, nil
}
