package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/ward-overtime/pkg/core/allocator"
	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// DefaultQualifyingBaseShift is the base shift whose roster is eligible for overtime
	DefaultQualifyingBaseShift = "A"
)

// DatabaseConfig selects the store backend
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=postgres sqlite"`

	// URL is a connection string for postgres or a file path for sqlite
	URL string `yaml:"url" validate:"required"`
}

// ShuffleConfig tunes the random-shuffle fallback strategy
type ShuffleConfig struct {
	MaxAttempts         int     `yaml:"maxAttempts,omitempty" validate:"omitempty,min=1"`
	MaxRange            float64 `yaml:"maxRange,omitempty" validate:"omitempty,gt=0"`
	MaxMeanAbsDeviation float64 `yaml:"maxMeanAbsDeviation,omitempty" validate:"omitempty,gt=0"`
	CheckEvery          int     `yaml:"checkEvery,omitempty" validate:"omitempty,min=1"`
	Seed                int64   `yaml:"seed,omitempty"`
}

// ClosedDate removes matching dates from the overtime roster
type ClosedDate struct {
	RRule  string `yaml:"rrule" validate:"required"`
	Reason string `yaml:"reason,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Database            DatabaseConfig     `yaml:"database"`
	QualifyingBaseShift string             `yaml:"qualifyingBaseShift,omitempty"`
	// MinIntervalDays of -1 turns the A/B spacing rule off
	MinIntervalDays     int                `yaml:"minIntervalDays,omitempty" validate:"omitempty,min=-1"`
	NoOvertimePenalty   float64            `yaml:"noOvertimePenalty,omitempty" validate:"omitempty,lt=0"`
	ShiftScores         map[string]float64 `yaml:"shiftScores,omitempty" validate:"omitempty,dive,keys,oneof=A B C D E F,endkeys,gte=0"`
	AttendanceRates     []float64          `yaml:"attendanceRates,omitempty" validate:"omitempty,len=4,dive,gt=0,lte=1"`
	UnfilledPolicy      string             `yaml:"unfilledPolicy,omitempty" validate:"omitempty,oneof=leave relax-gate"`
	Shuffle             ShuffleConfig      `yaml:"shuffle,omitempty"`
	ClosedDates         []ClosedDate       `yaml:"closedDates,omitempty" validate:"dive"`
	PublishSheetID      string             `yaml:"publishSheetID,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads and validates the configuration with an environment suffix.
// For example, env="test" will look for "overtime_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	return loadWithEnv("overtime_config", "yaml", env, LoadFromPath)
}

// loadWithEnv finds <base>.<env>.<ext> and hands its path to load
func loadWithEnv[T any](base, ext, env string, load func(path string) (*T, error)) (*T, error) {
	path, err := findEnvFile(base, ext, env)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s file: %w", base, err)
	}
	return load(path)
}

// findEnvFile searches for <base>.<env>.<ext> (or <base>.<ext> when env is empty)
// in the current directory, then the home directory
func findEnvFile(base, ext, env string) (string, error) {
	fileName := base + "." + ext
	if env != "" {
		fileName = base + "." + env + "." + ext
	}

	if _, err := os.Stat(fileName); err == nil {
		return fileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, fileName)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", fileName)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, closed := range cfg.ClosedDates {
		if _, err := rrule.StrToRRule(closed.RRule); err != nil {
			return fmt.Errorf("invalid rrule in closedDates[%d]: %w", i, err)
		}
	}

	return nil
}

// ApplyDefaults fills optional values left out of the file
func (c *Config) ApplyDefaults() {
	if c.QualifyingBaseShift == "" {
		c.QualifyingBaseShift = DefaultQualifyingBaseShift
	}
	if c.MinIntervalDays == 0 {
		c.MinIntervalDays = allocator.DefaultMinIntervalDays
	}
	if c.NoOvertimePenalty == 0 {
		c.NoOvertimePenalty = allocator.DefaultNoOvertimePenalty
	}
	if c.UnfilledPolicy == "" {
		c.UnfilledPolicy = string(allocator.UnfilledLeave)
	}
	if c.Shuffle.MaxAttempts == 0 {
		c.Shuffle.MaxAttempts = allocator.DefaultShuffleMaxAttempts
	}
	if c.Shuffle.MaxRange == 0 {
		c.Shuffle.MaxRange = allocator.DefaultShuffleMaxRange
	}
	if c.Shuffle.MaxMeanAbsDeviation == 0 {
		c.Shuffle.MaxMeanAbsDeviation = allocator.DefaultShuffleMaxMeanAbsDeviation
	}
	if c.Shuffle.CheckEvery == 0 {
		c.Shuffle.CheckEvery = allocator.DefaultShuffleCheckEvery
	}
}

// AllocatorOptions converts the scoring settings into allocator options.
// Shift types missing from shiftScores keep their standard value.
func (c *Config) AllocatorOptions() allocator.Options {
	opts := allocator.DefaultOptions()

	if c.MinIntervalDays != 0 {
		opts.MinIntervalDays = c.MinIntervalDays
	}
	if c.NoOvertimePenalty != 0 {
		opts.NoOvertimePenalty = c.NoOvertimePenalty
	}
	for code, points := range c.ShiftScores {
		opts.ScoreTable[model.ShiftType(code)] = points
	}
	if len(c.AttendanceRates) == len(opts.AttendanceRates) {
		copy(opts.AttendanceRates[:], c.AttendanceRates)
	}
	if c.UnfilledPolicy != "" {
		opts.UnfilledPolicy = allocator.UnfilledPolicy(c.UnfilledPolicy)
	}

	return opts
}

// ShuffleOptions converts the shuffle settings into allocator shuffle options
func (c *Config) ShuffleOptions() allocator.ShuffleOptions {
	return allocator.ShuffleOptions{
		MaxAttempts:         c.Shuffle.MaxAttempts,
		MaxRange:            c.Shuffle.MaxRange,
		MaxMeanAbsDeviation: c.Shuffle.MaxMeanAbsDeviation,
		CheckEvery:          c.Shuffle.CheckEvery,
		Seed:                c.Shuffle.Seed,
	}
}
