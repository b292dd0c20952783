package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/ward-overtime/pkg/core/allocator"
	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

func minimalConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: DriverSQLite, URL: "overtime.db"},
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overtime_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestValidate_MinimalConfig(t *testing.T) {
	assert.NoError(t, Validate(minimalConfig()))
}

func TestValidate_FullConfig(t *testing.T) {
	cfg := &Config{
		Database:            DatabaseConfig{Driver: DriverPostgres, URL: "postgres://localhost/overtime"},
		QualifyingBaseShift: "A",
		MinIntervalDays:     5,
		NoOvertimePenalty:   -0.2,
		ShiftScores:         map[string]float64{"A": 2.5, "E": 0.1},
		AttendanceRates:     []float64{0.9, 0.9, 0.8, 1},
		UnfilledPolicy:      "relax-gate",
		Shuffle:             ShuffleConfig{MaxAttempts: 50, MaxRange: 2, MaxMeanAbsDeviation: 1, CheckEvery: 10, Seed: 3},
		ClosedDates: []ClosedDate{
			{RRule: "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25", Reason: "Christmas Day"},
		},
		PublishSheetID: "sheet123",
	}

	assert.NoError(t, Validate(cfg))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		message string
	}{
		{"missing driver", func(cfg *Config) { cfg.Database.Driver = "" }, "validation failed"},
		{"unknown driver", func(cfg *Config) { cfg.Database.Driver = "mysql" }, "validation failed"},
		{"missing url", func(cfg *Config) { cfg.Database.URL = "" }, "validation failed"},
		{"positive penalty", func(cfg *Config) { cfg.NoOvertimePenalty = 0.5 }, "validation failed"},
		{"negative interval", func(cfg *Config) { cfg.MinIntervalDays = -2 }, "validation failed"},
		{"unknown shift score key", func(cfg *Config) { cfg.ShiftScores = map[string]float64{"G": 1} }, "validation failed"},
		{"negative shift score", func(cfg *Config) { cfg.ShiftScores = map[string]float64{"A": -1} }, "validation failed"},
		{"three attendance rates", func(cfg *Config) { cfg.AttendanceRates = []float64{0.9, 0.9, 0.9} }, "validation failed"},
		{"attendance rate above one", func(cfg *Config) { cfg.AttendanceRates = []float64{0.9, 0.9, 0.9, 1.1} }, "validation failed"},
		{"unknown unfilled policy", func(cfg *Config) { cfg.UnfilledPolicy = "retry" }, "validation failed"},
		{"negative shuffle attempts", func(cfg *Config) { cfg.Shuffle.MaxAttempts = -5 }, "validation failed"},
		{"empty rrule", func(cfg *Config) { cfg.ClosedDates = []ClosedDate{{RRule: ""}} }, "validation failed"},
		{"invalid rrule", func(cfg *Config) { cfg.ClosedDates = []ClosedDate{{RRule: "INVALID_RRULE_SYNTAX"}} }, "invalid rrule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := minimalConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  url: "postgres://localhost:5432/overtime"
qualifyingBaseShift: "N"
minIntervalDays: 6
shiftScores:
  A: 2.5
attendanceRates: [0.8, 0.9, 0.7, 0.6]
unfilledPolicy: relax-gate
shuffle:
  maxAttempts: 200
  seed: 99
closedDates:
  - rrule: "FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=1"
    reason: "New Year's Day"
publishSheetID: "sheet123"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost:5432/overtime", cfg.Database.URL)
	assert.Equal(t, "N", cfg.QualifyingBaseShift)
	assert.Equal(t, 6, cfg.MinIntervalDays)
	assert.Equal(t, 2.5, cfg.ShiftScores["A"])
	assert.Equal(t, []float64{0.8, 0.9, 0.7, 0.6}, cfg.AttendanceRates)
	assert.Equal(t, "relax-gate", cfg.UnfilledPolicy)
	assert.Equal(t, 200, cfg.Shuffle.MaxAttempts)
	assert.Equal(t, int64(99), cfg.Shuffle.Seed)
	require.Len(t, cfg.ClosedDates, 1)
	assert.Equal(t, "New Year's Day", cfg.ClosedDates[0].Reason)
	assert.Equal(t, "sheet123", cfg.PublishSheetID)

	// Unset values take defaults
	assert.Equal(t, allocator.DefaultNoOvertimePenalty, cfg.NoOvertimePenalty)
	assert.Equal(t, allocator.DefaultShuffleMaxRange, cfg.Shuffle.MaxRange)
	assert.Equal(t, allocator.DefaultShuffleCheckEvery, cfg.Shuffle.CheckEvery)
}

func TestLoadFromPath_MinimalConfigGetsDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  url: overtime.db
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultQualifyingBaseShift, cfg.QualifyingBaseShift)
	assert.Equal(t, allocator.DefaultMinIntervalDays, cfg.MinIntervalDays)
	assert.Equal(t, allocator.DefaultNoOvertimePenalty, cfg.NoOvertimePenalty)
	assert.Equal(t, string(allocator.UnfilledLeave), cfg.UnfilledPolicy)
	assert.Equal(t, allocator.DefaultShuffleMaxAttempts, cfg.Shuffle.MaxAttempts)
	assert.Empty(t, cfg.ClosedDates)
	assert.Empty(t, cfg.PublishSheetID)
}

func TestLoadFromPath_InvalidRRule(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  url: overtime.db
closedDates:
  - rrule: "INVALID_RRULE_SYNTAX"
`)

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")
}

func TestLoadFromPath_MissingDatabase(t *testing.T) {
	path := writeConfig(t, `
minIntervalDays: 7
`)

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: "sqlite"
    invalid indentation
`)

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadWithEnv_FindsFileInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "overtime_config.ci.yaml"), []byte(`
database:
  driver: sqlite
  url: ci.db
`), 0644))
	chdir(t, dir)

	cfg, err := LoadWithEnv("ci")
	require.NoError(t, err)
	assert.Equal(t, "ci.db", cfg.Database.URL)
}

func TestAllocatorOptions(t *testing.T) {
	cfg := minimalConfig()
	cfg.MinIntervalDays = 5
	cfg.NoOvertimePenalty = -0.2
	cfg.ShiftScores = map[string]float64{"A": 3}
	cfg.AttendanceRates = []float64{1, 1, 1, 1}
	cfg.UnfilledPolicy = "relax-gate"

	opts := cfg.AllocatorOptions()

	assert.Equal(t, 5, opts.MinIntervalDays)
	assert.Equal(t, -0.2, opts.NoOvertimePenalty)
	assert.Equal(t, 3.0, opts.ScoreTable.Score(model.ShiftA))
	assert.Equal(t, 1.0, opts.ScoreTable.Score(model.ShiftB), "unlisted types keep their standard value")
	assert.Equal(t, allocator.AttendanceRates{1, 1, 1, 1}, opts.AttendanceRates)
	assert.Equal(t, allocator.UnfilledRelaxGate, opts.UnfilledPolicy)
}

func TestAllocatorOptions_IntervalDisabled(t *testing.T) {
	cfg := minimalConfig()
	cfg.MinIntervalDays = -1
	require.NoError(t, Validate(cfg))
	cfg.ApplyDefaults()

	assert.Equal(t, allocator.NoMinInterval, cfg.AllocatorOptions().MinIntervalDays)
}

func TestAllocatorOptions_Defaults(t *testing.T) {
	assert.Equal(t, allocator.DefaultOptions(), minimalConfig().AllocatorOptions())
}

func TestShuffleOptions(t *testing.T) {
	cfg := minimalConfig()
	cfg.ApplyDefaults()
	cfg.Shuffle.Seed = 11

	opts := cfg.ShuffleOptions()
	assert.Equal(t, allocator.DefaultShuffleMaxAttempts, opts.MaxAttempts)
	assert.Equal(t, allocator.DefaultShuffleMaxMeanAbsDeviation, opts.MaxMeanAbsDeviation)
	assert.Equal(t, int64(11), opts.Seed)
}

func TestFindEnvFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("oauthClient.prod.json", []byte("{}"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(home, "overtime_config.yaml"), []byte("{}"), 0600))

	path, err := findEnvFile("oauthClient", "json", "prod")
	require.NoError(t, err)
	assert.Equal(t, "oauthClient.prod.json", path)

	path, err = findEnvFile("overtime_config", "yaml", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "overtime_config.yaml"), path, "falls back to the home directory")

	_, err = findEnvFile("oauthClient", "json", "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oauthClient.test.json not found")
}
