package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gojsm/domain/core"
	apperrors "gojsm/internal/errors"
)

var envKeys = []string{
	"JSM_CONFIG_FILE", "JSM_METHOD", "JSM_EXT_THRESHOLD", "JSM_INT_THRESHOLD",
	"JSM_BAN_COUNTEREXAMPLES", "JSM_MAX_STEPS", "DATABASE_DRIVER", "DATABASE_URL",
	"PORT", "GIN_MODE", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "norris", cfg.JSM.Method)
	assert.Equal(t, 2, cfg.JSM.ExtThreshold)
	assert.Equal(t, 3, cfg.JSM.IntThreshold)
	assert.False(t, cfg.JSM.BanCounterexamples)
	assert.Equal(t, 0, cfg.JSM.MaxSteps)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("JSM_METHOD", "chaining")
	t.Setenv("JSM_EXT_THRESHOLD", "1")
	t.Setenv("JSM_INT_THRESHOLD", "not-a-number")
	t.Setenv("JSM_BAN_COUNTEREXAMPLES", "true")
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", "file:runs.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "chaining", cfg.JSM.Method)
	assert.Equal(t, 1, cfg.JSM.ExtThreshold)
	assert.Equal(t, 3, cfg.JSM.IntThreshold, "unparseable values fall back")
	assert.True(t, cfg.JSM.BanCounterexamples)
	assert.True(t, cfg.Database.Enabled())

	opts := cfg.JSM.Options()
	assert.Equal(t, 1, opts.Thresholds.Extensional)
	assert.True(t, opts.BanCounterexamples)
}

func TestLoadFile_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "jsm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
jsm:
  method: khazanovskiy
  ext_threshold: 4
  int_threshold: 1
  max_steps: 5
server:
  port: "9090"
`), 0o644))
	t.Setenv("JSM_EXT_THRESHOLD", "6")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "khazanovskiy", cfg.JSM.Method)
	assert.Equal(t, 6, cfg.JSM.ExtThreshold)
	assert.Equal(t, 1, cfg.JSM.IntThreshold)
	assert.Equal(t, 5, cfg.JSM.MaxSteps)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want error
	}{
		{"negative threshold", "JSM_INT_THRESHOLD", "-1", core.ErrInvalidThreshold},
		{"unknown method", "JSM_METHOD", "galois", core.ErrUnknownMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
			assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
		})
	}

	clearEnv(t)
	t.Setenv("DATABASE_DRIVER", "mysql")
	_, err := Load()
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}

func TestLoadFile_Missing(t *testing.T) {
	clearEnv(t)
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
