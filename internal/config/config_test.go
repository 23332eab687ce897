package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("TEST_CONFIG_KEY", "from-env")

	// Flag wins over env.
	assert.Equal(t, "from-flag", getConfigValue("from-flag", "TEST_CONFIG_KEY", "default"))
	// Env wins over default.
	assert.Equal(t, "from-env", getConfigValue("", "TEST_CONFIG_KEY", "default"))
	// Default when nothing else is set.
	assert.Equal(t, "default", getConfigValue("", "TEST_CONFIG_KEY_UNSET", "default"))
}

func TestGetBoolConfigValue(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"YES", true},
		{"false", false},
		{"0", false},
		{"nope", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, getBoolConfigValue(tt.value, "TEST_BOOL_UNSET", !tt.want))
		})
	}

	// Default used when nothing is set.
	assert.True(t, getBoolConfigValue("", "TEST_BOOL_UNSET", true))
}

func TestGetIntConfigValue(t *testing.T) {
	assert.Equal(t, 42, getIntConfigValue("42", "TEST_INT_UNSET", 7))
	assert.Equal(t, 7, getIntConfigValue("", "TEST_INT_UNSET", 7))
	assert.Equal(t, 7, getIntConfigValue("not-a-number", "TEST_INT_UNSET", 7))
}

func TestExpandPath(t *testing.T) {
	// Empty path returns the default.
	got, err := expandPath("", "/default/path")
	require.NoError(t, err)
	assert.Equal(t, "/default/path", got)

	// Tilde expands to the home directory.
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	got, err = expandPath("~/data", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data"), got)

	// Relative paths become absolute.
	got, err = expandPath("relative/dir", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestValidate(t *testing.T) {
	valid := &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data: DataConfig{
			BasePath:       "/tmp/basegroup",
			MaxUploadBytes: 32 << 20,
		},
		Grouping: GroupingConfig{Marker: "-US-"},
	}
	assert.NoError(t, valid.Validate())

	badEnv := *valid
	badEnv.App.Environment = "sandbox"
	assert.Error(t, badEnv.Validate())

	badLevel := *valid
	badLevel.Logger.Level = "verbose"
	assert.Error(t, badLevel.Validate())

	noMarker := *valid
	noMarker.Grouping.Marker = ""
	assert.Error(t, noMarker.Validate())

	badUpload := *valid
	badUpload.Data.MaxUploadBytes = 0
	assert.Error(t, badUpload.Validate())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# comment\nTEST_ENV_FILE_KEY=hello\nTEST_ENV_FILE_QUOTED=\"quoted\"\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))

	t.Setenv("TEST_ENV_FILE_KEY", "")
	os.Unsetenv("TEST_ENV_FILE_KEY")
	t.Setenv("TEST_ENV_FILE_QUOTED", "")
	os.Unsetenv("TEST_ENV_FILE_QUOTED")

	require.NoError(t, loadEnvFile(envPath))
	assert.Equal(t, "hello", os.Getenv("TEST_ENV_FILE_KEY"))
	assert.Equal(t, "quoted", os.Getenv("TEST_ENV_FILE_QUOTED"))
}
