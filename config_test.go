package fieldval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("FIELDVAL_LOG_LEVEL", "")
	os.Unsetenv("FIELDVAL_LOG_LEVEL")
	t.Setenv("FIELDVAL_TEMPLATE_KEY", "")
	os.Unsetenv("FIELDVAL_TEMPLATE_KEY")
	t.Setenv("FIELDVAL_DEFINITIONS", "")
	os.Unsetenv("FIELDVAL_DEFINITIONS")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, Config{LogLevel: "off", TemplateKey: DefaultTemplateKey}, cfg)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("FIELDVAL_LOG_LEVEL", "trace")
	t.Setenv("FIELDVAL_TEMPLATE_KEY", "compactErrors")
	t.Setenv("FIELDVAL_DEFINITIONS", "/etc/fieldval/validators.yaml")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "trace", cfg.LogLevel)
	assert.Equal(t, "compactErrors", cfg.TemplateKey)
	assert.Equal(t, "/etc/fieldval/validators.yaml", cfg.DefinitionsFile)
}

func TestSetup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validators.yaml")
	require.NoError(t, os.WriteFile(path, []byte(definitionsYAML), 0o600))

	reg, b, err := Setup(Config{LogLevel: "warn", DefinitionsFile: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"minLength", "password", "zip"}, reg.Names())
	assert.Equal(t, logWarn, b.log.Level)

	c := NewControl("password")
	binding := b.Bind(c, "password")
	assert.Equal(t, []string{"password"}, binding.Bound)
}

func TestSetupErrors(t *testing.T) {
	_, _, err := Setup(Config{DefinitionsFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	_, _, err = Setup(Config{LogLevel: "loud"})
	assert.Error(t, err)

	reg, b, err := Setup(Config{})
	require.NoError(t, err)
	assert.Empty(t, reg.Names())
	assert.NotNil(t, b)
}
