package internal

import (
	"path/filepath"
	"testing"

	"github.com/iksnae/knowledge-store/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := testutil.CreateTempDir(t)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	isolateConfig(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFile(t *testing.T) {
	dir := isolateConfig(t)
	path := testutil.WriteRawFile(t, dir, "knowledge.yaml", []byte(`
root: /tmp/knowledge
log_level: debug
default_limit: 25
prior:
  window_hours: 24
`))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/knowledge", cfg.KnowledgeRoot)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 25, cfg.DefaultLimit)
	assert.Equal(t, 24, cfg.Prior.WindowHours)
}

func TestLoadConfigXDG(t *testing.T) {
	dir := isolateConfig(t)
	testutil.WriteRawFile(t, dir, filepath.Join("xdg", "knowledge-store", "knowledge.yaml"), []byte("default_limit: 3\n"))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.DefaultLimit)
	assert.Equal(t, DefaultKnowledgeRoot, cfg.KnowledgeRoot)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := isolateConfig(t)
	path := testutil.WriteRawFile(t, dir, "knowledge.yaml", []byte("root: from-file\n"))
	t.Setenv("KNOWLEDGE_ROOT", "from-env")
	t.Setenv("KNOWLEDGE_PRIOR_WINDOW_HOURS", "12")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.KnowledgeRoot)
	assert.Equal(t, 12, cfg.Prior.WindowHours)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := isolateConfig(t)

	broken := testutil.WriteRawFile(t, dir, "broken.yaml", []byte("root: [unterminated\n"))
	_, err := LoadConfig(broken)
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)

	invalid := testutil.WriteRawFile(t, dir, "invalid.yaml", []byte("default_limit: 0\n"))
	_, err = LoadConfig(invalid)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty root", func(c *Config) { c.KnowledgeRoot = " " }, true},
		{"zero limit", func(c *Config) { c.DefaultLimit = 0 }, true},
		{"zero window", func(c *Config) { c.Prior.WindowHours = 0 }, true},
		{"window too wide", func(c *Config) { c.Prior.WindowHours = MaxSinceHours + 1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigOpenStore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KnowledgeRoot = testutil.CreateTempDir(t)
	cfg.Prior.WindowHours = 6

	store := cfg.OpenStore()
	assert.Equal(t, cfg.KnowledgeRoot, store.Root())
	assert.Equal(t, 6, store.priorWindowHours())
}
