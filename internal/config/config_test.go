package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	require.NoError(t, Setup(v, t.TempDir()))

	cfg, err := Load(v)
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.Dictionary, cfg.Dictionary)
	assert.Empty(t, cfg.Fields)
	assert.Zero(t, cfg.Workers)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	content := `dictionary:
  source: pinyin
fields:
  - Back
  - "2"
workers: 3
inject_css: true
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))

	v := viper.New()
	require.NoError(t, Setup(v, dir))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "pinyin", cfg.Dictionary.Source)
	assert.Equal(t, []string{"Back", "2"}, cfg.Fields)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.InjectCSS)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("PLECOISE_DICTIONARY_SOURCE", "none")
	t.Setenv("PLECOISE_WORKERS", "5")

	v := viper.New()
	require.NoError(t, Setup(v, t.TempDir()))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "none", cfg.Dictionary.Source)
	assert.Equal(t, 5, cfg.Workers)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "Unknown source", key: "dictionary.source", value: "wiktionary"},
		{name: "Negative workers", key: "workers", value: -1},
		{name: "Bad level", key: "log.level", value: "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			require.NoError(t, Setup(v, t.TempDir()))
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestSavedDefaultsLeaveWorkersAuto(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "workers: 0\n")
}

func TestSetupBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("workers: [oops"), 0644))

	err := Setup(viper.New(), dir)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Dictionary.Path = "/usr/share/cedict/cedict_ts.u8.gz"
	cfg.Fields = []string{"Front"}
	cfg.Workers = 2

	require.NoError(t, Save(filepath.Join(dir, FileName), cfg))

	v := viper.New()
	require.NoError(t, Setup(v, dir))
	loaded, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)
}

func TestEnsureConfigDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureConfigDir(dir))
	assert.DirExists(t, dir)
}
