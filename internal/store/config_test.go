package store

import (
	"os"
	"path/filepath"
	"testing"

	"loon-cli/internal/model"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileYieldsDefaults(t *testing.T) {
	t.Setenv("LOON_CONFIG_DIR", t.TempDir())

	cfg, err := LoadFileConfig()
	require.NoError(t, err)
	require.Equal(t, model.DefaultConfig(), cfg)
}

func TestLoadConfig_MergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOON_CONFIG_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
navigation:
  circularSiblings: false
apiKeys:
  openrouter: sk-file
modelCards:
  base:
    model: some/base
    format: completion
    endpoint: https://llm.example/v1/completions
    parameters:
      max_tokens: 64
maxCount: 5
`), 0o600))

	cfg, err := LoadFileConfig()
	require.NoError(t, err)
	require.False(t, cfg.Navigation.CircularSiblings)
	require.Equal(t, "sk-file", cfg.APIKey("openrouter"))
	require.Equal(t, []string{"base", "go"}, cfg.CardNames())

	base, ok := cfg.Card("base")
	require.True(t, ok)
	require.Equal(t, "base", base.Name)
	require.Equal(t, model.FormatCompletion, base.Format)
	require.Equal(t, 64, base.Parameters["max_tokens"])

	require.Equal(t, 4, cfg.DefaultCount)
	require.Equal(t, 5, cfg.MaxCount)
}

func TestLoadConfig_RejectsBadCards(t *testing.T) {
	for name, body := range map[string]string{
		"missing endpoint": "modelCards:\n  x:\n    model: m\n",
		"bad format":       "modelCards:\n  x:\n    model: m\n    endpoint: http://e\n    format: fax\n",
		"not yaml":         "modelCards: [",
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv("LOON_CONFIG_DIR", dir)
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
			_, err := LoadFileConfig()
			require.Error(t, err)
		})
	}
}

func TestLoadConfig_EnvKeysWin(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOON_CONFIG_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("apiKeys:\n  openrouter: sk-file\n"), 0o600))
	t.Setenv("LOON_API_KEY_OPENROUTER", "sk-env")
	t.Setenv("LOON_API_KEY_LOCAL_LLM", "sk-local")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "sk-env", cfg.APIKey("openrouter"))
	require.Equal(t, "sk-local", cfg.APIKey("local-llm"))

	file, err := LoadFileConfig()
	require.NoError(t, err)
	require.Equal(t, "sk-file", file.APIKey("openrouter"))
}

func TestSaveConfig_RoundTripWithoutEnvKeys(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOON_CONFIG_DIR", dir)
	t.Setenv("LOON_API_KEY_SECRET", "from-env")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	cfg.APIKeys["openrouter"] = "sk-saved"
	cfg.Navigation.CircularSiblings = false
	require.NoError(t, SaveConfig(cfg))

	info, err := os.Stat(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	b, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	require.NotContains(t, string(b), "from-env")

	got, err := LoadFileConfig()
	require.NoError(t, err)
	require.Equal(t, "sk-saved", got.APIKey("openrouter"))
	require.Empty(t, got.APIKey("secret"))
	require.False(t, got.Navigation.CircularSiblings)
	require.Equal(t, model.DefaultConfig().ModelCards["go"].Model, got.ModelCards["go"].Model)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
}
