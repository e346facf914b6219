package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("WritesDefault", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "repl", "ircrepl.yaml")

		cfg, resolved, err := loadConfig(&logger, path)
		require.NoError(t, err)
		assert.Equal(t, path, resolved)
		assert.Equal(t, "localhost:6667", cfg.Server)
		assert.Equal(t, "Test", cfg.Client.Nick)
		assert.Equal(t, []string{"Test2", "Test3", "Test4", "Test5"}, cfg.Client.Alternatives)

		_, err = os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ircrepl.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
server: irc.example.com:6697
ssl: true
join: ["#Test", "#Other"]
client:
  nick: Gisle
  realName: Gisle's REPL
  capabilities: [multi-prefix, chghost]
`), 0o600))

		cfg, _, err := loadConfig(&logger, path)
		require.NoError(t, err)
		assert.Equal(t, "irc.example.com:6697", cfg.Server)
		assert.True(t, cfg.SSL)
		assert.Equal(t, []string{"#Test", "#Other"}, cfg.Join)
		assert.Equal(t, "Gisle", cfg.Client.Nick)
		assert.Equal(t, "Gisle's REPL", cfg.Client.RealName)
		assert.Equal(t, "test", cfg.Client.User)
		assert.Equal(t, []string{"multi-prefix", "chghost"}, cfg.Client.Capabilities)
	})

	t.Run("Env", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ircrepl.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: irc.example.com:6667\n"), 0o600))

		t.Setenv("IRCREPL_SERVER", "irc.example.net:6667")
		t.Setenv("IRCREPL_CLIENT_NICK", "EnvNick")

		cfg, _, err := loadConfig(&logger, path)
		require.NoError(t, err)
		assert.Equal(t, "irc.example.net:6667", cfg.Server)
		assert.Equal(t, "EnvNick", cfg.Client.Nick)
	})

	t.Run("DefaultPath", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(envConfigDefaultPath, dir)

		assert.Equal(t, filepath.Join(dir, defaultConfigName), resolveConfigPath(""))
		assert.Equal(t, "other.yaml", resolveConfigPath("other.yaml"))
	})
}
