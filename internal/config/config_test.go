package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, []string{"slim-leaderboard"}, cfg.Leaderboard.Command)
	assert.Equal(t, 300*time.Second, cfg.Leaderboard.Timeout)
	assert.False(t, cfg.TokenConfigured())
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envFrom(map[string]string{
		"GITHUB_TOKEN":        "ghp_x",
		"PORT":                "9000",
		"FLASK_DEBUG":         "True",
		"STATIC_DIR":          "/srv/web",
		"LEADERBOARD_COMMAND": "python -m jpl.slim.leaderboard",
		"LEADERBOARD_TIMEOUT": "90s",
		"OPENAI_API_KEY":      "sk-test",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.TokenConfigured())
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "/srv/web", cfg.Server.StaticDir)
	assert.Equal(t, []string{"python", "-m", "jpl.slim.leaderboard"}, cfg.Leaderboard.Command)
	assert.Equal(t, 90*time.Second, cfg.Leaderboard.Timeout)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
}

func TestApplyEnvDebugOverridesFlaskDebug(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envFrom(map[string]string{"FLASK_DEBUG": "true", "DEBUG": "false"})))
	assert.False(t, cfg.Server.Debug)
}

func TestApplyEnvCollectsErrors(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envFrom(map[string]string{
		"PORT":                "eighty",
		"LEADERBOARD_TIMEOUT": "soon",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "LEADERBOARD_TIMEOUT")
}

func TestWhitespaceTokenIsNotConfigured(t *testing.T) {
	cfg := Default()
	cfg.GitHub.Token = "   "
	assert.False(t, cfg.TokenConfigured())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Leaderboard.Command = nil
	cfg.Leaderboard.Timeout = 0
	cfg.Database.Driver = "sqlite"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"server.port", "leaderboard.command", "leaderboard.timeout", "database.driver"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8090
leaderboard:
  command: ["slim-leaderboard", "--no-cache"]
  timeout: 45s
  maxConcurrent: 2
database:
  driver: postgres
  host: db
  port: 5432
  user: slim
  password: secret
  name: leaderboard
`), 0o600))

	t.Setenv("PORT", "")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, []string{"slim-leaderboard", "--no-cache"}, cfg.Leaderboard.Command)
	assert.Equal(t, 45*time.Second, cfg.Leaderboard.Timeout)
	assert.Equal(t, 2, cfg.Leaderboard.MaxConcurrent)
	assert.Equal(t, "host=db port=5432 user=slim password=secret dbname=leaderboard sslmode=disable", cfg.PostgresDSN())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	cfg := Default()
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.Host = "h"
	cfg.Database.Port = 3306
	cfg.Database.Name = "n"
	assert.Equal(t, "u:p@tcp(h:3306)/n?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}
