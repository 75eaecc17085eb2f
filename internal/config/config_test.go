package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.DB.Driver)
	assert.Equal(t, "3306", cfg.DB.Port)
	assert.Equal(t, BackendGorm, cfg.DB.Backend)
	assert.Equal(t, "5000", cfg.App.HTTPPort)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.App.CORSAllowedOrigins)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Empty(t, cfg.App.TrustedProxies)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.env", "DB_DRIVER=postgres\nDB_NAME=from_file\nHTTP_PORT=9000\n")
	t.Setenv("HTTP_PORT", "7000")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.Equal(t, "from_file", cfg.DB.Name)
	assert.Equal(t, "7000", cfg.App.HTTPPort)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "DB_USER=flask\nDB_PASSWORD=secret\nCORS_ALLOWED_ORIGINS=http://a.test, http://b.test\n")
	t.Cleanup(func() {
		_ = os.Unsetenv("DB_USER")
		_ = os.Unsetenv("DB_PASSWORD")
		_ = os.Unsetenv("CORS_ALLOWED_ORIGINS")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "flask", cfg.DB.User)
	assert.Equal(t, "secret", cfg.DB.Password)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.App.CORSAllowedOrigins)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{"unknown driver", func(c *Config) { c.DB.Driver = "oracle" }, "unsupported DB_DRIVER"},
		{"unknown backend", func(c *Config) { c.DB.Backend = "raw" }, "unsupported REPOSITORY_BACKEND"},
		{"empty http port", func(c *Config) { c.App.HTTPPort = "" }, "HTTP_PORT is required"},
		{"pool size", func(c *Config) { c.DB.MaxOpenConns = 0 }, "DB_MAX_OPEN_CONNS"},
		{"zero health interval", func(c *Config) { c.App.HealthIntervalSeconds = 0 }, "HEALTH_CHECK_INTERVAL_SECONDS"},
		{"negative health interval", func(c *Config) { c.App.HealthIntervalSeconds = -5 }, "HEALTH_CHECK_INTERVAL_SECONDS"},
		{"bad trusted proxy", func(c *Config) { c.App.TrustedProxies = []string{"10.0.0.0/8", "proxy.local"} }, "invalid TRUSTED_PROXIES entry \"proxy.local\""},
		{"rate limit without redis", func(c *Config) { c.RateLimit.Enabled = true }, "requires REDIS_ENABLED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestConfig_Validate_HealthIntervalIgnoredWithoutGRPC(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	cfg.App.GRPCEnabled = false
	cfg.App.HealthIntervalSeconds = 0

	assert.NoError(t, cfg.Validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("mysql", func(t *testing.T) {
		c := DatabaseConfig{Driver: DriverMySQL, Host: "db", Port: "3306", User: "root", Password: "pw", Name: "users_db"}
		dsn := c.DSN()
		assert.Contains(t, dsn, "root:pw@tcp(db:3306)/users_db")
		assert.Contains(t, dsn, "clientFoundRows=true")
		assert.Contains(t, dsn, "parseTime=true")
	})

	t.Run("postgres", func(t *testing.T) {
		c := DatabaseConfig{Driver: DriverPostgres, Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
		assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable", c.DSN())
	})

	t.Run("sqlite", func(t *testing.T) {
		c := DatabaseConfig{Driver: DriverSQLite, Name: "users.db"}
		assert.Equal(t, "users.db", c.DSN())
	})
}
