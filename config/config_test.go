package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, StoreMemory, cfg.App.StoreBackend)
		assert.Equal(t, []string{"APPROVED", "ONAYLANDI"}, cfg.Approval.Markers)
		assert.Equal(t, "retain", cfg.Approval.OverrideMode)
		assert.Equal(t, "0 0 6 * * *", cfg.Jobs.OverdueReportCron)
		assert.Equal(t, "postgres://postgres:@localhost:5432/docregister?sslmode=disable", cfg.Database.DSN)
	})

	t.Run("reads lists and numbers", func(t *testing.T) {
		t.Setenv("APPROVAL_MARKERS", " OK , APPROVED ,,")
		t.Setenv("RATE_LIMIT_RPS", "2.5")
		t.Setenv("REDIS_DB", "3")
		t.Setenv("DB_DSN", "postgres://u:p@db:5432/x")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"OK", "APPROVED"}, cfg.Approval.Markers)
		assert.Equal(t, 2.5, cfg.Server.RateLimitRPS)
		assert.Equal(t, 3, cfg.Redis.DB)
		assert.Equal(t, "postgres://u:p@db:5432/x", cfg.Database.DSN)
	})

	t.Run("invalid numbers fall back to defaults", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_BURST", "many")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 40, cfg.Server.RateLimitBurst)
	})

	t.Run("empty cron disables the report", func(t *testing.T) {
		t.Setenv("OVERDUE_REPORT_CRON", "")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Empty(t, cfg.Jobs.OverdueReportCron)
	})

	t.Run("rejects unknown backends", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "mongo")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("s3 needs a bucket", func(t *testing.T) {
		t.Setenv("FILES_BACKEND", "s3")
		_, err := Load()
		assert.ErrorContains(t, err, "S3_BUCKET")
	})

	t.Run("rejects unknown override mode", func(t *testing.T) {
		t.Setenv("APPROVAL_OVERRIDE_MODE", "sometimes")
		_, err := Load()
		assert.Error(t, err)
	})
}
