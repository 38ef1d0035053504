package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movers-api/models"
)

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_TTL", "48h")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("AUTH_RATE_LIMIT_RPS", "2.5")
	t.Setenv("ANALYTICS_TIMEZONE", "Asia/Kolkata")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 48*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.Equal(t, 2.5, cfg.AuthRateLimitRPS)
	assert.Equal(t, "INR", cfg.PaymentCurrency)
	assert.False(t, cfg.EmailEnabled())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 720*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 587, cfg.SMTPPort)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")
	_, err = Load()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	log := NewLogger(&Config{LogLevel: "debug", LogFormat: "json"})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = NewLogger(&Config{LogLevel: "nonsense"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestOpenDBMigrates(t *testing.T) {
	clk := testclock.NewClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	cfg := &Config{DatabaseURL: filepath.Join(t.TempDir(), "movers.db")}

	db, err := OpenDB(cfg, clk)
	require.NoError(t, err)

	user := models.User{Name: "A", Email: "a@example.com", PasswordHash: "x", Role: models.RoleClient, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	assert.Equal(t, clk.Now().UTC(), user.CreatedAt)

	_, err = OpenDB(&Config{DatabaseDriver: "oracle", DatabaseURL: "x"}, clk)
	assert.Error(t, err)
}
