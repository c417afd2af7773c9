package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"1h":   time.Hour,
		"90m":  90 * time.Minute,
		"30d":  30 * 24 * time.Hour,
		"0.5d": 12 * time.Hour,
		" 7d ": 7 * 24 * time.Hour,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseDuration("soon")
	require.Error(t, err)
	_, err = ParseDuration("xd")
	require.Error(t, err)
}

func validProduction() *Config {
	return &Config{
		AppEnv:           "production",
		StoreDriver:      "mongo",
		JWTSecret:        "0123456789abcdef0123456789abcdef-access",
		JWTRefreshSecret: "0123456789abcdef0123456789abcdef-refresh",
		JWTExpiresIn:     time.Hour,
		JWTRefreshIn:     30 * 24 * time.Hour,
		BcryptCost:       12,
		RateLimitWindow:  15 * time.Minute,
	}
}

func TestValidate_ProductionRejectsFallbackSecrets(t *testing.T) {
	cfg := validProduction()
	require.NoError(t, cfg.Validate())

	cfg.JWTSecret = devAccessSecret
	require.Error(t, cfg.Validate())

	cfg = validProduction()
	cfg.JWTRefreshSecret = cfg.JWTSecret
	require.Error(t, cfg.Validate())

	cfg = validProduction()
	cfg.JWTSecret = "short"
	require.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveRateLimitWindow(t *testing.T) {
	cfg := validProduction()
	cfg.RateLimitWindow = 0
	require.EqualError(t, cfg.Validate(), "RATE_LIMIT_WINDOW must be positive")
}

func TestValidate_DevelopmentAllowsFallbacks(t *testing.T) {
	cfg := &Config{
		AppEnv:           "development",
		StoreDriver:      "memory",
		JWTSecret:        devAccessSecret,
		JWTRefreshSecret: devRefreshSecret,
		JWTExpiresIn:     time.Hour,
		JWTRefreshIn:     time.Hour,
		BcryptCost:       4,
		RateLimitWindow:  time.Minute,
	}
	require.NoError(t, cfg.Validate())
	require.True(t, cfg.UsesFallbackSecrets())
}

func TestIsAdminEmail(t *testing.T) {
	cfg := &Config{AdminEmails: splitList(" Admin@OiPet.com , ops@oipet.com,")}
	require.True(t, cfg.IsAdminEmail("admin@oipet.com"))
	require.True(t, cfg.IsAdminEmail("OPS@oipet.com "))
	require.False(t, cfg.IsAdminEmail("user@oipet.com"))
}
