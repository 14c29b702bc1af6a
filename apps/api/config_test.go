package main

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/mealvote/platform/go/audit"
)

func parseTestConfig(t *testing.T, vars map[string]string) config {
	t.Helper()
	var cfg config
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: vars}))
	return cfg
}

func TestConfigDefaults(t *testing.T) {
	cfg := parseTestConfig(t, map[string]string{"STORAGE": "memory"})
	require.NoError(t, cfg.validate())
	require.Equal(t, "firebase", cfg.AuthProvider)
	require.True(t, cfg.SeedDefaultRoles)
	require.Equal(t, audit.DefaultSubjectPrefix, cfg.auditPrefix())

	tc, err := cfg.defaultTenant()
	require.NoError(t, err)
	require.Equal(t, "default", tc.Slug)
	require.True(t, tc.AcceptsWrites())
}

func TestConfigValidation(t *testing.T) {
	cfg := parseTestConfig(t, map[string]string{
		"STORAGE":           "postgres",
		"AUTH_PROVIDER":     "saml",
		"DEFAULT_TENANT_ID": "not-a-uuid",
	})

	err := cfg.validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "DATABASE_URL")
	require.Contains(t, err.Error(), "AUTH_PROVIDER")
	require.Contains(t, err.Error(), "DEFAULT_TENANT_ID")
}

func TestConfigAuditPrefixOverride(t *testing.T) {
	cfg := parseTestConfig(t, map[string]string{"AUDIT_SUBJECT_PREFIX": " cafeteria.audit "})
	require.Equal(t, "cafeteria.audit", cfg.auditPrefix())
}

func TestConfigPoolSettings(t *testing.T) {
	cfg := parseTestConfig(t, map[string]string{
		"DATABASE_URL":                    "postgres://localhost/mealvote",
		"DATABASE_POOL_MAX_CONNS":         "8",
		"DATABASE_POOL_STATEMENT_TIMEOUT": "3s",
	})

	pc := cfg.poolConfig()
	require.Equal(t, "postgres://localhost/mealvote", pc.ConnString)
	require.Equal(t, int32(8), pc.MaxConns)
	require.Equal(t, 3*time.Second, pc.StatementTimeout)
	require.Equal(t, "mealvote", pc.ApplicationName)
}
