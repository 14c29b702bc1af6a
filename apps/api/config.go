package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/zenGate-Global/mealvote/platform/go/audit"
	"github.com/zenGate-Global/mealvote/platform/go/persistence"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`

	Storage        string                 `env:"STORAGE" envDefault:"postgres"` // postgres | memory
	DatabaseURL    string                 `env:"DATABASE_URL"`                  // required when STORAGE=postgres
	DatabaseSchema string                 `env:"DATABASE_SCHEMA" envDefault:"mealvote"`
	DatabasePool   persistence.PoolConfig `envPrefix:"DATABASE_POOL_"`

	AuthProvider            string `env:"AUTH_PROVIDER" envDefault:"firebase"` // firebase | dev | header
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`

	DefaultTenantID   string `env:"DEFAULT_TENANT_ID" envDefault:"00000000-0000-0000-0000-000000000001"`
	DefaultTenantSlug string `env:"DEFAULT_TENANT_SLUG" envDefault:"default"`
	DefaultTenantName string `env:"DEFAULT_TENANT_NAME" envDefault:"Default"`
	SeedDefaultRoles  bool   `env:"SEED_DEFAULT_ROLES" envDefault:"true"`

	LegacyRoleMapFile string `env:"LEGACY_ROLE_MAP_FILE"`

	NATSURL            string `env:"NATS_URL"`
	AuditSubjectPrefix string `env:"AUDIT_SUBJECT_PREFIX"`
}

// loadConfig reads an optional .env file and then the process environment.
func loadConfig() (config, error) {
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	var errs []error
	switch c.Storage {
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORAGE=postgres"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("STORAGE must be postgres or memory, got %q", c.Storage))
	}

	switch c.AuthProvider {
	case "firebase", "dev", "header":
	default:
		errs = append(errs, fmt.Errorf("AUTH_PROVIDER must be firebase, dev or header, got %q", c.AuthProvider))
	}

	if _, err := c.defaultTenant(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// defaultTenant is the context every request falls back to.
func (c config) defaultTenant() (tenant.Context, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.DefaultTenantID))
	if err != nil || id == uuid.Nil {
		return tenant.Context{}, fmt.Errorf("DEFAULT_TENANT_ID must be a non-nil uuid, got %q", c.DefaultTenantID)
	}
	slug, err := persistence.NormalizeSlug(c.DefaultTenantSlug)
	if err != nil {
		return tenant.Context{}, fmt.Errorf("DEFAULT_TENANT_SLUG: %w", err)
	}
	name := strings.TrimSpace(c.DefaultTenantName)
	if name == "" {
		name = slug
	}
	return tenant.Context{TenantID: id, Slug: slug, Name: name, Status: tenant.StatusActive}, nil
}

func (c config) auditPrefix() string {
	if p := strings.TrimSpace(c.AuditSubjectPrefix); p != "" {
		return p
	}
	return audit.DefaultSubjectPrefix
}

func (c config) poolConfig() persistence.PoolConfig {
	pc := c.DatabasePool
	pc.ConnString = c.DatabaseURL
	return pc
}
