package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:                    "localhost",
			Port:                    3306,
			User:                    "blogql",
			Database:                "blogql",
			Pool:                    PoolConfig{MaxOpen: 25, MaxIdle: 5, MaxLifetime: 5 * time.Minute},
			ConnectionTimeout:       60 * time.Second,
			ConnectionRetryInterval: 2 * time.Second,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret: strings.Repeat("s", 32),
			Issuer:    "blogql",
		},
		Uploads: UploadConfig{MaxBytes: 8 << 20},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "info", Format: "json"},
			OTLP:    OTLPConfig{Endpoint: "localhost:4317", Protocol: "grpc"},
		},
	}
}

func TestValidateValidConfig(t *testing.T) {
	result := validConfig().Validate()
	assert.False(t, result.HasErrors(), result.Error())
}

func TestDSNFromDiscreteFields(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Password = "secret"

	dsn := cfg.Database.DSN()
	assert.Equal(t, "blogql:secret@tcp(localhost:3306)/blogql?parseTime=true&loc=UTC", dsn)
}

func TestDSNFromConnectionStringAddsParseTime(t *testing.T) {
	cfg := validConfig()
	cfg.Database.ConnectionString = "user:pass@tcp(db:3306)/blogql"

	dsn := cfg.Database.DSN()
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "loc=UTC")
}

func TestDSNTLSSkipVerify(t *testing.T) {
	cfg := validConfig()
	cfg.Database.TLS.Mode = "skip-verify"

	assert.Contains(t, cfg.Database.DSN(), "tls=skip-verify")
}

func TestEffectiveDatabaseNameFromDSN(t *testing.T) {
	d := DatabaseConfig{ConnectionString: "user:pass@tcp(db:3306)/otherdb"}

	name, err := d.EffectiveDatabaseName()
	require.NoError(t, err)
	assert.Equal(t, "otherdb", name)
}

func TestEffectiveDatabaseNameMismatch(t *testing.T) {
	d := DatabaseConfig{
		ConnectionString: "user:pass@tcp(db:3306)/otherdb",
		Database:         "blogql",
	}

	_, err := d.EffectiveDatabaseName()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestValidateMissingJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = ""

	result := cfg.Validate()
	require.True(t, result.HasErrors())
	assert.Contains(t, result.Error(), "auth.jwt_secret")
}

func TestValidateShortJWTSecretWarns(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "short"

	result := cfg.Validate()
	assert.False(t, result.HasErrors())
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, "auth.jwt_secret", result.Warnings[0].Field)
}

func TestValidateOIDCRequiresIssuerAndClientID(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.OIDCEnabled = true

	result := cfg.Validate()
	require.True(t, result.HasErrors())
	assert.Contains(t, result.Error(), "auth.oidc_issuer_url")
	assert.Contains(t, result.Error(), "auth.oidc_client_id")
}

func TestValidateRateLimitEnabledWithoutValues(t *testing.T) {
	cfg := validConfig()
	cfg.Server.RateLimitEnabled = true

	result := cfg.Validate()
	require.True(t, result.HasErrors())
	assert.Contains(t, result.Error(), "rate_limit_rps")
	assert.Contains(t, result.Error(), "rate_limit_burst")
}

func TestValidateCORSWildcardWithCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Server.CORSEnabled = true
	cfg.Server.CORSAllowedOrigins = []string{"*"}
	cfg.Server.CORSAllowCredentials = true

	result := cfg.Validate()
	require.True(t, result.HasErrors())
	assert.Contains(t, result.Error(), "wildcard")
}

func TestValidateTLSFileModeRequiresFiles(t *testing.T) {
	cfg := validConfig()
	cfg.Server.TLSMode = "file"

	result := cfg.Validate()
	require.True(t, result.HasErrors())
	assert.Contains(t, result.Error(), "server.tls_cert_file")
	assert.Contains(t, result.Error(), "server.tls_key_file")
}

func TestValidateUploadMaxBytes(t *testing.T) {
	cfg := validConfig()
	cfg.Uploads.MaxBytes = 0

	result := cfg.Validate()
	require.True(t, result.HasErrors())
	assert.Contains(t, result.Error(), "uploads.max_bytes")
}

func TestValidateInvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Observability.Logging.Level = "verbose"

	result := cfg.Validate()
	require.True(t, result.HasErrors())
	assert.Contains(t, result.Error(), "observability.logging.level")
}

func TestMergeOTLPConfigsOverrides(t *testing.T) {
	base := OTLPConfig{Endpoint: "localhost:4317", Protocol: "grpc", Timeout: 10 * time.Second}
	override := OTLPConfig{Endpoint: "traces:4317"}

	merged := mergeOTLPConfigs(base, override)
	assert.Equal(t, "traces:4317", merged.Endpoint)
	assert.Equal(t, "grpc", merged.Protocol)
	assert.Equal(t, 10*time.Second, merged.Timeout)
}
