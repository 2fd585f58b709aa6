package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
log_level = "${MEDIATOR_TEST_LOG_LEVEL:info}"
listen_address = "0.0.0.0:8080"
mediator_did = "did:peer:mediator"
mediator_key_id = "did:peer:mediator#key-1"
mediator_secrets = "file:///etc/mediator/secrets.json"

[security]
use_ssl = false
jwt_authorization_secret = "string://dGVzdA=="

[database]
database_url = "postgres://localhost/mediator"
max_message_size = 65536
max_queued_messages = 100
message_expiry_minutes = 10
max_listed_messages = 50
max_deleted_messages = 20

[streaming]
enabled = true
uuid = "hostname://"
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesEnvSubstitutionAndDefaults(t *testing.T) {
	path := writeTempConfig(t, sampleTOML)

	cfg, err := Load(LoaderOptions{Path: path})
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "did:peer:mediator", cfg.MediatorDID)
	assert.Equal(t, 65536, cfg.Database.MaxMessageSize)
	// Defaults not overridden by the sample file survive.
	assert.Equal(t, "/mediator/v1/", cfg.Server.APIPrefix)
}

func TestLoadEnvSubstitutionOverridesDefault(t *testing.T) {
	path := writeTempConfig(t, sampleTOML)
	t.Setenv("MEDIATOR_TEST_LOG_LEVEL", "debug")

	cfg, err := Load(LoaderOptions{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidateRejectsMissingRequiredFields(t *testing.T) {
	cfg := Defaults()
	err := Validate(cfg)
	assert.Error(t, err)

	cfg.MediatorDID = "did:peer:mediator"
	cfg.MediatorKeyID = "did:peer:mediator#key-1"
	cfg.MediatorSecrets = "file:///secrets.json"
	cfg.Security.JWTAuthorizationSecret = "string://x"
	assert.NoError(t, Validate(cfg))
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(LoaderOptions{Path: "/no/such/config.toml"})
	assert.Error(t, err)
}
