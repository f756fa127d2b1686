package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProviderEnv_Defaults(t *testing.T) {
	t.Setenv("CLOUDCONDUCTOR_SSH_KEY_PATH", "/home/user/.ssh/id_rsa")
	t.Setenv("CLOUDCONDUCTOR_SERVICE_ACCOUNT", "pipeline@project.iam.gserviceaccount.com")

	cfg, err := LoadProviderEnv()
	require.NoError(t, err)
	assert.Equal(t, "cloudconductor", cfg.SSHUser)
	assert.Equal(t, "us-central1-a", cfg.DefaultZone)
	assert.True(t, cfg.Preemptible)
}

func TestLoadProviderEnv_MissingRequiredFails(t *testing.T) {
	t.Setenv("CLOUDCONDUCTOR_SSH_KEY_PATH", "")
	t.Setenv("CLOUDCONDUCTOR_SERVICE_ACCOUNT", "")

	_, err := LoadProviderEnv()
	require.Error(t, err)
}
