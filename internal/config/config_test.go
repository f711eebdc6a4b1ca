package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "POSTGRES_WRITE_HOST=db.internal\n" +
		"DEFAULT_VIEWING_USER_ID=treasurer-1\n" +
		"INTEREST_DIVISOR_POLICY=joined-before\n" +
		"BULK_CHUNK_SIZE=50\n" +
		"QUEUE_POLL_INTERVAL=2s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"POSTGRES_WRITE_HOST", "DEFAULT_VIEWING_USER_ID", "INTEREST_DIVISOR_POLICY", "BULK_CHUNK_SIZE", "QUEUE_POLL_INTERVAL"} {
			os.Unsetenv(k)
		}
	})

	require.NoError(t, Load(path))
	c := Get()

	assert.Equal(t, "db.internal", c.PostgresWrite().Host)
	assert.Equal(t, "treasurer-1", c.DefaultViewingUserID)
	assert.Equal(t, "joined-before", c.InterestDivisorPolicy)
	assert.Equal(t, 50, c.BulkChunkSize)
	assert.Equal(t, 2*time.Second, c.QueuePollInterval)
}

func TestLoad_MissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestSet_Normalizes(t *testing.T) {
	Set(&Config{AppName: "yuva"})
	c := Get()

	assert.Equal(t, DefaultBulkChunkSize, c.BulkChunkSize)
	assert.Equal(t, DefaultInterestDivisorPolicy, c.InterestDivisorPolicy)
	assert.NotEmpty(t, c.QueueConsumerName)
	assert.Equal(t, 1, c.ProcessorWorkers)
}

func TestEnvPathFromArgs(t *testing.T) {
	assert.Equal(t, "local.env", EnvPathFromArgs([]string{"api", "--env=local.env"}))
	assert.Equal(t, "", EnvPathFromArgs([]string{"api"}))
}
