package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/loan-approval/internal/infrastructure/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTPAddress())
	assert.Equal(t, ":9000", cfg.GRPCAddress())
	assert.True(t, cfg.GRPCEnabled())
	assert.Equal(t, 0.35, cfg.Model.DecisionThreshold)
	assert.Equal(t, int64(42), cfg.Training.Seed)
	assert.Equal(t, 0.2, cfg.Training.TestFraction)
	assert.Equal(t, 2000, cfg.Training.MaxIter)
	assert.Equal(t, config.DatasetSourceCSV, cfg.Training.DatasetSource)
	assert.Equal(t, config.LedgerNone, cfg.Ledger.Kind)
	assert.False(t, cfg.Auth.Enabled())
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "approval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_port: "8100"
  grpc_port: "0"
model:
  artifact_path: /srv/models/loan.json
  decision_threshold: 0.4
kafka:
  brokers: [kafka-1:9092]
training:
  seed: 7
`), 0o600))

	t.Setenv("DECISION_THRESHOLD", "0.3")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8100", cfg.HTTPAddress(), "file overrides defaults")
	assert.False(t, cfg.GRPCEnabled())
	assert.Equal(t, "/srv/models/loan.json", cfg.Model.ArtifactPath)
	assert.Equal(t, int64(7), cfg.Training.Seed)
	assert.Equal(t, 0.2, cfg.Training.TestFraction, "unset keys keep defaults")
	assert.Equal(t, 0.3, cfg.Model.DecisionThreshold, "env overrides file")
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Auth.Enabled())
}

func TestLoad_ConfigFileFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: staging\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "threshold above range", env: map[string]string{"DECISION_THRESHOLD": "1"}},
		{name: "threshold not a number", env: map[string]string{"DECISION_THRESHOLD": "high"}},
		{name: "test fraction zero", env: map[string]string{"TEST_FRACTION": "0"}},
		{name: "unknown dataset source", env: map[string]string{"DATASET_SOURCE": "s3"}},
		{name: "postgres source without url", env: map[string]string{"DATASET_SOURCE": "postgres", "DATABASE_URL": ""}},
		{name: "unknown ledger", env: map[string]string{"RUN_LEDGER": "redis"}},
		{name: "cert without key", env: map[string]string{"GRPC_TLS_CERT_FILE": "cert.pem", "GRPC_TLS_KEY_FILE": ""}},
		{name: "bad bool", env: map[string]string{"GRPC_REFLECTION": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load("")
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
