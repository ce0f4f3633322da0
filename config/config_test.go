package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 0.001, cfg.Model.LearningRate)
	assert.Equal(t, 128, cfg.Model.VocabSize)
	assert.Equal(t, 100, cfg.Model.HiddenSize)
	assert.Equal(t, 3, cfg.Model.Layers)
	assert.Equal(t, 2, cfg.Model.Classes)
	assert.Equal(t, 0.7, cfg.Data.TrainSplit)
	assert.Equal(t, 25, cfg.Train.Epochs)
	assert.Equal(t, 10000, cfg.Train.BatchSize)
	assert.Equal(t, "trained_models", cfg.Train.ModelDir)
	assert.Equal(t, TransportFS, cfg.Workflow.Source.Type)
	assert.Equal(t, "cyber-dp", cfg.Workflow.Source.GroupID)
	assert.Equal(t, []string{"input"}, cfg.Workflow.Source.ConsumerTopics)
	assert.Equal(t, "cyber-enriched-data", cfg.Workflow.Destination.PublisherTopic)
	assert.Equal(t, ",", cfg.Workflow.Destination.OutputDelimiter)
	assert.Equal(t, 5*time.Second, cfg.Workflow.Source.Window())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model:
  hidden_size: 64
  layers: 2
train:
  epochs: 5
  model_dir: out/models
workflow:
  source:
    type: kafka
    kafka_brokers: [broker-1:9092, broker-2:9092]
    time_window: 30
  destination:
    type: kafka
    output_delimiter: "|"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// File values win, defaults fill the rest.
	assert.Equal(t, 64, cfg.Model.HiddenSize)
	assert.Equal(t, 2, cfg.Model.Layers)
	assert.Equal(t, 128, cfg.Model.VocabSize)
	assert.Equal(t, 5, cfg.Train.Epochs)
	assert.Equal(t, "out/models", cfg.Train.ModelDir)
	assert.Equal(t, TransportKafka, cfg.Workflow.Source.Type)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Workflow.Source.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.Workflow.Source.Window())
	assert.Equal(t, "|", cfg.Workflow.Destination.OutputDelimiter)
	// Destination brokers inherit the source's when unset.
	assert.Equal(t, cfg.Workflow.Source.KafkaBrokers, cfg.Workflow.Destination.KafkaBrokers)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CLX_DB_PATH", "/var/lib/clx/domains.db")
	t.Setenv("CLX_MODEL_DIR", "/var/lib/clx/models")
	t.Setenv("CLX_KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/clx/domains.db", cfg.Data.DBPath)
	assert.Equal(t, "/var/lib/clx/models", cfg.Train.ModelDir)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Workflow.Source.KafkaBrokers)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Workflow.Destination.KafkaBrokers)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"bad split":     "data:\n  train_split: 1.5\n",
		"bad transport": "workflow:\n  source:\n    type: carrier-pigeon\n",
		"bad rate":      "model:\n  learning_rate: -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
