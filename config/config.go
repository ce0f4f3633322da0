// Package config loads the tool configuration from YAML with environment
// overrides. Every field has a default, so an empty config is runnable.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Transport names accepted for workflow sources and destinations.
const (
	TransportFS    = "fs"
	TransportKafka = "kafka"
)

// Config is the root of the YAML file.
type Config struct {
	Model    Model    `yaml:"model"`
	Data     Data     `yaml:"data"`
	Train    Train    `yaml:"train"`
	Workflow Workflow `yaml:"workflow"`
}

// Model holds the network hyperparameters.
type Model struct {
	LearningRate float64 `yaml:"learning_rate"`
	VocabSize    int     `yaml:"vocab_size"`
	HiddenSize   int     `yaml:"hidden_size"`
	Layers       int     `yaml:"layers"`
	Classes      int     `yaml:"classes"`
	Seed         int64   `yaml:"seed"`
}

// Data describes where domains come from and how they are split.
type Data struct {
	DBPath        string  `yaml:"db_path"`
	DGAFeedURL    string  `yaml:"dga_feed_url"`
	BenignFeedURL string  `yaml:"benign_feed_url"`
	TrainSplit    float64 `yaml:"train_split"`
}

// Train holds the epoch loop settings.
type Train struct {
	Epochs    int    `yaml:"epochs"`
	BatchSize int    `yaml:"batch_size"`
	ModelDir  string `yaml:"model_dir"`
}

// Workflow wires a streaming source to a destination.
type Workflow struct {
	Source      Source      `yaml:"source"`
	Destination Destination `yaml:"destination"`
}

// Source configures where the workflow reads domains from.
type Source struct {
	Type           string   `yaml:"type"`
	Path           string   `yaml:"path"`
	KafkaBrokers   []string `yaml:"kafka_brokers"`
	GroupID        string   `yaml:"group_id"`
	ConsumerTopics []string `yaml:"consumer_kafka_topics"`
	BatchSize      int      `yaml:"batch_size"`
	TimeWindowSec  int      `yaml:"time_window"`
}

// Window returns the batching window as a duration.
func (s Source) Window() time.Duration {
	return time.Duration(s.TimeWindowSec) * time.Second
}

// Destination configures where enriched records go.
type Destination struct {
	Type            string   `yaml:"type"`
	Path            string   `yaml:"path"`
	KafkaBrokers    []string `yaml:"kafka_brokers"`
	PublisherTopic  string   `yaml:"publisher_kafka_topic"`
	OutputDelimiter string   `yaml:"output_delimiter"`
}

// SetDefaults fills every unset field.
func (c *Config) SetDefaults() {
	c.Model.SetDefaults()
	c.Data.SetDefaults()
	c.Train.SetDefaults()
	c.Workflow.SetDefaults()
}

func (m *Model) SetDefaults() {
	if m.LearningRate == 0 {
		m.LearningRate = 0.001
	}
	if m.VocabSize == 0 {
		m.VocabSize = 128
	}
	if m.HiddenSize == 0 {
		m.HiddenSize = 100
	}
	if m.Layers == 0 {
		m.Layers = 3
	}
	if m.Classes == 0 {
		m.Classes = 2
	}
	if m.Seed == 0 {
		m.Seed = 1
	}
}

func (d *Data) SetDefaults() {
	if d.DBPath == "" {
		d.DBPath = "domains.db"
	}
	if d.DGAFeedURL == "" {
		d.DGAFeedURL = "http://osint.bambenekconsulting.com/feeds/dga-feed.txt"
	}
	if d.BenignFeedURL == "" {
		d.BenignFeedURL = "http://s3.amazonaws.com/alexa-static/top-1m.csv.zip"
	}
	if d.TrainSplit == 0 {
		d.TrainSplit = 0.7
	}
}

func (t *Train) SetDefaults() {
	if t.Epochs == 0 {
		t.Epochs = 25
	}
	if t.BatchSize == 0 {
		t.BatchSize = 10000
	}
	if t.ModelDir == "" {
		t.ModelDir = "trained_models"
	}
}

func (w *Workflow) SetDefaults() {
	if w.Source.Type == "" {
		w.Source.Type = TransportFS
	}
	if len(w.Source.KafkaBrokers) == 0 {
		w.Source.KafkaBrokers = []string{"localhost:9092"}
	}
	if w.Source.GroupID == "" {
		w.Source.GroupID = "cyber-dp"
	}
	if len(w.Source.ConsumerTopics) == 0 {
		w.Source.ConsumerTopics = []string{"input"}
	}
	if w.Source.BatchSize == 0 {
		w.Source.BatchSize = 1000
	}
	if w.Source.TimeWindowSec == 0 {
		w.Source.TimeWindowSec = 5
	}
	if w.Destination.Type == "" {
		w.Destination.Type = TransportFS
	}
	if len(w.Destination.KafkaBrokers) == 0 {
		w.Destination.KafkaBrokers = w.Source.KafkaBrokers
	}
	if w.Destination.PublisherTopic == "" {
		w.Destination.PublisherTopic = "cyber-enriched-data"
	}
	if w.Destination.OutputDelimiter == "" {
		w.Destination.OutputDelimiter = ","
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Model.LearningRate <= 0:
		return errors.Errorf("learning rate %v, need > 0", c.Model.LearningRate)
	case c.Model.VocabSize < 1 || c.Model.HiddenSize < 1 || c.Model.Layers < 1:
		return errors.Errorf("model dimensions %d/%d/%d, need all >= 1",
			c.Model.VocabSize, c.Model.HiddenSize, c.Model.Layers)
	case c.Model.Classes < 2:
		return errors.Errorf("class count %d, need at least 2", c.Model.Classes)
	case c.Data.TrainSplit <= 0 || c.Data.TrainSplit >= 1:
		return errors.Errorf("train split %v, need a fraction between 0 and 1", c.Data.TrainSplit)
	case c.Train.Epochs < 1:
		return errors.Errorf("epoch count %d, need at least 1", c.Train.Epochs)
	case c.Train.BatchSize < 1:
		return errors.Errorf("batch size %d, need at least 1", c.Train.BatchSize)
	}
	if err := validTransport(c.Workflow.Source.Type); err != nil {
		return errors.Wrap(err, "workflow source")
	}
	if err := validTransport(c.Workflow.Destination.Type); err != nil {
		return errors.Wrap(err, "workflow destination")
	}
	return nil
}

func validTransport(typ string) error {
	if typ != TransportFS && typ != TransportKafka {
		return errors.Errorf("transport %q, want %q or %q", typ, TransportFS, TransportKafka)
	}
	return nil
}

// Load reads the config at path, or the defaults when path is empty. A .env
// file in the working directory is honored, and a handful of CLX_* variables
// override the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing config %s", path)
		}
	}
	cfg.SetDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CLX_DB_PATH"); v != "" {
		c.Data.DBPath = v
	}
	if v := os.Getenv("CLX_MODEL_DIR"); v != "" {
		c.Train.ModelDir = v
	}
	if v := os.Getenv("CLX_DGA_FEED_URL"); v != "" {
		c.Data.DGAFeedURL = v
	}
	if v := os.Getenv("CLX_BENIGN_FEED_URL"); v != "" {
		c.Data.BenignFeedURL = v
	}
	if v := os.Getenv("CLX_KAFKA_BROKERS"); v != "" {
		brokers := strings.Split(v, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		c.Workflow.Source.KafkaBrokers = brokers
		c.Workflow.Destination.KafkaBrokers = brokers
	}
}
