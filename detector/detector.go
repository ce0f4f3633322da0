// Package detector trains and applies a GRU classifier that separates
// machine-generated domain names from benign ones by reading them as raw
// byte sequences.
package detector

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"

	"github.com/gkn1fexxx/clx/datasets"
	"github.com/gkn1fexxx/clx/gru"
)

// Config bundles the model hyperparameters.
type Config struct {
	LearningRate float64 // Adam step size
	VocabSize    int     // distinct byte symbols the embedding covers
	HiddenSize   int     // GRU hidden width
	Layers       int     // stacked GRU layers
	Classes      int     // output classes
	Seed         int64   // weight initialization seed
}

// DefaultConfig returns the hyperparameters the detector ships with.
func DefaultConfig() Config {
	return Config{
		LearningRate: 0.001,
		VocabSize:    128,
		HiddenSize:   100,
		Layers:       3,
		Classes:      2,
		Seed:         1,
	}
}

// Detector wraps a GRU network with domain encoding, the training loop state
// and the optimizer.
type Detector struct {
	cfg   Config
	net   *gru.Network
	epoch int

	// training state, allocated on first TrainPass and dropped by Free
	grads *gru.Network
	opt   *gru.Adam
	freed bool
}

// New creates an untrained detector.
func New(cfg Config) (*Detector, error) {
	net, err := gru.New(gru.Config{
		VocabSize:  cfg.VocabSize,
		HiddenSize: cfg.HiddenSize,
		Layers:     cfg.Layers,
		Classes:    cfg.Classes,
		Seed:       cfg.Seed,
	})
	if err != nil {
		return nil, errors.Wrap(err, "building network")
	}
	return &Detector{cfg: cfg, net: net}, nil
}

// Load restores a detector from a stored weights file. The network
// dimensions come from the file; cfg supplies the training knobs in case the
// detector is trained further.
func Load(path string, cfg Config) (*Detector, error) {
	net, err := gru.ReadZlibWeightsFromFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading detector from %s", path)
	}
	cfg.VocabSize = net.VocabSize
	cfg.HiddenSize = net.HiddenSize
	cfg.Classes = net.Classes
	cfg.Layers = len(net.Layers)
	return &Detector{cfg: cfg, net: net}, nil
}

// encode turns a domain into the byte sequence the network consumes.
func encode(domain string) []int {
	seq := make([]int, len(domain))
	for i := 0; i < len(domain); i++ {
		seq[i] = int(domain[i])
	}
	return seq
}

// TrainPass runs one epoch over the batches: per batch it accumulates
// gradients across all records, averages them and applies one Adam step.
// Progress goes to stdout per batch with the running mean loss.
func (d *Detector) TrainPass(parts []datasets.Batch) error {
	if d.freed {
		return errors.New("detector has been freed")
	}
	if d.grads == nil {
		d.grads = d.net.ZeroLike()
		d.opt = gru.NewAdam(d.net, d.cfg.LearningRate)
	}
	d.epoch++

	total := datasets.Len(parts)
	var seen int
	var lossSum float64
	for _, part := range parts {
		if len(part) == 0 {
			continue
		}
		d.grads.Zero()
		for _, rec := range part {
			if rec.Type < 0 || rec.Type >= d.cfg.Classes {
				return errors.Errorf("record %q has class %d, detector has %d classes",
					rec.Domain, rec.Type, d.cfg.Classes)
			}
			lossSum += d.net.Backprop(encode(rec.Domain), rec.Type, d.grads)
		}
		d.grads.Scale(1 / float64(len(part)))
		d.opt.Step(d.net, d.grads)

		seen += len(part)
		fmt.Printf("Train Epoch: %d [%d/%d (%.0f%%)]\tLoss: %f\n",
			d.epoch, seen, total, 100*float64(seen)/float64(total), lossSum/float64(seen))
	}
	return nil
}

// Evaluate scores the batches and returns the fraction of records whose
// predicted class matches the label.
func (d *Detector) Evaluate(parts []datasets.Batch) (float64, error) {
	var correct, total int
	for _, part := range parts {
		types, _ := d.predictBatch(part.Domains())
		for i, rec := range part {
			if types[i] == rec.Type {
				correct++
			}
		}
		total += len(part)
	}
	if total == 0 {
		return 0, errors.New("no evaluation records")
	}
	accuracy := float64(correct) / float64(total)
	fmt.Printf("Test set: Accuracy: %d/%d (%v)\n", correct, total, accuracy)
	return accuracy, nil
}

// Predict classifies domains, returning the predicted class per domain and
// the probability that the domain is benign.
func (d *Detector) Predict(domains []string) (types []int, scores []float64) {
	return d.predictBatch(domains)
}

func (d *Detector) predictBatch(domains []string) ([]int, []float64) {
	types := make([]int, len(domains))
	scores := make([]float64, len(domains))
	for i, domain := range domains {
		probs := d.net.Predict(encode(domain))
		best := 0
		for c := 1; c < len(probs); c++ {
			if probs[c] > probs[best] {
				best = c
			}
		}
		types[i] = best
		scores[i] = probs[datasets.TypeBenign]
	}
	return types, scores
}

// WriteZlibWeightsToFile stores the current network weights at path.
func (d *Detector) WriteZlibWeightsToFile(path string) error {
	return d.net.WriteZlibWeightsToFile(path)
}

// Epoch returns how many training passes have run.
func (d *Detector) Epoch() int {
	return d.epoch
}

// Free drops the gradient and optimizer buffers and nudges the collector.
// The detector still classifies afterwards but cannot train again.
func (d *Detector) Free() {
	if d.opt != nil {
		d.opt.Free()
	}
	d.grads = nil
	d.opt = nil
	d.freed = true
	runtime.GC()
}
