// Package gru implements a stacked gated recurrent unit network over symbol
// sequences, with full backpropagation through time and Adam updates. All
// math is plain float64 on the CPU.
package gru

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Config holds the network dimensions. The embedding width equals the hidden
// width, so every layer sees an input of HiddenSize values.
type Config struct {
	VocabSize  int   // distinct input symbols
	HiddenSize int   // hidden units per layer, also the embedding width
	Layers     int   // stacked GRU layers
	Classes    int   // output classes
	Seed       int64 // weight initialization seed
}

// Validate reports the first nonsensical dimension.
func (c Config) Validate() error {
	switch {
	case c.VocabSize < 1:
		return errors.Errorf("vocab size %d, need at least 1", c.VocabSize)
	case c.HiddenSize < 1:
		return errors.Errorf("hidden size %d, need at least 1", c.HiddenSize)
	case c.Layers < 1:
		return errors.Errorf("layer count %d, need at least 1", c.Layers)
	case c.Classes < 2:
		return errors.Errorf("class count %d, need at least 2", c.Classes)
	}
	return nil
}

// Layer holds the gate parameters of one GRU layer: W* weigh the layer input,
// U* weigh the previous hidden state, with one bias vector each.
type Layer struct {
	Wr  Mat       `json:"wr"`
	Wz  Mat       `json:"wz"`
	Wn  Mat       `json:"wn"`
	Ur  Mat       `json:"ur"`
	Uz  Mat       `json:"uz"`
	Un  Mat       `json:"un"`
	Bwr []float64 `json:"bwr"`
	Bwz []float64 `json:"bwz"`
	Bwn []float64 `json:"bwn"`
	Bur []float64 `json:"bur"`
	Buz []float64 `json:"buz"`
	Bun []float64 `json:"bun"`
}

// Network is the full parameter set: symbol embedding, stacked GRU layers and
// a linear head over the final hidden state.
type Network struct {
	VocabSize  int       `json:"vocab_size"`
	HiddenSize int       `json:"hidden_size"`
	Classes    int       `json:"classes"`
	Embed      Mat       `json:"embed"` // VocabSize x HiddenSize
	Layers     []Layer   `json:"layers"`
	Wout       Mat       `json:"wout"` // Classes x HiddenSize
	Bout       []float64 `json:"bout"`
}

// New builds a network with uniform weights in ±1/sqrt(HiddenSize), the same
// scaling for every gate and the head.
func New(cfg Config) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := &Network{
		VocabSize:  cfg.VocabSize,
		HiddenSize: cfg.HiddenSize,
		Classes:    cfg.Classes,
		Embed:      newMat(cfg.VocabSize, cfg.HiddenSize),
		Layers:     make([]Layer, cfg.Layers),
		Wout:       newMat(cfg.Classes, cfg.HiddenSize),
		Bout:       make([]float64, cfg.Classes),
	}
	h := cfg.HiddenSize
	for l := range n.Layers {
		n.Layers[l] = Layer{
			Wr: newMat(h, h), Wz: newMat(h, h), Wn: newMat(h, h),
			Ur: newMat(h, h), Uz: newMat(h, h), Un: newMat(h, h),
			Bwr: make([]float64, h), Bwz: make([]float64, h), Bwn: make([]float64, h),
			Bur: make([]float64, h), Buz: make([]float64, h), Bun: make([]float64, h),
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	scale := 1 / math.Sqrt(float64(h))
	for _, t := range n.tensors() {
		for i := range t {
			t[i] = (rng.Float64()*2 - 1) * scale
		}
	}
	return n, nil
}

// ZeroLike returns a network of the same shape with all values zero, used for
// gradient accumulators and optimizer moments.
func (n *Network) ZeroLike() *Network {
	z := &Network{
		VocabSize:  n.VocabSize,
		HiddenSize: n.HiddenSize,
		Classes:    n.Classes,
		Embed:      newMat(n.Embed.Rows, n.Embed.Cols),
		Layers:     make([]Layer, len(n.Layers)),
		Wout:       newMat(n.Wout.Rows, n.Wout.Cols),
		Bout:       make([]float64, len(n.Bout)),
	}
	h := n.HiddenSize
	for l := range z.Layers {
		z.Layers[l] = Layer{
			Wr: newMat(h, h), Wz: newMat(h, h), Wn: newMat(h, h),
			Ur: newMat(h, h), Uz: newMat(h, h), Un: newMat(h, h),
			Bwr: make([]float64, h), Bwz: make([]float64, h), Bwn: make([]float64, h),
			Bur: make([]float64, h), Buz: make([]float64, h), Bun: make([]float64, h),
		}
	}
	return z
}

// Zero resets every value in place.
func (n *Network) Zero() {
	for _, t := range n.tensors() {
		for i := range t {
			t[i] = 0
		}
	}
}

// Scale multiplies every value by s, used to turn summed gradients into batch
// means.
func (n *Network) Scale(s float64) {
	for _, t := range n.tensors() {
		for i := range t {
			t[i] *= s
		}
	}
}

// tensors returns every parameter slice in a fixed order. The optimizer and
// the initializer walk networks of identical shape in lockstep through this.
func (n *Network) tensors() [][]float64 {
	out := make([][]float64, 0, 2+12*len(n.Layers)+2)
	out = append(out, n.Embed.Data)
	for l := range n.Layers {
		ly := &n.Layers[l]
		out = append(out,
			ly.Wr.Data, ly.Wz.Data, ly.Wn.Data,
			ly.Ur.Data, ly.Uz.Data, ly.Un.Data,
			ly.Bwr, ly.Bwz, ly.Bwn,
			ly.Bur, ly.Buz, ly.Bun)
	}
	out = append(out, n.Wout.Data, n.Bout)
	return out
}
