package gru

import (
	"compress/zlib"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

const weightsVersion = 1

type weightsFile struct {
	Version int      `json:"version"`
	Network *Network `json:"network"`
}

// WriteZlibWeights serializes the network as zlib-compressed JSON.
func (n *Network) WriteZlibWeights(w io.Writer) error {
	zw := zlib.NewWriter(w)
	enc := json.NewEncoder(zw)
	if err := enc.Encode(weightsFile{Version: weightsVersion, Network: n}); err != nil {
		zw.Close()
		return errors.Wrap(err, "encoding weights")
	}
	return errors.Wrap(zw.Close(), "flushing weights")
}

// WriteZlibWeightsToFile stores the network at path, creating or truncating
// the file.
func (n *Network) WriteZlibWeightsToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating weights file")
	}
	if err := n.WriteZlibWeights(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "closing weights file")
}

// ReadZlibWeights decodes a network written by WriteZlibWeights and verifies
// its dimensions are consistent.
func ReadZlibWeights(r io.Reader) (*Network, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening compressed weights")
	}
	defer zr.Close()

	var wf weightsFile
	if err := json.NewDecoder(zr).Decode(&wf); err != nil {
		return nil, errors.Wrap(err, "decoding weights")
	}
	if wf.Version != weightsVersion {
		return nil, errors.Errorf("weights version %d, want %d", wf.Version, weightsVersion)
	}
	if wf.Network == nil {
		return nil, errors.New("weights file has no network")
	}
	if err := wf.Network.check(); err != nil {
		return nil, errors.Wrap(err, "validating weights")
	}
	return wf.Network, nil
}

// ReadZlibWeightsFromFile loads a network stored by WriteZlibWeightsToFile.
func ReadZlibWeightsFromFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening weights file")
	}
	defer f.Close()
	return ReadZlibWeights(f)
}

// check verifies that every tensor has the shape the header dimensions imply.
func (n *Network) check() error {
	h := n.HiddenSize
	if n.VocabSize < 1 || h < 1 || n.Classes < 2 || len(n.Layers) < 1 {
		return errors.Errorf("bad dimensions: vocab %d hidden %d classes %d layers %d",
			n.VocabSize, h, n.Classes, len(n.Layers))
	}
	if err := checkMat("embed", n.Embed, n.VocabSize, h); err != nil {
		return err
	}
	for l := range n.Layers {
		ly := &n.Layers[l]
		mats := map[string]Mat{
			"wr": ly.Wr, "wz": ly.Wz, "wn": ly.Wn,
			"ur": ly.Ur, "uz": ly.Uz, "un": ly.Un,
		}
		for name, m := range mats {
			if err := checkMat(name, m, h, h); err != nil {
				return errors.Wrapf(err, "layer %d", l)
			}
		}
		biases := map[string][]float64{
			"bwr": ly.Bwr, "bwz": ly.Bwz, "bwn": ly.Bwn,
			"bur": ly.Bur, "buz": ly.Buz, "bun": ly.Bun,
		}
		for name, b := range biases {
			if len(b) != h {
				return errors.Errorf("layer %d: bias %s has %d values, want %d", l, name, len(b), h)
			}
		}
	}
	if err := checkMat("wout", n.Wout, n.Classes, h); err != nil {
		return err
	}
	if len(n.Bout) != n.Classes {
		return errors.Errorf("bout has %d values, want %d", len(n.Bout), n.Classes)
	}
	return nil
}

func checkMat(name string, m Mat, rows, cols int) error {
	if m.Rows != rows || m.Cols != cols || len(m.Data) != rows*cols {
		return errors.Errorf("matrix %s is %dx%d with %d values, want %dx%d",
			name, m.Rows, m.Cols, len(m.Data), rows, cols)
	}
	return nil
}
