// Package trainer runs the epoch loop for a classifier and keeps exactly one
// checkpoint on disk: the weights of the best-scoring epoch seen so far.
package trainer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/gkn1fexxx/clx/datasets"
)

// checkpoint files are named rnn_classifier_<timestamp>.json.zlib
const (
	checkpointPrefix = "rnn_classifier_"
	checkpointSuffix = ".json.zlib"
	timestampLayout  = "2006-01-02_15_04_05"
)

// ErrNoCheckpoint is returned when no epoch scored above zero, so nothing was
// worth keeping.
var ErrNoCheckpoint = errors.New("accuracy never rose above zero, no checkpoint written")

// Model is what the loop drives: one training pass and one evaluation per
// epoch, plus the ability to store its weights.
type Model interface {
	TrainPass(parts []datasets.Batch) error
	Evaluate(parts []datasets.Batch) (float64, error)
	WriteZlibWeightsToFile(path string) error
}

// Best describes the checkpoint that survived training.
type Best struct {
	Path     string  // weights file of the best epoch
	Accuracy float64 // its evaluation accuracy
	Epoch    int     // 1-based epoch that produced it
}

// CheckpointPath returns the checkpoint file name for a model saved at ts.
func CheckpointPath(dir string, ts time.Time) string {
	return filepath.Join(dir, checkpointPrefix+ts.Format(timestampLayout)+checkpointSuffix)
}

// TrainAndEval trains the model for the given number of epochs, evaluating
// after each pass. Whenever an epoch strictly beats the best accuracy so far
// the weights are written to a fresh timestamped file under modelDir and the
// previous checkpoint is deleted, new file first, so a crash between the two
// steps leaves a usable checkpoint behind. Ties keep the earlier epoch. If no
// epoch ever scores above zero, no file is written and ErrNoCheckpoint is
// returned.
func TrainAndEval(m Model, train, test []datasets.Batch, epochs int, modelDir string) (Best, error) {
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return Best{}, errors.Wrapf(err, "creating model dir %s", modelDir)
	}

	var best Best
	for epoch := 1; epoch <= epochs; epoch++ {
		if err := m.TrainPass(train); err != nil {
			return Best{}, errors.Wrapf(err, "train epoch %d", epoch)
		}
		accuracy, err := m.Evaluate(test)
		if err != nil {
			return Best{}, errors.Wrapf(err, "evaluate epoch %d", epoch)
		}
		if accuracy <= best.Accuracy {
			continue
		}

		path := CheckpointPath(modelDir, time.Now())
		if err := m.WriteZlibWeightsToFile(path); err != nil {
			return Best{}, errors.Wrapf(err, "saving checkpoint for epoch %d", epoch)
		}
		if best.Path != "" && best.Path != path {
			if err := os.Remove(best.Path); err != nil && !os.IsNotExist(err) {
				return Best{}, errors.Wrapf(err, "removing stale checkpoint %s", best.Path)
			}
		}
		best = Best{Path: path, Accuracy: accuracy, Epoch: epoch}
		fmt.Printf("Epoch %d improved accuracy to %v, checkpoint %s\n", epoch, accuracy, path)
	}

	if best.Path == "" {
		return Best{}, ErrNoCheckpoint
	}
	fmt.Printf("Best epoch %d with accuracy %v, kept %s\n", best.Epoch, best.Accuracy, best.Path)
	return best, nil
}
