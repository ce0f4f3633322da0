// Package inference evaluates a trained domain classifier against labeled
// batches and reports ranking and classification quality.
package inference

import (
	"github.com/pkg/errors"

	"github.com/gkn1fexxx/clx/datasets"
)

// Classifier scores a slice of domains, returning the predicted class and the
// probability of the benign class per domain, index-aligned with the input.
type Classifier interface {
	Predict(domains []string) (types []int, scores []float64)
}

// Report summarizes one evaluation run.
type Report struct {
	Total            int
	Correct          int
	Accuracy         float64
	AveragePrecision float64
}

// Run classifies every batch in order and scores the predictions against the
// labels. Predictions keep the batch order, so metrics pair each domain with
// its own label no matter how the input was partitioned.
func Run(c Classifier, parts []datasets.Batch) (Report, error) {
	total := datasets.Len(parts)
	if total == 0 {
		return Report{}, errors.New("no records to classify")
	}

	preds := make([]int, 0, total)
	scores := make([]float64, 0, total)
	truth := make([]int, 0, total)
	for _, part := range parts {
		types, probs := c.Predict(part.Domains())
		if len(types) != len(part) || len(probs) != len(part) {
			return Report{}, errors.Errorf("classifier returned %d types and %d scores for %d domains",
				len(types), len(probs), len(part))
		}
		preds = append(preds, types...)
		scores = append(scores, probs...)
		truth = append(truth, part.Types()...)
	}

	var correct int
	for i, p := range preds {
		if p == truth[i] {
			correct++
		}
	}
	return Report{
		Total:            total,
		Correct:          correct,
		Accuracy:         Accuracy(preds, truth),
		AveragePrecision: AveragePrecision(truth, scores, datasets.TypeBenign),
	}, nil
}
