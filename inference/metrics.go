package inference

import "sort"

// Accuracy returns the fraction of predictions equal to the label. Slices
// must be index-aligned; an empty input scores zero.
func Accuracy(pred, truth []int) float64 {
	if len(truth) == 0 {
		return 0
	}
	var correct int
	for i, p := range pred {
		if p == truth[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(truth))
}

// AveragePrecision summarizes the precision-recall curve as the weighted mean
// of precisions at each score threshold, weighted by the recall gained there.
// Tied scores fall under one threshold. No positive labels scores zero.
func AveragePrecision(truth []int, scores []float64, positive int) float64 {
	var positives int
	for _, t := range truth {
		if t == positive {
			positives++
		}
	}
	if positives == 0 {
		return 0
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	var ap, prevRecall float64
	var tp, fp int
	for i := 0; i < len(order); {
		// Consume the whole run of equal scores before measuring.
		j := i
		for j < len(order) && scores[order[j]] == scores[order[i]] {
			if truth[order[j]] == positive {
				tp++
			} else {
				fp++
			}
			j++
		}
		precision := float64(tp) / float64(tp+fp)
		recall := float64(tp) / float64(positives)
		ap += (recall - prevRecall) * precision
		prevRecall = recall
		i = j
	}
	return ap
}
