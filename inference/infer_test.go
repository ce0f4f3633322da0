package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkn1fexxx/clx/datasets"
)

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 1.0, Accuracy([]int{1, 0, 1}, []int{1, 0, 1}))
	assert.Equal(t, 0.0, Accuracy([]int{0, 1}, []int{1, 0}))
	assert.InDelta(t, 2.0/3.0, Accuracy([]int{1, 0, 0}, []int{1, 0, 1}), 1e-12)
	assert.Equal(t, 0.0, Accuracy(nil, nil))
}

func TestAveragePrecision(t *testing.T) {
	cases := []struct {
		name   string
		truth  []int
		scores []float64
		want   float64
	}{
		{
			name:   "interleaved",
			truth:  []int{1, 0, 1},
			scores: []float64{0.9, 0.8, 0.7},
			want:   5.0 / 6.0,
		},
		{
			name:   "perfect ranking",
			truth:  []int{1, 1, 0, 0},
			scores: []float64{0.9, 0.8, 0.2, 0.1},
			want:   1.0,
		},
		{
			name:   "worst ranking",
			truth:  []int{0, 0, 1},
			scores: []float64{0.9, 0.8, 0.1},
			want:   1.0 / 3.0,
		},
		{
			name:   "tied scores fall under one threshold",
			truth:  []int{1, 0, 1},
			scores: []float64{0.9, 0.9, 0.8},
			want:   0.25 + 1.0/3.0,
		},
		{
			name:   "no positives",
			truth:  []int{0, 0, 0},
			scores: []float64{0.9, 0.8, 0.7},
			want:   0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AveragePrecision(tc.truth, tc.scores, 1)
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}
}

// fakeClassifier answers from fixed per-domain tables.
type fakeClassifier struct {
	types  map[string]int
	scores map[string]float64
}

func (f fakeClassifier) Predict(domains []string) ([]int, []float64) {
	types := make([]int, len(domains))
	scores := make([]float64, len(domains))
	for i, d := range domains {
		types[i] = f.types[d]
		scores[i] = f.scores[d]
	}
	return types, scores
}

// brokenClassifier drops one answer.
type brokenClassifier struct{}

func (brokenClassifier) Predict(domains []string) ([]int, []float64) {
	return make([]int, len(domains)-1), make([]float64, len(domains)-1)
}

func TestRunScoresAcrossBatches(t *testing.T) {
	recs := []datasets.Record{
		{Domain: "aaa.com", Type: datasets.TypeBenign},
		{Domain: "xqz.net", Type: datasets.TypeDGA},
		{Domain: "bbb.com", Type: datasets.TypeBenign},
		{Domain: "wvu.biz", Type: datasets.TypeDGA},
		{Domain: "ccc.com", Type: datasets.TypeBenign},
	}
	c := fakeClassifier{
		types: map[string]int{
			"aaa.com": datasets.TypeBenign,
			"xqz.net": datasets.TypeDGA,
			"bbb.com": datasets.TypeDGA, // wrong
			"wvu.biz": datasets.TypeDGA,
			"ccc.com": datasets.TypeBenign,
		},
		scores: map[string]float64{
			"aaa.com": 0.9,
			"xqz.net": 0.1,
			"bbb.com": 0.4,
			"wvu.biz": 0.2,
			"ccc.com": 0.8,
		},
	}

	report, err := Run(c, datasets.Partition(recs, 2))
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 4, report.Correct)
	assert.InDelta(t, 0.8, report.Accuracy, 1e-12)
	// Benign domains hold the top scores, so ranking is perfect even though
	// one classification is wrong.
	assert.InDelta(t, 1.0, report.AveragePrecision, 1e-12)
}

// Splitting the input differently must not change the aggregate metrics.
func TestRunIndependentOfPartitioning(t *testing.T) {
	var recs []datasets.Record
	c := fakeClassifier{types: map[string]int{}, scores: map[string]float64{}}
	for i := 0; i < 17; i++ {
		d := string(rune('a'+i)) + ".example.com"
		typ := i % 2
		recs = append(recs, datasets.Record{Domain: d, Type: typ})
		c.types[d] = (i / 3) % 2 // an arbitrary mix of hits and misses
		c.scores[d] = float64(i) / 17
	}

	coarse, err := Run(c, datasets.Partition(recs, 17))
	require.NoError(t, err)
	fine, err := Run(c, datasets.Partition(recs, 3))
	require.NoError(t, err)

	assert.Equal(t, coarse, fine)
}

func TestRunEmpty(t *testing.T) {
	_, err := Run(fakeClassifier{}, nil)
	assert.Error(t, err)
}

func TestRunRejectsMisalignedClassifier(t *testing.T) {
	recs := []datasets.Record{
		{Domain: "a.com", Type: 0},
		{Domain: "b.com", Type: 1},
	}
	_, err := Run(brokenClassifier{}, datasets.Partition(recs, 2))
	assert.Error(t, err)
}
