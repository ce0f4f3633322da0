package gru

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{VocabSize: 8, HiddenSize: 5, Layers: 2, Classes: 2, Seed: 42}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, testConfig().Validate())

	bad := []Config{
		{VocabSize: 0, HiddenSize: 5, Layers: 1, Classes: 2},
		{VocabSize: 8, HiddenSize: 0, Layers: 1, Classes: 2},
		{VocabSize: 8, HiddenSize: 5, Layers: 0, Classes: 2},
		{VocabSize: 8, HiddenSize: 5, Layers: 1, Classes: 1},
	}
	for _, cfg := range bad {
		assert.Error(t, cfg.Validate())
	}
}

func TestNewIsDeterministic(t *testing.T) {
	a, err := New(testConfig())
	require.NoError(t, err)
	b, err := New(testConfig())
	require.NoError(t, err)

	seq := []int{1, 4, 2, 7, 3}
	assert.Equal(t, a.Predict(seq), b.Predict(seq))
}

func TestPredictIsDistribution(t *testing.T) {
	net, err := New(testConfig())
	require.NoError(t, err)

	for _, seq := range [][]int{{}, {0}, {1, 2, 3}, {200, -5, 7}} {
		probs := net.Predict(seq)
		require.Len(t, probs, 2)
		var sum float64
		for _, p := range probs {
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
	}
}

func TestSymbolFolding(t *testing.T) {
	net, err := New(testConfig())
	require.NoError(t, err)

	// 9 folds to 1 and -3 to 3, so these sequences hit the same embeddings.
	assert.Equal(t, net.Predict([]int{1, 3}), net.Predict([]int{9, -3}))
}

// TestBackpropMatchesFiniteDifferences sweeps every parameter and compares
// the analytic gradient against a central difference of the loss.
func TestBackpropMatchesFiniteDifferences(t *testing.T) {
	net, err := New(testConfig())
	require.NoError(t, err)

	seq := []int{1, 3, 5, 2, 7}
	label := 1
	lossAt := func() float64 {
		return -math.Log(net.Predict(seq)[label])
	}

	grads := net.ZeroLike()
	net.Backprop(seq, label, grads)

	const eps = 1e-5
	params := net.tensors()
	analytic := grads.tensors()
	for ti := range params {
		p, g := params[ti], analytic[ti]
		for i := range p {
			orig := p[i]
			p[i] = orig + eps
			up := lossAt()
			p[i] = orig - eps
			down := lossAt()
			p[i] = orig

			numeric := (up - down) / (2 * eps)
			tol := 1e-6 + 1e-4*math.Abs(g[i])
			require.InDeltaf(t, g[i], numeric, tol,
				"tensor %d index %d: analytic %g numeric %g", ti, i, g[i], numeric)
		}
	}
}

func TestBackpropAccumulates(t *testing.T) {
	net, err := New(testConfig())
	require.NoError(t, err)
	seq := []int{2, 6, 1}

	once := net.ZeroLike()
	net.Backprop(seq, 0, once)

	twice := net.ZeroLike()
	net.Backprop(seq, 0, twice)
	net.Backprop(seq, 0, twice)

	onceT := once.tensors()
	twiceT := twice.tensors()
	for ti := range onceT {
		for i := range onceT[ti] {
			assert.InDelta(t, 2*onceT[ti][i], twiceT[ti][i], 1e-12)
		}
	}
}

func TestAdamDrivesLossDown(t *testing.T) {
	net, err := New(testConfig())
	require.NoError(t, err)

	seq := []int{1, 3, 5, 2, 7, 4}
	label := 0
	grads := net.ZeroLike()
	opt := NewAdam(net, 0.05)

	first := net.Backprop(seq, label, grads)
	opt.Step(net, grads)
	last := first
	for i := 0; i < 200; i++ {
		grads.Zero()
		last = net.Backprop(seq, label, grads)
		opt.Step(net, grads)
	}

	assert.Less(t, last, first)
	assert.Less(t, last, 0.05)
}

func TestScaleAndZero(t *testing.T) {
	net, err := New(testConfig())
	require.NoError(t, err)

	g := net.ZeroLike()
	net.Backprop([]int{1, 2}, 1, g)
	before := g.Wout.Data[0]
	require.NotZero(t, before)

	g.Scale(0.5)
	assert.InDelta(t, before*0.5, g.Wout.Data[0], 1e-15)

	g.Zero()
	for _, tensor := range g.tensors() {
		for _, v := range tensor {
			assert.Zero(t, v)
		}
	}
}

// benchmark the forward and backward passes at the shipped network size over
// a domain-length sequence
func benchNetwork(b *testing.B) (*Network, []int) {
	net, err := New(Config{VocabSize: 128, HiddenSize: 100, Layers: 3, Classes: 2, Seed: 1})
	if err != nil {
		b.Fatal(err)
	}
	domain := "xkpbmtsrwuhxhcp.com"
	seq := make([]int, len(domain))
	for i := 0; i < len(domain); i++ {
		seq[i] = int(domain[i])
	}
	return net, seq
}

func BenchmarkPredict(b *testing.B) {
	net, seq := benchNetwork(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		net.Predict(seq)
	}
}

func BenchmarkBackprop(b *testing.B) {
	net, seq := benchNetwork(b)
	g := net.ZeroLike()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Zero()
		net.Backprop(seq, 1, g)
	}
}
