package gru

import "math"

// Adam optimizer defaults, the values everybody uses.
const (
	AdamBeta1   = 0.9
	AdamBeta2   = 0.999
	AdamEpsilon = 1e-8
)

// Adam holds the per-parameter moment estimates for one network.
type Adam struct {
	LearningRate float64

	step int
	m    *Network // first moment
	v    *Network // second moment
}

// NewAdam creates an optimizer shaped for n.
func NewAdam(n *Network, learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		m:            n.ZeroLike(),
		v:            n.ZeroLike(),
	}
}

// Step applies one bias-corrected Adam update of n from the gradients in g.
// n and g must both match the shape the optimizer was created for.
func (a *Adam) Step(n, g *Network) {
	a.step++
	c1 := 1 - math.Pow(AdamBeta1, float64(a.step))
	c2 := 1 - math.Pow(AdamBeta2, float64(a.step))

	params := n.tensors()
	grads := g.tensors()
	ms := a.m.tensors()
	vs := a.v.tensors()
	for t := range params {
		p, gr, m, v := params[t], grads[t], ms[t], vs[t]
		for i := range p {
			m[i] = AdamBeta1*m[i] + (1-AdamBeta1)*gr[i]
			v[i] = AdamBeta2*v[i] + (1-AdamBeta2)*gr[i]*gr[i]
			mHat := m[i] / c1
			vHat := v[i] / c2
			p[i] -= a.LearningRate * mHat / (math.Sqrt(vHat) + AdamEpsilon)
		}
	}
}

// Free drops the moment estimates so the memory can be reclaimed. The
// optimizer is unusable afterwards.
func (a *Adam) Free() {
	a.m = nil
	a.v = nil
}
