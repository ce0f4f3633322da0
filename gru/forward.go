package gru

import "math"

// stepState caches one layer's activations at one timestep, everything the
// backward pass needs.
type stepState struct {
	x     []float64 // layer input
	hPrev []float64 // hidden state entering the step
	r     []float64 // reset gate
	z     []float64 // update gate
	an    []float64 // Un*hPrev + Bun, before the reset gate is applied
	cand  []float64 // candidate state
	h     []float64 // hidden state leaving the step
}

type forwardState struct {
	symbols []int         // sequence after vocabulary folding
	steps   [][]stepState // [timestep][layer]
	hLast   []float64     // top-layer hidden after the last symbol
	probs   []float64
}

// symbol folds an arbitrary input symbol into the vocabulary.
func (n *Network) symbol(sym int) int {
	if sym < 0 {
		sym = -sym
	}
	return sym % n.VocabSize
}

// step runs one GRU layer for one timestep and returns the cached
// activations.
func (ly *Layer) step(x, hPrev []float64) stepState {
	h := len(hPrev)
	st := stepState{
		x:     x,
		hPrev: hPrev,
		r:     make([]float64, h),
		z:     make([]float64, h),
		an:    make([]float64, h),
		cand:  make([]float64, h),
		h:     make([]float64, h),
	}

	copy(st.r, ly.Bwr)
	addVec(st.r, ly.Bur)
	matVecAdd(st.r, ly.Wr, x)
	matVecAdd(st.r, ly.Ur, hPrev)

	copy(st.z, ly.Bwz)
	addVec(st.z, ly.Buz)
	matVecAdd(st.z, ly.Wz, x)
	matVecAdd(st.z, ly.Uz, hPrev)

	copy(st.an, ly.Bun)
	matVecAdd(st.an, ly.Un, hPrev)

	copy(st.cand, ly.Bwn)
	matVecAdd(st.cand, ly.Wn, x)

	for i := 0; i < h; i++ {
		st.r[i] = sigmoid(st.r[i])
		st.z[i] = sigmoid(st.z[i])
		st.cand[i] = math.Tanh(st.cand[i] + st.r[i]*st.an[i])
		st.h[i] = (1-st.z[i])*st.cand[i] + st.z[i]*hPrev[i]
	}
	return st
}

// forward runs the whole sequence, keeping per-step activations when train is
// set. Out-of-range symbols are folded into the vocabulary by modulo.
func (n *Network) forward(seq []int, train bool) forwardState {
	hidden := make([][]float64, len(n.Layers))
	for l := range hidden {
		hidden[l] = make([]float64, n.HiddenSize)
	}

	fs := forwardState{symbols: make([]int, len(seq))}
	if train {
		fs.steps = make([][]stepState, len(seq))
	}

	for t, sym := range seq {
		fs.symbols[t] = n.symbol(sym)
		x := n.Embed.Row(fs.symbols[t])

		var states []stepState
		if train {
			states = make([]stepState, len(n.Layers))
		}
		for l := range n.Layers {
			st := n.Layers[l].step(x, hidden[l])
			hidden[l] = st.h
			x = st.h
			if train {
				states[l] = st
			}
		}
		if train {
			fs.steps[t] = states
		}
	}

	fs.hLast = hidden[len(hidden)-1]
	fs.probs = make([]float64, n.Classes)
	copy(fs.probs, n.Bout)
	matVecAdd(fs.probs, n.Wout, fs.hLast)
	softmax(fs.probs)
	return fs
}

// Predict returns the class probability distribution for one symbol
// sequence. An empty sequence scores the zero hidden state.
func (n *Network) Predict(seq []int) []float64 {
	return n.forward(seq, false).probs
}
