package gru

import "math"

// Backprop runs a forward pass for one labeled sequence, adds the gradients
// of the cross-entropy loss into g and returns the loss. g must come from
// ZeroLike on a network of the same shape; gradients accumulate, so the
// caller zeroes g between optimizer steps.
func (n *Network) Backprop(seq []int, label int, g *Network) float64 {
	fs := n.forward(seq, true)
	loss := -math.Log(math.Max(fs.probs[label], math.SmallestNonzeroFloat64))

	// Head: d(logits) = probs - onehot(label).
	do := make([]float64, n.Classes)
	copy(do, fs.probs)
	do[label]--
	outerAdd(g.Wout, do, fs.hLast)
	addVec(g.Bout, do)

	h := n.HiddenSize
	dh := make([][]float64, len(n.Layers))
	for l := range dh {
		dh[l] = make([]float64, h)
	}
	matTVecAdd(dh[len(dh)-1], n.Wout, do)

	dz := make([]float64, h)
	dcand := make([]float64, h)
	dr := make([]float64, h)
	dnr := make([]float64, h) // dcand gated by r, what flows into Un and Bun
	dx := make([]float64, h)

	for t := len(seq) - 1; t >= 0; t-- {
		for l := len(n.Layers) - 1; l >= 0; l-- {
			st := &fs.steps[t][l]
			nl := &n.Layers[l]
			gl := &g.Layers[l]
			dhl := dh[l]
			dhPrev := make([]float64, h)

			for i := 0; i < h; i++ {
				dz[i] = dhl[i] * (st.hPrev[i] - st.cand[i]) * st.z[i] * (1 - st.z[i])
				dcand[i] = dhl[i] * (1 - st.z[i]) * (1 - st.cand[i]*st.cand[i])
				dhPrev[i] = dhl[i] * st.z[i]
				dr[i] = dcand[i] * st.an[i] * st.r[i] * (1 - st.r[i])
				dnr[i] = dcand[i] * st.r[i]
			}

			outerAdd(gl.Wn, dcand, st.x)
			addVec(gl.Bwn, dcand)
			outerAdd(gl.Un, dnr, st.hPrev)
			addVec(gl.Bun, dnr)
			matTVecAdd(dhPrev, nl.Un, dnr)

			outerAdd(gl.Wr, dr, st.x)
			addVec(gl.Bwr, dr)
			addVec(gl.Bur, dr)
			outerAdd(gl.Ur, dr, st.hPrev)
			matTVecAdd(dhPrev, nl.Ur, dr)

			outerAdd(gl.Wz, dz, st.x)
			addVec(gl.Bwz, dz)
			addVec(gl.Buz, dz)
			outerAdd(gl.Uz, dz, st.hPrev)
			matTVecAdd(dhPrev, nl.Uz, dz)

			for i := range dx {
				dx[i] = 0
			}
			matTVecAdd(dx, nl.Wr, dr)
			matTVecAdd(dx, nl.Wz, dz)
			matTVecAdd(dx, nl.Wn, dcand)

			dh[l] = dhPrev
			if l > 0 {
				addVec(dh[l-1], dx)
			} else {
				addVec(g.Embed.Row(fs.symbols[t]), dx)
			}
		}
	}
	return loss
}
