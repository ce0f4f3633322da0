package gru

import (
	"math"

	"github.com/klauspost/cpuid/v2"
)

// Mat is a dense row-major matrix.
type Mat struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

func newMat(rows, cols int) Mat {
	return Mat{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// Row returns the i-th row as a subslice of the backing array.
func (m Mat) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// l1dBytes is the detected L1 data cache size, used to block the
// column-major walks below.
var l1dBytes = func() int {
	if n := cpuid.CPU.Cache.L1D; n > 0 {
		return n
	}
	return 32 << 10
}()

// matVecAdd computes dst += m * x. Row-major walk, streams the matrix once.
func matVecAdd(dst []float64, m Mat, x []float64) {
	for i := 0; i < m.Rows; i++ {
		row := m.Data[i*m.Cols : (i+1)*m.Cols]
		var sum float64
		for j, v := range row {
			sum += v * x[j]
		}
		dst[i] += sum
	}
}

// matTVecAdd computes dst += mᵀ * x. The transposed walk is column-major, so
// rows are processed in blocks small enough that the touched stripe of the
// matrix stays in L1D.
func matTVecAdd(dst []float64, m Mat, x []float64) {
	block := l1dBytes / (2 * 8 * max(m.Cols, 1))
	if block < 8 {
		block = 8
	}
	for i0 := 0; i0 < m.Rows; i0 += block {
		i1 := i0 + block
		if i1 > m.Rows {
			i1 = m.Rows
		}
		for i := i0; i < i1; i++ {
			xi := x[i]
			if xi == 0 {
				continue
			}
			row := m.Data[i*m.Cols : (i+1)*m.Cols]
			for j, v := range row {
				dst[j] += xi * v
			}
		}
	}
}

// outerAdd computes g += a ⊗ b where g is len(a) x len(b).
func outerAdd(g Mat, a, b []float64) {
	for i, ai := range a {
		if ai == 0 {
			continue
		}
		row := g.Data[i*g.Cols : (i+1)*g.Cols]
		for j, bj := range b {
			row[j] += ai * bj
		}
	}
}

func addVec(dst, src []float64) {
	for i, v := range src {
		dst[i] += v
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// softmax overwrites logits with the softmax distribution, shifting by the
// max logit to keep Exp in range.
func softmax(logits []float64) {
	maxv := logits[0]
	for _, v := range logits[1:] {
		if v > maxv {
			maxv = v
		}
	}
	var sum float64
	for i, v := range logits {
		e := math.Exp(v - maxv)
		logits[i] = e
		sum += e
	}
	for i := range logits {
		logits[i] /= sum
	}
}
