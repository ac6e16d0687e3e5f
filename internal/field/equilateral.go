package field

import (
	"errors"
	"math"
)

// #region equilateral
// Equilateral encodes n classes as the vertices of an (n-1)-dimensional
// simplex, so every pair of classes sits the same distance apart.
type Equilateral struct {
	matrix [][]float64
}

// NewEquilateral builds the encoding for n classes scaled into [low, high].
func NewEquilateral(n int, high, low float64) (*Equilateral, error) {
	if n < 2 {
		return nil, errors.New("equilateral encoding needs at least 2 classes")
	}
	if high == low {
		high, low = 1, -1
	}
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n-1)
	}
	m[0][0] = -1
	m[1][0] = 1
	for k := 2; k < n; k++ {
		r := float64(k)
		f := math.Sqrt(r*r-1) / r
		for i := 0; i < k; i++ {
			for j := 0; j < k-1; j++ {
				m[i][j] *= f
			}
		}
		r = -1 / r
		for i := 0; i < k; i++ {
			m[i][k-1] = r
		}
		for i := 0; i < k-1; i++ {
			m[k][i] = 0
		}
		m[k][k-1] = 1
	}
	for _, row := range m {
		for j, v := range row {
			row[j] = (v+1)/2*(high-low) + low
		}
	}
	return &Equilateral{matrix: m}, nil
}

// Encode returns the activation vector for class idx.
func (e *Equilateral) Encode(idx int) []float64 {
	out := make([]float64, len(e.matrix[idx]))
	copy(out, e.matrix[idx])
	return out
}

// Decode returns the class whose vertex is closest to the activations.
func (e *Equilateral) Decode(act []float64) int {
	best, bestDist := -1, math.Inf(1)
	for i, row := range e.matrix {
		var sum float64
		for j, v := range row {
			if j >= len(act) {
				break
			}
			d := act[j] - v
			sum += d * d
		}
		if sum < bestDist {
			best, bestDist = i, sum
		}
	}
	return best
}

// #endregion equilateral
