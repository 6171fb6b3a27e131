// Package wavelet implements the 2D Haar wavelet transform used for face
// texture features.
package wavelet

import (
	"fmt"
	"math"
)

const invSqrt2 = float32(1 / math.Sqrt2)

// Plane is a row-major float32 matrix.
type Plane struct {
	Rows int
	Cols int
	Data []float32
}

// NewPlane allocates a zeroed plane.
func NewPlane(rows, cols int) *Plane {
	return &Plane{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

func (p *Plane) at(r, c int) float32 {
	return p.Data[r*p.Cols+c]
}

// Zero sets every coefficient to 0.
func (p *Plane) Zero() {
	for i := range p.Data {
		p.Data[i] = 0
	}
}

// crop keeps the top-left rows x cols block.
func (p *Plane) crop(rows, cols int) *Plane {
	if rows == p.Rows && cols == p.Cols {
		return p
	}
	out := NewPlane(rows, cols)
	for r := 0; r < rows; r++ {
		copy(out.Data[r*cols:(r+1)*cols], p.Data[r*p.Cols:r*p.Cols+cols])
	}
	return out
}

// Detail holds the three detail sub-bands of one decomposition level.
type Detail struct {
	Horizontal *Plane
	Vertical   *Plane
	Diagonal   *Plane
}

// Coefficients is a multi-level decomposition. Details are ordered from the
// coarsest level to the finest.
type Coefficients struct {
	Rows    int
	Cols    int
	Approx  *Plane
	Details []Detail
}

// Supported reports whether mode names an implemented wavelet.
func Supported(mode string) bool {
	return mode == "haar" || mode == "db1"
}

// MaxLevel is the deepest useful decomposition for a signal of the given size.
func MaxLevel(rows, cols int) int {
	n := rows
	if cols < n {
		n = cols
	}
	if n < 2 {
		return 0
	}
	return int(math.Floor(math.Log2(float64(n))))
}

// Decompose runs a level-deep 2D Haar decomposition with symmetric
// boundary extension for odd sizes.
func Decompose(p *Plane, mode string, level int) (*Coefficients, error) {
	if !Supported(mode) {
		return nil, fmt.Errorf("unsupported wavelet %q", mode)
	}
	if level < 1 {
		return nil, fmt.Errorf("wavelet level must be at least 1, got %d", level)
	}
	if p == nil || p.Rows == 0 || p.Cols == 0 {
		return nil, fmt.Errorf("cannot decompose an empty plane")
	}

	c := &Coefficients{Rows: p.Rows, Cols: p.Cols, Details: make([]Detail, level)}
	a := p
	for i := level - 1; i >= 0; i-- {
		var d Detail
		a, d = dwt2(a)
		c.Details[i] = d
	}
	c.Approx = a
	return c, nil
}

// Reconstruct inverts Decompose and crops the result to the original size.
func Reconstruct(c *Coefficients) (*Plane, error) {
	if c == nil || c.Approx == nil {
		return nil, fmt.Errorf("missing approximation coefficients")
	}
	a := c.Approx
	for _, d := range c.Details {
		if d.Horizontal == nil || d.Vertical == nil || d.Diagonal == nil {
			return nil, fmt.Errorf("incomplete detail coefficients")
		}
		if a.Rows < d.Horizontal.Rows || a.Cols < d.Horizontal.Cols {
			return nil, fmt.Errorf("approximation %dx%d smaller than detail %dx%d",
				a.Rows, a.Cols, d.Horizontal.Rows, d.Horizontal.Cols)
		}
		a = idwt2(a.crop(d.Horizontal.Rows, d.Horizontal.Cols), d)
	}
	return a.crop(c.Rows, c.Cols), nil
}

// dwt1 writes ceil(n/2) approximation and detail coefficients of x.
func dwt1(x []float32, approx, detail []float32) {
	n := len(x)
	for i := range approx {
		x0 := x[2*i]
		x1 := x0
		if 2*i+1 < n {
			x1 = x[2*i+1]
		}
		approx[i] = (x0 + x1) * invSqrt2
		detail[i] = (x0 - x1) * invSqrt2
	}
}

// idwt1 writes 2*len(approx) samples into out.
func idwt1(approx, detail []float32, out []float32) {
	for i := range approx {
		out[2*i] = (approx[i] + detail[i]) * invSqrt2
		out[2*i+1] = (approx[i] - detail[i]) * invSqrt2
	}
}

func half(n int) int {
	return (n + 1) / 2
}

// dwt2 transforms along the columns of each row, then along each column.
func dwt2(p *Plane) (*Plane, Detail) {
	hc := half(p.Cols)
	lo := NewPlane(p.Rows, hc)
	hi := NewPlane(p.Rows, hc)
	for r := 0; r < p.Rows; r++ {
		dwt1(p.Data[r*p.Cols:(r+1)*p.Cols], lo.Data[r*hc:(r+1)*hc], hi.Data[r*hc:(r+1)*hc])
	}

	ll, lh := columns(lo)
	hl, hh := columns(hi)
	return ll, Detail{Horizontal: lh, Vertical: hl, Diagonal: hh}
}

// columns applies dwt1 down every column of p.
func columns(p *Plane) (*Plane, *Plane) {
	hr := half(p.Rows)
	a := NewPlane(hr, p.Cols)
	d := NewPlane(hr, p.Cols)
	col := make([]float32, p.Rows)
	ca := make([]float32, hr)
	cd := make([]float32, hr)
	for c := 0; c < p.Cols; c++ {
		for r := 0; r < p.Rows; r++ {
			col[r] = p.at(r, c)
		}
		dwt1(col, ca, cd)
		for r := 0; r < hr; r++ {
			a.Data[r*p.Cols+c] = ca[r]
			d.Data[r*p.Cols+c] = cd[r]
		}
	}
	return a, d
}

// invColumns applies idwt1 down every column, doubling the row count.
func invColumns(a, d *Plane) *Plane {
	out := NewPlane(2*a.Rows, a.Cols)
	ca := make([]float32, a.Rows)
	cd := make([]float32, a.Rows)
	col := make([]float32, 2*a.Rows)
	for c := 0; c < a.Cols; c++ {
		for r := 0; r < a.Rows; r++ {
			ca[r] = a.at(r, c)
			cd[r] = d.at(r, c)
		}
		idwt1(ca, cd, col)
		for r := range col {
			out.Data[r*a.Cols+c] = col[r]
		}
	}
	return out
}

func idwt2(a *Plane, d Detail) *Plane {
	lo := invColumns(a, d.Horizontal)
	hi := invColumns(d.Vertical, d.Diagonal)

	out := NewPlane(lo.Rows, 2*lo.Cols)
	for r := 0; r < lo.Rows; r++ {
		idwt1(lo.Data[r*lo.Cols:(r+1)*lo.Cols], hi.Data[r*hi.Cols:(r+1)*hi.Cols], out.Data[r*out.Cols:(r+1)*out.Cols])
	}
	return out
}
