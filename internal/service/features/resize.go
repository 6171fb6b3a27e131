package features

import "math"

// OpenCV computes 8-bit bilinear weights in 11-bit fixed point and rounds
// once after the vertical pass.
const (
	coefBits  = 11
	coefScale = 1 << coefBits
)

type tap struct {
	i0, i1 int
	w0, w1 int64
}

// linearTaps maps each destination index to its two source neighbours using
// half-pixel centers. Indices past either edge clamp to the border sample.
func linearTaps(src, dst int) []tap {
	scale := float64(src) / float64(dst)
	taps := make([]tap, dst)
	for d := range taps {
		f := float32((float64(d)+0.5)*scale - 0.5)
		s := int(math.Floor(float64(f)))
		f -= float32(s)
		if s < 0 {
			s, f = 0, 0
		}
		if s >= src-1 {
			s, f = src-1, 0
		}
		i1 := s + 1
		if i1 > src-1 {
			i1 = src - 1
		}
		w1 := int64(math.Round(float64(f) * coefScale))
		taps[d] = tap{i0: s, i1: i1, w0: coefScale - w1, w1: w1}
	}
	return taps
}

// resizeLinear resamples an interleaved 8-bit plane of rows x cols x ch to
// outRows x outCols. Same-size input is returned unchanged.
func resizeLinear(pix []uint8, rows, cols, ch, outRows, outCols int) []uint8 {
	if rows == outRows && cols == outCols {
		return pix[:rows*cols*ch]
	}
	xt := linearTaps(cols, outCols)
	yt := linearTaps(rows, outRows)

	rowLen := outCols * ch
	horiz := make([]int64, rows*rowLen)
	for y := 0; y < rows; y++ {
		in := pix[y*cols*ch:]
		out := horiz[y*rowLen:]
		for x, t := range xt {
			for c := 0; c < ch; c++ {
				out[x*ch+c] = int64(in[t.i0*ch+c])*t.w0 + int64(in[t.i1*ch+c])*t.w1
			}
		}
	}

	const shift = 2 * coefBits
	res := make([]uint8, outRows*rowLen)
	for y, t := range yt {
		r0 := horiz[t.i0*rowLen:]
		r1 := horiz[t.i1*rowLen:]
		for i := 0; i < rowLen; i++ {
			v := (r0[i]*t.w0 + r1[i]*t.w1 + 1<<(shift-1)) >> shift
			if v > 255 {
				v = 255
			}
			res[y*rowLen+i] = uint8(v)
		}
	}
	return res
}
