package model

import (
	"image"
	"image/color"
	"math"
)

// Image is an 8-bit raster stored row-major with interleaved channels.
// Three-channel images use BGR order.
type Image struct {
	Rows     int
	Cols     int
	Channels int
	Pix      []uint8
}

// Gray is a single-channel 8-bit plane.
type Gray struct {
	Rows int
	Cols int
	Pix  []uint8
}

// NewImage allocates a zeroed image.
func NewImage(rows, cols, channels int) *Image {
	return &Image{Rows: rows, Cols: cols, Channels: channels, Pix: make([]uint8, rows*cols*channels)}
}

// NewGray allocates a zeroed gray plane.
func NewGray(rows, cols int) *Gray {
	return &Gray{Rows: rows, Cols: cols, Pix: make([]uint8, rows*cols)}
}

// Bounds returns the image rectangle anchored at the origin.
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Cols, m.Rows)
}

// Empty reports whether the image holds no pixels.
func (m *Image) Empty() bool {
	return m == nil || m.Rows == 0 || m.Cols == 0
}

// FromImage converts any decoded image into a BGR Image.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	out := NewImage(b.Dy(), b.Dx(), 3)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			out.Pix[i] = c.B
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.R
			i += 3
		}
	}
	return out
}

// ToNRGBA converts the image into a standard library raster.
func (m *Image) ToNRGBA() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, m.Cols, m.Rows))
	n := m.Rows * m.Cols
	for p := 0; p < n; p++ {
		o := p * 4
		switch m.Channels {
		case 1:
			v := m.Pix[p]
			dst.Pix[o], dst.Pix[o+1], dst.Pix[o+2] = v, v, v
		default:
			s := p * m.Channels
			dst.Pix[o] = m.Pix[s+2]
			dst.Pix[o+1] = m.Pix[s+1]
			dst.Pix[o+2] = m.Pix[s]
		}
		dst.Pix[o+3] = 0xff
	}
	return dst
}

// FromNRGBA converts an NRGBA raster back into a BGR Image, dropping alpha.
func FromNRGBA(src *image.NRGBA) *Image {
	b := src.Bounds()
	out := NewImage(b.Dy(), b.Dx(), 3)
	i := 0
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < b.Dx(); x++ {
			o := x * 4
			out.Pix[i] = row[o+2]
			out.Pix[i+1] = row[o+1]
			out.Pix[i+2] = row[o]
			i += 3
		}
	}
	return out
}

// Gray converts to a single channel using the BGR luma weights
// 0.114 B + 0.587 G + 0.299 R, rounded to the nearest integer.
func (m *Image) Gray() *Gray {
	g := NewGray(m.Rows, m.Cols)
	n := m.Rows * m.Cols
	if m.Channels == 1 {
		copy(g.Pix, m.Pix[:n])
		return g
	}
	for p := 0; p < n; p++ {
		s := p * m.Channels
		v := 0.114*float64(m.Pix[s]) + 0.587*float64(m.Pix[s+1]) + 0.299*float64(m.Pix[s+2])
		g.Pix[p] = uint8(math.Min(255, math.Round(v)))
	}
	return g
}

// GrayChannelOrder applies the RGB luma weights 0.299, 0.587, 0.114 to
// channels 0, 1, 2 as stored. On a BGR image this weights blue as red,
// which is what the wavelet features were trained on.
func (m *Image) GrayChannelOrder() *Gray {
	g := NewGray(m.Rows, m.Cols)
	n := m.Rows * m.Cols
	if m.Channels == 1 {
		copy(g.Pix, m.Pix[:n])
		return g
	}
	for p := 0; p < n; p++ {
		s := p * m.Channels
		v := 0.299*float64(m.Pix[s]) + 0.587*float64(m.Pix[s+1]) + 0.114*float64(m.Pix[s+2])
		g.Pix[p] = uint8(math.Min(255, math.Round(v)))
	}
	return g
}

// Crop copies the pixels inside r, clipped to the image bounds.
func (m *Image) Crop(r image.Rectangle) *Image {
	r = r.Intersect(m.Bounds())
	out := NewImage(r.Dy(), r.Dx(), m.Channels)
	rowLen := r.Dx() * m.Channels
	for y := 0; y < r.Dy(); y++ {
		src := ((r.Min.Y+y)*m.Cols + r.Min.X) * m.Channels
		copy(out.Pix[y*rowLen:(y+1)*rowLen], m.Pix[src:src+rowLen])
	}
	return out
}

// Bounds returns the plane rectangle anchored at the origin.
func (g *Gray) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Cols, g.Rows)
}

// Crop copies the pixels inside r, clipped to the plane bounds.
func (g *Gray) Crop(r image.Rectangle) *Gray {
	r = r.Intersect(g.Bounds())
	out := NewGray(r.Dy(), r.Dx())
	for y := 0; y < r.Dy(); y++ {
		src := (r.Min.Y+y)*g.Cols + r.Min.X
		copy(out.Pix[y*r.Dx():(y+1)*r.Dx()], g.Pix[src:src+r.Dx()])
	}
	return out
}

// ToImage wraps the plane as a one-channel Image.
func (g *Gray) ToImage() *Image {
	return &Image{Rows: g.Rows, Cols: g.Cols, Channels: 1, Pix: g.Pix}
}
