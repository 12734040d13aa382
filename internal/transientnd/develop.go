package transientnd

import (
	"math"
)

// Tensor is a dense row-major array with an explicit shape; the last
// shape entry is the channel count.
type Tensor struct {
	Shape []int
	Data  []Real
}

// At returns the element at the given multi-index (channel last).
func (t *Tensor) At(indices ...int) Real {
	if len(indices) != len(t.Shape) {
		panic("transientnd: tensor index rank mismatch")
	}
	idx := 0
	for j, i := range indices {
		if i < 0 || i >= t.Shape[j] {
			panic("transientnd: tensor index out of range")
		}
		idx = idx*t.Shape[j] + i
	}
	return t.Data[idx]
}

// Develop converts the raw accumulation buffer into an image tensor.
//
// With raw=true it returns a copy of the physical buffer (border cells
// and weight channel included), for diagnostics and checkpointing.
// Otherwise each cell's first channelCount-1 channels are divided by the
// accumulated weight channel (cells with zero weight develop to exactly
// zero, never NaN or Inf), the optional sRGB transfer curve is applied to
// the divided channels, and the allocation border is cropped away. The
// result has shape size x (channelCount-1).
//
// Develop only reads the buffer; calling it repeatedly without interleaved
// Put calls yields identical tensors. It must not run concurrently with an
// in-flight Put.
func (b *Block) Develop(gamma, raw bool) *Tensor {
	ch := b.channelCount
	if raw {
		shape := append(append([]int(nil), b.physSize...), ch)
		return &Tensor{Shape: shape, Data: append([]Real(nil), b.buf...)}
	}

	ndim := len(b.size)
	targetCh := ch - 1
	outShape := append(append([]int(nil), b.size...), targetCh)
	out := make([]Real, prodInts(b.size)*targetCh)

	idxs := make([]int, ndim)
	oi := 0
	for {
		src := 0
		for j := 0; j < ndim; j++ {
			src += (idxs[j] + b.origBorderSize[j]) * b.stride[j]
		}
		// Masked divide: zero weight leaves the zero-initialized output.
		if weight := b.buf[src+ch-1]; weight > 0 {
			inv := 1 / weight
			for k := 0; k < targetCh; k++ {
				v := b.buf[src+k] * inv
				if gamma {
					v = linearToSRGB(v)
				}
				out[oi+k] = v
			}
		}
		oi += targetCh

		// Row-major walk: last axis advances fastest.
		j := ndim - 1
		for ; j >= 0; j-- {
			idxs[j]++
			if idxs[j] < b.size[j] {
				break
			}
			idxs[j] = 0
		}
		if j < 0 {
			break
		}
	}
	return &Tensor{Shape: outShape, Data: out}
}

// linearToSRGB applies the sRGB transfer curve to a linear value.
func linearToSRGB(v Real) Real {
	if v <= 0 {
		return 0
	}
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}
