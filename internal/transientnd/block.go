package transientnd

import (
	"errors"
	"fmt"
)

// Configuration errors. Everything else in the accumulation path is
// silently masked per sample instead of raising.
var (
	ErrNoFilter    = errors.New("transientnd: a reconstruction filter is required")
	ErrFilterCount = errors.New("transientnd: filter count must be 1 or match the axis count")
)

// Block accumulates weighted transient samples into a dense row-major
// buffer of shape prod(size[j] + 2*origBorderSize[j]) x channelCount.
// Axes are ordered spatial-first with time last (e.g. [W, H, timeBins]);
// the last channel stores the accumulated reconstruction filter weight.
//
// The buffer is allocated once, for the widest border ever configured.
// Narrower filters configured later only shift the logical window inside
// the fixed physical extent (borderOffset), they never reallocate.
type Block struct {
	size           []int
	channelCount   int
	offset         []int // logical crop offset in sample space
	borderSize     []int // current per-axis filter overhang
	origBorderSize []int // border fixed at allocation time; never exceeded
	borderOffset   []int // origBorderSize - borderSize
	physSize       []int // size + 2*origBorderSize
	stride         []int // flat element stride per axis (innermost = channelCount)

	filters   []Filter
	radius    []Real
	taps      []int // discrete filter taps per axis
	tapsTotal int
	allBox    bool // every axis is a narrow box -> single-cell fast path
	normalize bool
	useBorder bool

	buf   []Real
	locks shardLocks
}

// NewBlock creates a zeroed block. size is the logical extent per axis
// (time last) and channelCount includes the trailing weight channel. A
// single filter broadcasts to every axis. With border=false filter
// overhang is clamped at the image edge instead of spilling into border
// cells. normalize rescales each axis's tap weights to unit sum.
func NewBlock(size []int, channelCount int, filters []Filter, border, normalize bool) (*Block, error) {
	if len(size) == 0 || len(size) > MaxDims {
		return nil, fmt.Errorf("transientnd: axis count must be in 1..%d, got %d", MaxDims, len(size))
	}
	for _, s := range size {
		if s <= 0 {
			return nil, fmt.Errorf("transientnd: axis extents must be positive, got %v", size)
		}
	}
	if channelCount < 1 {
		return nil, fmt.Errorf("transientnd: channel count must be >= 1, got %d", channelCount)
	}
	b := &Block{channelCount: channelCount, normalize: normalize}
	b.setSize(size)
	if err := b.ConfigureFilter(filters, border); err != nil {
		return nil, err
	}
	b.Clear()
	DebugLog("Created block size=%v, channels=%d, border=%v", b.size, b.channelCount, b.origBorderSize)
	return b, nil
}

// setSize records a new logical extent, resets the crop offset and
// invalidates filter/border bookkeeping so the next ConfigureFilter runs
// first-time allocation again.
func (b *Block) setSize(size []int) {
	if equalInts(b.size, size) {
		return
	}
	b.size = append([]int(nil), size...)
	b.offset = make([]int, len(size))
	b.filters = nil
	b.borderSize = nil
	b.origBorderSize = nil
	b.borderOffset = nil
	b.buf = nil
}

// Resize changes the logical extent. The buffer is reallocated, border
// bookkeeping restarts from the currently installed filters, and all
// accumulated data is lost. The axis count must stay compatible with the
// installed filter list.
func (b *Block) Resize(size []int) error {
	if len(size) == 0 || len(size) > MaxDims {
		return fmt.Errorf("transientnd: axis count must be in 1..%d, got %d", MaxDims, len(size))
	}
	for _, s := range size {
		if s <= 0 {
			return fmt.Errorf("transientnd: axis extents must be positive, got %v", size)
		}
	}
	if equalInts(size, b.size) {
		return nil
	}
	filters := b.filters
	border := b.useBorder
	b.setSize(size)
	if err := b.ConfigureFilter(filters, border); err != nil {
		return err
	}
	b.Clear()
	return nil
}

// ConfigureFilter installs one reconstruction kernel per axis. The first
// call fixes the physical buffer size from the widest border; later calls
// may only narrow the border (e.g. a progressive time-domain Gaussian),
// which shifts the logical window inside the fixed buffer instead of
// reallocating. Accumulated data is kept; call Clear to discard it.
func (b *Block) ConfigureFilter(filters []Filter, border bool) error {
	if len(filters) == 0 {
		return ErrNoFilter
	}
	ndim := len(b.size)
	if len(filters) == 1 && ndim > 1 {
		fs := make([]Filter, ndim)
		for j := range fs {
			fs[j] = filters[0]
		}
		filters = fs
	}
	if len(filters) != ndim {
		return fmt.Errorf("%w: %d filters for %d axes", ErrFilterCount, len(filters), ndim)
	}
	for _, f := range filters {
		if f == nil {
			return ErrNoFilter
		}
	}

	bs := make([]int, ndim)
	if border {
		for j, f := range filters {
			bs[j] = f.BorderSize()
		}
	}

	if b.origBorderSize == nil {
		// First configuration: the widest border pins the allocation.
		b.borderSize = bs
		b.origBorderSize = append([]int(nil), bs...)
		b.borderOffset = make([]int, ndim)
		b.computeLayout()
		b.buf = make([]Real, b.elemCount())
	} else {
		for j := range bs {
			if bs[j] > b.origBorderSize[j] {
				return fmt.Errorf("transientnd: border %v exceeds allocated border %v; resize the block instead", bs, b.origBorderSize)
			}
			b.borderOffset[j] = b.origBorderSize[j] - bs[j]
		}
		b.borderSize = bs
	}

	b.filters = filters
	b.useBorder = border
	b.radius = make([]Real, ndim)
	b.taps = make([]int, ndim)
	b.tapsTotal = 0
	b.allBox = true
	for j, f := range filters {
		b.radius[j] = f.Radius()
		b.taps[j] = filterTaps(f.Radius())
		b.tapsTotal += b.taps[j]
		if !f.IsBox() || b.radius[j] > 0.5+filterEps {
			b.allBox = false
		}
	}
	DebugLog("Configured filters: radius=%v taps=%v border=%v offset=%v", b.radius, b.taps, b.borderSize, b.borderOffset)
	return nil
}

// computeLayout derives the physical extent and flat strides. The layout
// is row-major with the channel as the fastest-varying index.
func (b *Block) computeLayout() {
	ndim := len(b.size)
	b.physSize = make([]int, ndim)
	for j := range b.size {
		b.physSize[j] = b.size[j] + 2*b.origBorderSize[j]
	}
	b.stride = make([]int, ndim)
	s := b.channelCount
	for j := ndim - 1; j >= 0; j-- {
		b.stride[j] = s
		s *= b.physSize[j]
	}
}

func (b *Block) elemCount() int {
	return prodInts(b.physSize) * b.channelCount
}

// Clear zeroes the accumulation buffer; the allocation is kept.
func (b *Block) Clear() {
	for i := range b.buf {
		b.buf[i] = 0
	}
}

// SetOffset sets the logical crop offset in sample space (for blocks that
// cover a sub-window of a larger film).
func (b *Block) SetOffset(offset []int) error {
	if len(offset) != len(b.size) {
		return fmt.Errorf("transientnd: offset rank %d does not match axis count %d", len(offset), len(b.size))
	}
	copy(b.offset, offset)
	return nil
}

// Size returns the logical extent per axis.
func (b *Block) Size() []int { return append([]int(nil), b.size...) }

// PhysSize returns the allocated extent per axis (size + 2*border).
func (b *Block) PhysSize() []int { return append([]int(nil), b.physSize...) }

// ChannelCount returns the number of channels, weight channel included.
func (b *Block) ChannelCount() int { return b.channelCount }

// BorderSize returns the current per-axis filter overhang.
func (b *Block) BorderSize() []int { return append([]int(nil), b.borderSize...) }

// OrigBorderSize returns the per-axis border fixed at allocation time.
func (b *Block) OrigBorderSize() []int { return append([]int(nil), b.origBorderSize...) }

// Data returns the live physical buffer. Mutating it bypasses the
// accumulation locks; do so only while no Put is in flight.
func (b *Block) Data() []Real { return b.buf }

func (b *Block) String() string {
	return fmt.Sprintf("Block[size=%v, channels=%d, border=%v, origBorder=%v, offset=%v]",
		b.size, b.channelCount, b.borderSize, b.origBorderSize, b.borderOffset)
}
