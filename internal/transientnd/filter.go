package transientnd

import (
	"math"
)

// Filter is a separable reconstruction kernel for a single axis.
type Filter interface {
	// Radius returns the half-width of the kernel's support in cells.
	Radius() Real
	// BorderSize returns how many extra border cells the kernel needs so
	// that samples near the edge can deposit their full support.
	BorderSize() int
	// IsBox reports whether the kernel is a box; boxes of radius <= 0.5
	// enable the single-cell fast path in Put.
	IsBox() bool
	// Eval returns the kernel response at a signed sub-cell offset.
	Eval(x Real) Real
}

// borderSize derives the border cell count from a radius. It shares
// filterEps with filterTaps so border, radius and tap count always agree.
func borderSize(radius Real) int {
	b := int(math.Ceil(radius - 0.5 - filterEps))
	if b < 0 {
		b = 0
	}
	return b
}

// filterTaps returns the number of integer taps covering [-radius, +radius].
func filterTaps(radius Real) int {
	n := int(math.Ceil((radius - 2*filterEps) * 2))
	if n < 1 {
		n = 1
	}
	return n
}

// BoxFilter averages over a square pixel footprint. The common radius of
// 0.5 makes every sample land in exactly one cell.
type BoxFilter struct {
	radius Real
}

func NewBoxFilter(radius Real) *BoxFilter {
	if radius <= 0 {
		radius = 0.5
	}
	return &BoxFilter{radius: radius}
}

func (f *BoxFilter) Radius() Real    { return f.radius }
func (f *BoxFilter) BorderSize() int { return borderSize(f.radius) }
func (f *BoxFilter) IsBox() bool     { return true }

func (f *BoxFilter) Eval(x Real) Real {
	if math.Abs(x) <= f.radius+filterEps {
		return 1
	}
	return 0
}

// TentFilter is a triangular kernel: w(x) = max(0, 1 - |x|/radius).
// Discrete tap weights do not sum to one; enable per-axis normalization
// on the block when a unit partition is needed.
type TentFilter struct {
	radius Real
}

func NewTentFilter(radius Real) *TentFilter {
	if radius <= 0 {
		radius = 1
	}
	return &TentFilter{radius: radius}
}

func (f *TentFilter) Radius() Real    { return f.radius }
func (f *TentFilter) BorderSize() int { return borderSize(f.radius) }
func (f *TentFilter) IsBox() bool     { return false }

func (f *TentFilter) Eval(x Real) Real {
	t := 1 - math.Abs(x)/f.radius
	if t < 0 {
		return 0
	}
	return t
}

// GaussianFilter is a Gaussian truncated at four standard deviations,
// shifted down so the response reaches exactly zero at the truncation
// radius.
type GaussianFilter struct {
	stddev Real
	radius Real
	alpha  Real // 1 / (2 * stddev^2)
	shift  Real // response of the untruncated kernel at the radius
}

func NewGaussianFilter(stddev Real) *GaussianFilter {
	if stddev <= 0 {
		stddev = 0.5
	}
	r := 4 * stddev
	alpha := 1 / (2 * stddev * stddev)
	return &GaussianFilter{
		stddev: stddev,
		radius: r,
		alpha:  alpha,
		shift:  math.Exp(-alpha * r * r),
	}
}

func (f *GaussianFilter) Stddev() Real    { return f.stddev }
func (f *GaussianFilter) Radius() Real    { return f.radius }
func (f *GaussianFilter) BorderSize() int { return borderSize(f.radius) }
func (f *GaussianFilter) IsBox() bool     { return false }

func (f *GaussianFilter) Eval(x Real) Real {
	v := math.Exp(-f.alpha*x*x) - f.shift
	if v < 0 {
		return 0
	}
	return v
}
