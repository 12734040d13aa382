package transientnd

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Cells that never received a sample must develop to exactly zero, even
// when a value channel holds garbage without a matching weight.
func TestDevelopZeroWeight(t *testing.T) {
	b, err := NewBlock([]int{2, 2}, 2, []Filter{NewBoxFilter(0.5)}, true, false)
	if err != nil {
		t.Fatal(err)
	}
	b.Data()[0] = 5 // value without weight
	img := b.Develop(false, false)
	for i, v := range img.Data {
		if v != 0 {
			t.Fatalf("zero-weight cell %d developed to %g", i, v)
		}
		if !isFinite(v) {
			t.Fatalf("zero-weight cell %d developed to a non-finite value", i)
		}
	}
}

func TestDevelopDivides(t *testing.T) {
	b, err := NewBlock([]int{2, 2}, 3, []Filter{NewBoxFilter(0.5)}, true, false)
	if err != nil {
		t.Fatal(err)
	}
	b.Put([]Real{0.5, 0.5}, []Real{3, 9}, true)
	b.Put([]Real{0.5, 0.5}, []Real{1, 1}, true)
	img := b.Develop(false, false)
	if img.At(0, 0, 0) != 2 || img.At(0, 0, 1) != 5 {
		t.Fatalf("cell (0,0) = (%g, %g), want (2, 5)", img.At(0, 0, 0), img.At(0, 0, 1))
	}
}

// The crop removes the originally allocated border on every axis, also
// after the filter has been narrowed.
func TestDevelopCropShape(t *testing.T) {
	box := NewBoxFilter(0.5)
	b, err := NewBlock([]int{4, 3, 5}, 2, []Filter{box, box, NewGaussianFilter(1)}, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.ConfigureFilter([]Filter{box, box, NewGaussianFilter(0.5)}, true); err != nil {
		t.Fatal(err)
	}
	raw := b.Develop(false, true)
	img := b.Develop(false, false)
	for j, ob := range b.OrigBorderSize() {
		if raw.Shape[j]-2*ob != img.Shape[j] {
			t.Fatalf("axis %d: raw %d - 2*%d != cropped %d", j, raw.Shape[j], ob, img.Shape[j])
		}
	}
	if img.Shape[3] != 1 {
		t.Fatalf("cropped channel count = %d, want 1", img.Shape[3])
	}
}

func TestDevelopIdempotent(t *testing.T) {
	b, err := NewBlock([]int{3, 3}, 2, []Filter{NewTentFilter(1.5)}, true, false)
	if err != nil {
		t.Fatal(err)
	}
	b.Put([]Real{1.2, 0.7}, []Real{2}, true)
	first := b.Develop(true, false)
	second := b.Develop(true, false)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Develop is not read-only (-first +second):\n%s", diff)
	}
}

// Raw develop returns a copy; mutating it must not touch the block.
func TestDevelopRawCopy(t *testing.T) {
	b, err := NewBlock([]int{2}, 2, []Filter{NewBoxFilter(0.5)}, true, false)
	if err != nil {
		t.Fatal(err)
	}
	b.Put([]Real{0.5}, []Real{4}, true)
	raw := b.Develop(false, true)
	raw.Data[0] = -100
	if b.Data()[0] != 4 {
		t.Fatalf("raw develop aliases the buffer: element 0 = %g", b.Data()[0])
	}
}

func TestLinearToSRGB(t *testing.T) {
	if linearToSRGB(-0.5) != 0 || linearToSRGB(0) != 0 {
		t.Fatal("non-positive input must map to 0")
	}
	if got := linearToSRGB(0.001); !nearly(got, 0.01292, 1e-12) {
		t.Fatalf("linear segment: got %g", got)
	}
	if got := linearToSRGB(1); !nearly(got, 1, 1e-12) {
		t.Fatalf("sRGB(1) = %g, want 1", got)
	}
	want := 1.055*math.Pow(0.5, 1/2.4) - 0.055
	if got := linearToSRGB(0.5); !nearly(got, want, 1e-12) {
		t.Fatalf("sRGB(0.5) = %g, want %g", got, want)
	}
}

func TestTensorAtRankMismatch(t *testing.T) {
	ten := &Tensor{Shape: []int{2, 2}, Data: make([]Real, 4)}
	defer func() {
		if recover() == nil {
			t.Fatal("rank-mismatched index must panic")
		}
	}()
	ten.At(1)
}
