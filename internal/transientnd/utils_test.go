package transientnd

import (
	"math"
	"testing"
)

func TestIsFinite(t *testing.T) {
	if !isFinite(0) || !isFinite(-1e300) {
		t.Fatal("finite values rejected")
	}
	if isFinite(math.NaN()) || isFinite(math.Inf(1)) || isFinite(math.Inf(-1)) {
		t.Fatal("non-finite values accepted")
	}
}

func TestEqualInts(t *testing.T) {
	if !equalInts(nil, nil) || !equalInts([]int{1, 2}, []int{1, 2}) {
		t.Fatal("equal slices rejected")
	}
	if equalInts([]int{1}, []int{1, 2}) || equalInts([]int{1, 2}, []int{1, 3}) {
		t.Fatal("unequal slices accepted")
	}
}

func TestProdInts(t *testing.T) {
	if prodInts(nil) != 1 {
		t.Fatal("empty product must be 1")
	}
	if prodInts([]int{4, 6, 5}) != 120 {
		t.Fatal("product wrong")
	}
}
