package transientnd

import (
	"math"
	"runtime"
	"sync"
	"sync/atomic"
)

// scratch holds per-call working memory for the splatting paths. Workers
// own one scratch each so concurrent Put calls never share mutable state.
type scratch struct {
	weights []Real
	lo      [MaxDims]int
	hi      [MaxDims]int
	base    [MaxDims]int // first index per axis into weights
	idxs    [MaxDims]int
	coord   [MaxDims]Real
}

func (b *Block) newScratch() *scratch {
	return &scratch{weights: make([]Real, b.tapsTotal)}
}

// Put splats one sample into the block and echoes the active flag. pos
// holds one continuous coordinate per axis (time last, in bin units);
// values holds one entry per non-weight channel. Inactive samples and
// samples whose filter support lies fully outside the buffer contribute
// nothing; they never raise.
//
// Put is safe for concurrent use. Deposits are plain additions behind
// shard locks, so the final buffer state does not depend on the order in
// which samples are processed.
func (b *Block) Put(pos, values []Real, active bool) bool {
	return b.put(pos, values, active, b.newScratch())
}

func (b *Block) put(pos, values []Real, active bool, s *scratch) bool {
	if !active {
		return active
	}
	if b.filters == nil {
		panic("transientnd: block has no filter configured")
	}
	ndim := len(b.size)
	if len(pos) != ndim || len(values) != b.channelCount-1 {
		panic("transientnd: sample rank does not match block configuration")
	}
	// Translate to buffer-local coordinates: once the allocation border is
	// added and the half-cell shift removed, cell centers sit at integers.
	for j := 0; j < ndim; j++ {
		s.coord[j] = pos[j] - (Real(b.offset[j]) - Real(b.borderSize[j]+b.borderOffset[j]) + 0.5)
	}
	if b.allBox {
		b.putBox(values, s, ndim)
	} else {
		b.putGeneral(values, s, ndim)
	}
	return active
}

// putBox is the fast path: every axis filter is a box of radius <= 0.5,
// so the sample lands in exactly one cell.
func (b *Block) putBox(values []Real, s *scratch, ndim int) {
	base := 0
	for j := 0; j < ndim; j++ {
		c := int(math.Floor(s.coord[j] + 0.5))
		// Valid cells form the half-open window shared with the general
		// path: [borderOffset, physSize-borderOffset) per axis.
		if c < b.borderOffset[j] || c >= b.physSize[j]-b.borderOffset[j] {
			return
		}
		base += c * b.stride[j]
	}
	b.deposit(base, values, 1)
}

// putGeneral handles wide or non-box kernels: evaluate per-axis tap
// weights once, then walk the tap lattice with a mixed-radix counter. The
// Cartesian product is never materialized; per-sample cost is bounded by
// the product of the tap counts.
func (b *Block) putGeneral(values []Real, s *scratch, ndim int) {
	for j := 0; j < ndim; j++ {
		winLo := b.borderOffset[j]
		winHi := b.physSize[j] - 1 - b.borderOffset[j]
		lo := int(math.Ceil(s.coord[j] - b.radius[j]))
		hi := int(math.Floor(s.coord[j] + b.radius[j]))
		if lo < winLo {
			lo = winLo
		}
		if hi > winHi {
			hi = winHi
		}
		if lo > hi {
			// Support entirely outside the window on this axis.
			return
		}
		s.lo[j], s.hi[j] = lo, hi
	}

	// Per-axis kernel weights at integer taps offset from the fractional
	// sample position.
	bi := 0
	for j := 0; j < ndim; j++ {
		s.base[j] = bi
		n := b.taps[j]
		rel := Real(s.lo[j]) - s.coord[j]
		for i := 0; i < n; i++ {
			s.weights[bi+i] = b.filters[j].Eval(rel + Real(i))
		}
		if b.normalize {
			sum := Real(0)
			for i := 0; i < n; i++ {
				sum += s.weights[bi+i]
			}
			if sum > 0 {
				inv := 1 / sum
				for i := 0; i < n; i++ {
					s.weights[bi+i] *= inv
				}
			}
		}
		bi += n
	}

	for j := 0; j < ndim; j++ {
		s.idxs[j] = 0
	}
	for {
		w := Real(1)
		base := 0
		inRange := true
		for j := 0; j < ndim && inRange; j++ {
			c := s.lo[j] + s.idxs[j]
			// Boundary clipping can leave fewer valid cells than taps.
			if c > s.hi[j] {
				inRange = false
				break
			}
			w *= s.weights[s.base[j]+s.idxs[j]]
			base += c * b.stride[j]
		}
		if inRange && w != 0 {
			b.deposit(base, values, w)
		}

		// Mixed-radix carry over the per-axis tap counts.
		j := 0
		for ; j < ndim; j++ {
			s.idxs[j]++
			if s.idxs[j] < b.taps[j] {
				break
			}
			s.idxs[j] = 0
		}
		if j == ndim {
			break
		}
	}
}

// deposit adds w-weighted channel values plus w itself (weight channel)
// at the flat cell index. Addition is associative and commutative; the
// shard lock only prevents lost updates between concurrent writers.
func (b *Block) deposit(base int, values []Real, w Real) {
	if UseLocks {
		b.locks.lock(base)
		for k, v := range values {
			b.buf[base+k] += v * w
		}
		b.buf[base+b.channelCount-1] += w
		b.locks.unlock(base)
		return
	}
	for k, v := range values {
		b.buf[base+k] += v * w
	}
	b.buf[base+b.channelCount-1] += w
}

// PutSamples accumulates a batch in parallel: one worker per CPU, each
// with its own scratch, all depositing through the shard locks. Splitting
// a sample set into arbitrary sub-batches leaves the result unchanged up
// to float addition rounding.
func (b *Block) PutSamples(samples []Sample) {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	if workers > len(samples) {
		workers = len(samples)
	}
	if workers <= 1 {
		s := b.newScratch()
		for i := range samples {
			b.put(samples[i].Pos, samples[i].Values, samples[i].Active, s)
		}
		return
	}

	var done int64
	chunk := (len(samples) + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(samples))
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(part []Sample) {
			defer wg.Done()
			s := b.newScratch()
			for i := range part {
				b.put(part[i].Pos, part[i].Values, part[i].Active, s)
			}
			atomic.AddInt64(&done, int64(len(part)))
		}(samples[lo:hi])
	}
	wg.Wait()
	DebugLog("Accumulated %d samples", atomic.LoadInt64(&done))
}
