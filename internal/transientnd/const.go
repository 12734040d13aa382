package transientnd

// Channel indices for readability.
const (
	ChR = 0
	ChG = 1
	ChB = 2
	ChA = 3
	// The weight accumulator is always the last channel of a block.

	NumShards = 1024

	// MaxDims bounds how many axes a block supports; hot-loop scratch
	// arrays are fixed-size so they stay off the heap.
	MaxDims = 8

	// filterEps ties filter radius, border size and tap count together.
	// All three must be derived from the same epsilon or the discrete
	// taps stop covering [-radius, +radius] exactly.
	filterEps = 1e-5

	// MaxSamplesPerPass is the largest number of samples a single
	// accumulation pass may address (32-bit index space). Drivers split
	// bigger workloads into multiple passes.
	MaxSamplesPerPass = 1<<32 - 1

	// hot-loop constant reused across samples
	epsDist = 1e-6
)
