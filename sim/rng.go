package sim

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two runs with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical event traces.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === RNG ===

const (
	splitMixGamma = 0x9e3779b97f4a7c15
	splitMixMul1  = 0xbf58476d1ce4e5b9
	splitMixMul2  = 0x94d049bb133111eb
)

// RNG is a SplitMix64 pseudo-random stream.
//
// The output sequence is a pure function of the seed, independent of platform
// and Go version, which math/rand does not promise across major versions.
// Every draw made by the kernel (tie-breaking, pair selection, Bernoulli
// injection) goes through the single RNG owned by the RuntimeContext.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type RNG struct {
	key   SimulationKey
	state uint64
}

// NewRNG creates an RNG seeded from key.
func NewRNG(key SimulationKey) *RNG {
	r := &RNG{}
	r.Reseed(key)
	return r
}

// Reseed restarts the stream from key.
func (r *RNG) Reseed(key SimulationKey) {
	r.key = key
	r.state = uint64(key)
}

// Key returns the SimulationKey the stream was last seeded with.
func (r *RNG) Key() SimulationKey {
	return r.key
}

func (r *RNG) next() uint64 {
	r.state += splitMixGamma
	z := r.state
	z = (z ^ (z >> 30)) * splitMixMul1
	z = (z ^ (z >> 27)) * splitMixMul2
	return z ^ (z >> 31)
}

// NextLong returns the next 64 bits of the stream as a signed integer.
func (r *RNG) NextLong() int64 {
	return int64(r.next())
}

// NextInt returns a uniformly distributed index in [0, bound).
// Panics if bound <= 0.
func (r *RNG) NextInt(bound int) int {
	if bound <= 0 {
		panic("RNG.NextInt: bound must be positive")
	}
	b := uint64(bound)
	// Reject the low (2^64 mod b) values so every residue is equally likely.
	threshold := -b % b
	for {
		x := r.next()
		if x >= threshold {
			return int(x % b)
		}
	}
}

// NextDouble returns a uniformly distributed float64 in [0, 1).
func (r *RNG) NextDouble() float64 {
	return float64(r.next()>>11) * (1.0 / (1 << 53))
}

// Bernoulli returns true with probability p.
// p <= 0 never draws true, p >= 1 always does; a value is drawn from the
// stream in every case so call sites consume the same amount of randomness.
func (r *RNG) Bernoulli(p float64) bool {
	return r.NextDouble() < p
}
