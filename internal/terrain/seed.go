package terrain

import "math"

// splitmix64 is the finaliser of the SplitMix64 generator. It is used as a
// hash so that every node gets an independent, position-derived stream.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// nodeSeed derives the two PCG seed words for the node centred on (x, z).
func nodeSeed(seed uint64, x, z float64) (uint64, uint64) {
	h := splitmix64(seed)
	h = splitmix64(h ^ math.Float64bits(x))
	h = splitmix64(h ^ math.Float64bits(z))
	return h, splitmix64(h)
}
