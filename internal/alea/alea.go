// Package alea is a Go port of the "Alea" PRNG (Johannes Baagøe's
// Marsaglia multiply-with-carry generator, originally a JavaScript
// micro-library), seeded deterministically from a video ID so that the
// per-video "random time" is stable across requests and servers.
package alea

const (
	two32        = 4294967296.0
	two32Inverse = 2.3283064365386963e-10 // 1 / 2^32
)

// toUint32 replicates JavaScript's ToUint32 abstract operation on a finite
// float64: truncate toward zero, then reduce modulo 2^32 into [0, 2^32).
func toUint32(x float64) uint32 {
	t := trunc(x)
	m := mod(t, two32)
	if m < 0 {
		m += two32
	}
	return uint32(m)
}

// toInt32 replicates JavaScript's ToInt32: same as ToUint32, reinterpreted
// as a signed 32-bit value.
func toInt32(x float64) int32 {
	return int32(toUint32(x))
}

func trunc(x float64) float64 {
	if x < 0 {
		return -float64(int64(-x))
	}
	return float64(int64(x))
}

func mod(x, y float64) float64 {
	q := trunc(x / y)
	return x - q*y
}

// mash is Baagøe's string-hashing helper used to derive the generator's
// initial state. It carries accumulator state (n) across calls, which
// matters: Alea.New calls it six times against the same two inputs and
// relies on the accumulator producing six different outputs.
type mash struct {
	n float64
}

func newMash() *mash {
	return &mash{n: 0xefc8249d}
}

func (m *mash) hash(data string) float64 {
	for i := 0; i < len(data); i++ {
		m.n += float64(data[i])
		h := 0.02519603282416938 * m.n
		n1 := float64(toUint32(h))
		h -= n1
		h *= n1
		n2 := float64(toUint32(h))
		h -= n2
		m.n = n2 + h*two32
	}
	return float64(toUint32(m.n)) * two32Inverse
}

// Alea is a seeded pseudo-random number generator. It is NOT
// cryptographically secure; it exists purely for deterministic,
// reproducible "random" selection keyed off a video ID.
type Alea struct {
	s0, s1, s2 float64
	c          float64
}

// New seeds a generator from seed (typically a video ID), matching the
// upstream alea_js crate's Alea::new(seed) exactly.
func New(seed string) *Alea {
	m := newMash()
	a := &Alea{c: 1}
	a.s0 = m.hash(" ")
	a.s1 = m.hash(" ")
	a.s2 = m.hash(" ")

	a.s0 -= m.hash(seed)
	if a.s0 < 0 {
		a.s0 += 1
	}
	a.s1 -= m.hash(seed)
	if a.s1 < 0 {
		a.s1 += 1
	}
	a.s2 -= m.hash(seed)
	if a.s2 < 0 {
		a.s2 += 1
	}
	return a
}

// Random returns the next draw in [0, 1).
func (a *Alea) Random() float64 {
	t := 2091639*a.s0 + a.c*two32Inverse
	a.s0 = a.s1
	a.s1 = a.s2
	c := toInt32(t)
	a.c = float64(c)
	a.s2 = t - float64(c)
	return a.s2
}
