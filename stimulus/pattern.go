package stimulus

import (
	"fmt"
	"math/rand"
	"sort"
)

// A Generator produces a vector of n cycles within the given bounds.
type Generator func(n int, b Bounds, rng *rand.Rand) Vector

var generators = map[string]Generator{
	"zero":        Zero,
	"ones":        Ones,
	"alternating": Alternating,
	"random":      Random,
}

// Patterns lists the names accepted by Generate.
func Patterns() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Generate builds a vector with the named pattern.
func Generate(pattern string, n int, b Bounds, rng *rand.Rand) (Vector, error) {
	gen, ok := generators[pattern]
	if !ok {
		return nil, fmt.Errorf("unknown stimulus pattern %q, expected one of %v",
			pattern, Patterns())
	}

	if n <= 0 {
		return nil, fmt.Errorf("stimulus length must be positive, got %d", n)
	}

	return gen(n, b, rng), nil
}

// Zero reads address zero with all-zero data and mask every cycle.
func Zero(n int, _ Bounds, _ *rand.Rand) Vector {
	return repeat(n, Tuple{Op: Read})
}

// Ones writes all-ones data to address zero with a full mask every cycle.
func Ones(n int, b Bounds, _ *rand.Rand) Vector {
	return repeat(n, Tuple{
		Op:     Write,
		DataIn: b.DataMax(),
		WMask:  b.WMaskMax(),
	})
}

// Alternating toggles between writing all-ones and zeros to address one, so
// that every data bit switches every cycle.
func Alternating(n int, b Bounds, _ *rand.Rand) Vector {
	v := make(Vector, n)
	for i := range v {
		t := Tuple{Op: Write, Addr: AddrOne, WMask: b.WMaskMax()}
		if i%2 == 0 {
			t.DataIn = b.DataMax()
		}

		v[i] = t
	}

	return v
}

// Random draws every field uniformly within the bounds.
func Random(n int, b Bounds, rng *rand.Rand) Vector {
	v := make(Vector, n)
	for i := range v {
		v[i] = Tuple{
			Op:     Op(rng.Intn(2)),
			DataIn: uniform(rng, b.DataMax()),
			Addr:   uniform(rng, b.AddrMax()),
			WMask:  uniform(rng, b.WMaskMax()),
		}
	}

	return v
}

// uniform relies on max being of the form 2^w-1.
func uniform(rng *rand.Rand, max uint64) uint64 {
	return rng.Uint64() & max
}

func repeat(n int, t Tuple) Vector {
	v := make(Vector, n)
	for i := range v {
		v[i] = t
	}

	return v
}
