package histogram

import (
	"errors"
	"fmt"
	"sort"
)

// Validation errors returned by Build.
var (
	// ErrEmptyInput is returned when no leaf-pair histograms are supplied.
	ErrEmptyInput = errors.New("histogram: empty input")

	// ErrBadDistance is returned when an observed distance is not a
	// positive integer.
	ErrBadDistance = errors.New("histogram: distance must be >= 1")

	// ErrBadFrequency is returned when an observed frequency is outside (0,1].
	ErrBadFrequency = errors.New("histogram: frequency must be in (0,1]")

	// ErrSelfPair is returned when a leaf is paired with itself.
	ErrSelfPair = errors.New("histogram: leaf paired with itself")

	// ErrBadCutoff is returned when the constraint frequency cutoff is
	// outside (0,1].
	ErrBadCutoff = errors.New("histogram: cutoff must be in (0,1]")
)

// Observation is one (dist, freq) sample from an input leaf-pair histogram.
type Observation struct {
	Dist int
	Freq float64
}

// PairRecord is one input record: an unordered leaf pair and its observed
// distance histogram, as described in the external input contract.
type PairRecord struct {
	LeafA, LeafB string
	Observations []Observation
}

// PairKey is the canonical (sorted) representation of an unordered leaf pair.
type PairKey [2]string

// KeyOf returns the canonical key for an unordered pair of leaf names.
func KeyOf(a, b string) PairKey {
	if a <= b {
		return PairKey{a, b}
	}
	return PairKey{b, a}
}

func (k PairKey) String() string {
	return fmt.Sprintf("{%s,%s}", k[0], k[1])
}

// LPDF is a LeafPairDistanceFrequency triple: an unordered leaf pair, a
// positive integer distance, and a frequency in (0,1]. LPDFs are immutable
// once built.
type LPDF struct {
	Pair PairKey
	Dist int
	Freq float64
}

// PairHistogramMap maps a leaf pair to its full observed distance/frequency
// histogram (dist -> freq), independent of any constraint-table cutoff.
type PairHistogramMap map[PairKey]map[int]float64

func validateRecord(r PairRecord) error {
	if r.LeafA == r.LeafB {
		return fmt.Errorf("%w: %q", ErrSelfPair, r.LeafA)
	}
	for _, o := range r.Observations {
		if o.Dist < 1 {
			return fmt.Errorf("%w: got %d for pair %s", ErrBadDistance, o.Dist, KeyOf(r.LeafA, r.LeafB))
		}
		if o.Freq <= 0 || o.Freq > 1 {
			return fmt.Errorf("%w: got %v for pair %s", ErrBadFrequency, o.Freq, KeyOf(r.LeafA, r.LeafB))
		}
	}
	return nil
}

// buildHistogramMap assembles the full PairHistogramMap and the sorted
// (freq descending) per-pair observation lists used by constraint-table
// construction.
func buildHistogramMap(records []PairRecord) (PairHistogramMap, map[PairKey][]Observation, error) {
	phm := make(PairHistogramMap, len(records))
	sorted := make(map[PairKey][]Observation, len(records))

	for _, r := range records {
		if err := validateRecord(r); err != nil {
			return nil, nil, err
		}
		key := KeyOf(r.LeafA, r.LeafB)
		byDist := make(map[int]float64, len(r.Observations))
		obs := make([]Observation, len(r.Observations))
		copy(obs, r.Observations)
		for _, o := range obs {
			byDist[o.Dist] = o.Freq
		}
		phm[key] = byDist

		sort.SliceStable(obs, func(i, j int) bool { return obs[i].Freq > obs[j].Freq })
		sorted[key] = obs
	}
	return phm, sorted, nil
}
