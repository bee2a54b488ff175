package qpd

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"
)

// WeightType records the provenance of a weight coefficient.
type WeightType int

const (
	Exact   WeightType = iota + 1 // closed-form coefficient from the decomposition
	Sampled                       // Monte-Carlo estimate
)

func (w WeightType) String() string {
	switch w {
	case Exact:
		return "exact"
	case Sampled:
		return "sampled"
	default:
		return "unknown"
	}
}

// Weight is one combination of basis choices across all cut gates, together
// with its coefficient.
type Weight struct {
	BasisIDs    []int
	Coefficient float64
	Kind        WeightType
}

// GenerateWeights enumerates the combinations of decomposition terms across
// all bases. When the full cartesian product fits within numSamples, every
// combination is returned with its closed-form coefficient tagged Exact.
// Otherwise combinations are sampled proportionally to the magnitude of
// their coefficients and tagged Sampled. The returned weights are ordered
// lexicographically by basis IDs either way. rng may be nil unless
// reproducible sampling is required.
func GenerateWeights(bases []*Basis, numSamples float64, rng *rand.Rand) ([]Weight, error) {
	if numSamples <= 0 {
		return nil, fmt.Errorf("number of samples(%g) must be positive", numSamples)
	}
	if len(bases) == 0 {
		// a circuit without cuts has exactly one experiment with unit weight
		return []Weight{{BasisIDs: []int{}, Coefficient: 1.0, Kind: Exact}}, nil
	}
	total := 1.0
	for _, b := range bases {
		total *= float64(len(b.Coeffs))
	}
	if total <= numSamples {
		weights := enumerateExact(bases)
		zap.L().Debug(fmt.Sprintf("generated %d exact weight(s) from %d basis(es)",
			len(weights), len(bases)))
		return weights, nil
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	weights := sampleWeights(bases, int(numSamples), rng)
	zap.L().Debug(fmt.Sprintf("sampled %d weight(s) from %d basis(es)",
		len(weights), len(bases)))
	return weights, nil
}

func enumerateExact(bases []*Basis) []Weight {
	ids := make([]int, len(bases))
	weights := []Weight{}
	for {
		coeff := 1.0
		for i, b := range bases {
			coeff *= b.Coeffs[ids[i]]
		}
		weights = append(weights, Weight{
			BasisIDs:    append([]int(nil), ids...),
			Coefficient: coeff,
			Kind:        Exact,
		})
		// odometer increment, last basis fastest
		i := len(ids) - 1
		for ; i >= 0; i-- {
			ids[i]++
			if ids[i] < len(bases[i].Coeffs) {
				break
			}
			ids[i] = 0
		}
		if i < 0 {
			return weights
		}
	}
}

func sampleWeights(bases []*Basis, numSamples int, rng *rand.Rand) []Weight {
	kappa := 1.0
	for _, b := range bases {
		kappa *= b.Kappa()
	}
	type tally struct {
		count int
		sign  float64
	}
	counts := map[string]*tally{}
	idsOf := map[string][]int{}
	for s := 0; s < numSamples; s++ {
		ids := make([]int, len(bases))
		sign := 1.0
		for i, b := range bases {
			id := sampleIndex(b, rng)
			ids[i] = id
			if b.Coeffs[id] < 0 {
				sign = -sign
			}
		}
		key := fmt.Sprint(ids)
		if _, ok := counts[key]; !ok {
			counts[key] = &tally{sign: sign}
			idsOf[key] = ids
		}
		counts[key].count++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	weights := make([]Weight, 0, len(keys))
	for _, k := range keys {
		t := counts[k]
		weights = append(weights, Weight{
			BasisIDs:    idsOf[k],
			Coefficient: kappa * t.sign * float64(t.count) / float64(numSamples),
			Kind:        Sampled,
		})
	}
	sort.Slice(weights, func(i, j int) bool {
		return lessIDs(weights[i].BasisIDs, weights[j].BasisIDs)
	})
	return weights
}

func sampleIndex(b *Basis, rng *rand.Rand) int {
	r := rng.Float64() * b.Kappa()
	acc := 0.0
	for i, c := range b.Coeffs {
		acc += math.Abs(c)
		if r < acc {
			return i
		}
	}
	return len(b.Coeffs) - 1
}

func lessIDs(a, b []int) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
