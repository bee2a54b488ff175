package cutting

import (
	"github.com/qknit-team/qknit-engine/pauli"
	"github.com/qknit-team/qknit-engine/sim"
)

// ReconstructExpectationValues recombines the quasi-distributions of an
// evaluation into one expectation value per observable term: for each term,
// the coefficient-weighted sum over basis combinations of the product of the
// per-partition restricted expectations.
func ReconstructExpectationValues(res *EvaluationResult, observables ObservableInput) ([]float64, error) {
	lists := map[string]pauli.PauliList{}
	if observables.IsPartitioned() {
		lists = observables.partitioned
	} else {
		lists[""] = observables.single
	}
	for _, l := range res.Labels {
		if _, ok := lists[l]; !ok {
			return nil, invalidInputf("no observables were passed for partition %s", l)
		}
	}

	numTerms := len(lists[res.Labels[0]])
	for _, l := range res.Labels {
		if len(lists[l]) != numTerms {
			return nil, invalidInputf("subobservable lists must have the same length across partitions")
		}
	}

	values := make([]float64, numTerms)
	for k := 0; k < numTerms; k++ {
		total := 0.0
		for w := range res.QuasiDists {
			product := res.Coefficients[w].Value
			for p, l := range res.Labels {
				term := lists[l][k]
				gIdx, err := groupIndexOf(res.Groups[l], term)
				if err != nil {
					return nil, err
				}
				sub := res.QuasiDists[w][p][gIdx]
				e, err := sim.TermExpectation(sub.QuasiDist, sub.NumQPDBits, res.Groups[l][gIdx], term)
				if err != nil {
					return nil, err
				}
				product *= e
			}
			total += product
		}
		values[k] = total
	}
	return values, nil
}

func groupIndexOf(groups []*pauli.CommutingObservableGroup, term pauli.Pauli) (int, error) {
	for i, g := range groups {
		for _, t := range g.Commuting {
			if t.Equal(term) {
				return i, nil
			}
		}
	}
	return 0, invalidInputf("observable term %s was not part of the evaluation", term.String())
}
