package sim

import (
	"fmt"
	"math/bits"

	"github.com/qknit-team/qknit-engine/pauli"
	"gonum.org/v1/gonum/floats"
)

// TermExpectation evaluates one observable term against the quasi-distribution
// of a sub-experiment. The lowest numQPDBits classical bits are QPD
// measurement outcomes whose parity flips the sign of each contribution; the
// remaining bits hold the measurements of the group's general observable, one
// per entry of PauliIndices.
func TermExpectation(dist QuasiDist, numQPDBits int, group *pauli.CommutingObservableGroup, term pauli.Pauli) (float64, error) {
	if term.NumQubits() != group.NumQubits() {
		return 0, fmt.Errorf("observable term %s does not match the qubit count (%d) of the group",
			term.String(), group.NumQubits())
	}
	if !term.QubitwiseCompatibleWith(group.GeneralObservable) {
		return 0, fmt.Errorf("observable term %s is not measurable from group %s",
			term.String(), group.GeneralObservable.String())
	}
	var termMask uint64
	for i, q := range group.PauliIndices {
		if term.At(q) != pauli.I {
			termMask |= 1 << uint(numQPDBits+i)
		}
	}
	var qpdMask uint64 = (1 << uint(numQPDBits)) - 1

	contributions := make([]float64, 0, len(dist))
	for key, val := range dist {
		sign := 1.0
		if bits.OnesCount64(key&termMask)%2 == 1 {
			sign = -sign
		}
		if bits.OnesCount64(key&qpdMask)%2 == 1 {
			sign = -sign
		}
		contributions = append(contributions, sign*val)
	}
	return floats.Sum(contributions), nil
}
