package pauli

import (
	"fmt"

	"go.uber.org/zap"
)

// CommutingObservableGroup is a set of qubitwise commuting observables
// together with the general observable that covers all of them. Every term
// can be measured from the outcome of a single basis-rotated measurement of
// the general observable.
type CommutingObservableGroup struct {
	GeneralObservable Pauli
	Commuting         []Pauli

	// PauliIndices lists the qubits on which the general observable acts
	// non-trivially, in ascending order. One classical measurement bit is
	// needed per entry.
	PauliIndices []int
}

func NewCommutingObservableGroup(general Pauli, commuting []Pauli) (*CommutingObservableGroup, error) {
	for _, term := range commuting {
		if term.NumQubits() != general.NumQubits() {
			return nil, fmt.Errorf("observable %s does not match the qubit count (%d) of the general observable",
				term.String(), general.NumQubits())
		}
		if !term.QubitwiseCompatibleWith(general) {
			return nil, fmt.Errorf("observable %s is not qubitwise compatible with general observable %s",
				term.String(), general.String())
		}
	}
	indices := []int{}
	for q := 0; q < general.NumQubits(); q++ {
		if general.At(q) != I {
			indices = append(indices, q)
		}
	}
	return &CommutingObservableGroup{
		GeneralObservable: general,
		Commuting:         commuting,
		PauliIndices:      indices,
	}, nil
}

func (g *CommutingObservableGroup) NumQubits() int {
	return g.GeneralObservable.NumQubits()
}

// NumMeasurements is the number of classical bits a measurement of this
// group occupies.
func (g *CommutingObservableGroup) NumMeasurements() int {
	return len(g.PauliIndices)
}

// GroupCommutingObservables partitions the observables into qubitwise
// commuting groups by a greedy first-fit pass. The order of observables
// within the returned groups follows the input order.
func GroupCommutingObservables(observables PauliList) ([]*CommutingObservableGroup, error) {
	type protoGroup struct {
		general []Op
		terms   []Pauli
	}
	protos := []*protoGroup{}
	numQubits := observables.NumQubits()
	for _, obs := range observables {
		if obs.NumQubits() != numQubits {
			return nil, fmt.Errorf("observable %s does not match the qubit count of the list (%d)",
				obs.String(), numQubits)
		}
		placed := false
		for _, pg := range protos {
			if fitsGroup(obs, pg.general) {
				mergeGeneral(obs, pg.general)
				pg.terms = append(pg.terms, obs)
				placed = true
				break
			}
		}
		if !placed {
			general := make([]Op, numQubits)
			for q := range general {
				general[q] = I
			}
			mergeGeneral(obs, general)
			protos = append(protos, &protoGroup{general: general, terms: []Pauli{obs}})
		}
	}
	groups := make([]*CommutingObservableGroup, 0, len(protos))
	for _, pg := range protos {
		g, err := NewCommutingObservableGroup(Pauli{ops: pg.general}, pg.terms)
		if err != nil {
			zap.L().Error(fmt.Sprintf("failed to build a commuting observable group. Reason:%s", err.Error()))
			return nil, err
		}
		groups = append(groups, g)
	}
	zap.L().Debug(fmt.Sprintf("grouped %d observable(s) into %d commuting group(s)",
		len(observables), len(groups)))
	return groups, nil
}

func fitsGroup(obs Pauli, general []Op) bool {
	for q := 0; q < obs.NumQubits(); q++ {
		op := obs.At(q)
		if op != I && general[q] != I && general[q] != op {
			return false
		}
	}
	return true
}

func mergeGeneral(obs Pauli, general []Op) {
	for q := 0; q < obs.NumQubits(); q++ {
		if op := obs.At(q); op != I {
			general[q] = op
		}
	}
}

// ObservablesRestrictedToSubsystem restricts each observable to the given
// qubits. Qubit i of each restricted observable is qubits[i] of the original.
func ObservablesRestrictedToSubsystem(qubits []int, observables PauliList) (PauliList, error) {
	restricted := make(PauliList, 0, len(observables))
	for _, obs := range observables {
		r, err := obs.RestrictedTo(qubits)
		if err != nil {
			return nil, err
		}
		restricted = append(restricted, r)
	}
	return restricted, nil
}
