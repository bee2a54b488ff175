package qpd

import (
	"fmt"

	"github.com/qknit-team/qknit-engine/circuit"
)

// UnassignedBasisID marks a QPD gate whose decomposition term has not been
// selected yet.
const UnassignedBasisID = -1

// TwoQubitGate is a two-qubit gate replaced by a quasi-probability
// decomposition. BasisID selects one map of the basis; it must be assigned
// before the circuit can be instantiated.
type TwoQubitGate struct {
	Basis   *Basis
	Label   string
	BasisID int
}

func NewTwoQubitGate(basis *Basis, label string) (*TwoQubitGate, error) {
	if basis.NumLegs() != 2 {
		return nil, fmt.Errorf("two-qubit QPD gate requires a basis with 2 legs, got %d", basis.NumLegs())
	}
	return &TwoQubitGate{Basis: basis, Label: label, BasisID: UnassignedBasisID}, nil
}

func (g *TwoQubitGate) Name() string   { return "qpd_2q" }
func (g *TwoQubitGate) NumQubits() int { return 2 }
func (g *TwoQubitGate) NumClbits() int { return 0 }

// SingleQubitGate is one leg of a decomposed two-qubit gate, produced by
// partitioning. Gates cut from the same nonlocal gate share a Label and
// must be instantiated with the same BasisID.
type SingleQubitGate struct {
	Basis   *Basis
	QubitID int
	Label   string
	BasisID int
}

func NewSingleQubitGate(basis *Basis, qubitID int, label string) (*SingleQubitGate, error) {
	if qubitID < 0 || qubitID >= basis.NumLegs() {
		return nil, fmt.Errorf("qubit id %d is out of range for a basis with %d leg(s)",
			qubitID, basis.NumLegs())
	}
	return &SingleQubitGate{Basis: basis, QubitID: qubitID, Label: label, BasisID: UnassignedBasisID}, nil
}

func (g *SingleQubitGate) Name() string   { return "qpd_1q" }
func (g *SingleQubitGate) NumQubits() int { return 1 }
func (g *SingleQubitGate) NumClbits() int { return 0 }

// BasisForGate returns the built-in exact decomposition of a nonlocal gate.
// The cx and cz bases have six terms with coefficients of magnitude 1/2:
// two purely local phase terms and four terms that trade a mid-circuit
// measurement on one leg against a z correction on the other
// (Mitarai-Fujii style, kappa = 3).
func BasisForGate(name string) (*Basis, error) {
	switch name {
	case "cz":
		return czBasis(nil), nil
	case "cx":
		// cx is cz conjugated by h on the target leg
		return czBasis(func(leg int, ops []circuit.Operation) []circuit.Operation {
			if leg != 1 {
				return ops
			}
			wrapped := []circuit.Operation{circuit.HGate()}
			wrapped = append(wrapped, ops...)
			wrapped = append(wrapped, circuit.HGate())
			return wrapped
		}), nil
	default:
		return nil, fmt.Errorf("no built-in decomposition for gate:%s", name)
	}
}

func czBasis(conjugate func(int, []circuit.Operation) []circuit.Operation) *Basis {
	if conjugate == nil {
		conjugate = func(_ int, ops []circuit.Operation) []circuit.Operation { return ops }
	}
	leg := func(i int, ops ...circuit.Operation) []circuit.Operation {
		return conjugate(i, ops)
	}
	maps := []Map{
		{leg(0, circuit.SGate()), leg(1, circuit.SGate())},
		{leg(0, circuit.SdgGate()), leg(1, circuit.SdgGate())},
		{leg(0, QPDMeasure{}), leg(1)},
		{leg(0, QPDMeasure{}), leg(1, circuit.ZGate())},
		{leg(0), leg(1, QPDMeasure{})},
		{leg(0, circuit.ZGate()), leg(1, QPDMeasure{})},
	}
	coeffs := []float64{0.5, 0.5, 0.5, -0.5, 0.5, -0.5}
	b, err := NewBasis(maps, coeffs)
	if err != nil {
		// built-in tables are validated by construction
		panic(err)
	}
	return b
}
