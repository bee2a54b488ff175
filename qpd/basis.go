package qpd

import (
	"fmt"
	"math"

	"github.com/qknit-team/qknit-engine/circuit"
)

// QPDMeasure marks a mid-circuit measurement inside a decomposition map.
// It is a placeholder: instantiation replaces it with a measurement into the
// qpd_measurements register of the sub-experiment circuit.
type QPDMeasure struct{}

func (m QPDMeasure) Name() string   { return "qpd_measure" }
func (m QPDMeasure) NumQubits() int { return 1 }
func (m QPDMeasure) NumClbits() int { return 0 }

// Map is one decomposition term: a sequence of local operations per leg of
// the decomposed gate.
type Map [][]circuit.Operation

// Basis enumerates the decomposition of a nonlocal gate into locally
// executable maps with signed coefficients.
type Basis struct {
	Maps   []Map
	Coeffs []float64
}

func NewBasis(maps []Map, coeffs []float64) (*Basis, error) {
	if len(maps) == 0 {
		return nil, fmt.Errorf("basis must have at least one map")
	}
	if len(maps) != len(coeffs) {
		return nil, fmt.Errorf("basis has %d map(s) but %d coefficient(s)", len(maps), len(coeffs))
	}
	legs := len(maps[0])
	if legs == 0 {
		return nil, fmt.Errorf("basis maps must have at least one leg")
	}
	for i, m := range maps {
		if len(m) != legs {
			return nil, fmt.Errorf("map %d has %d leg(s) but map 0 has %d", i, len(m), legs)
		}
		for leg, ops := range m {
			for _, op := range ops {
				if op.NumQubits() != 1 {
					return nil, fmt.Errorf("map %d leg %d contains non-local operation:%s",
						i, leg, op.Name())
				}
			}
		}
	}
	b := &Basis{Coeffs: append([]float64(nil), coeffs...)}
	b.Maps = append(b.Maps, maps...)
	return b, nil
}

// NumLegs is the number of qubits the decomposed gate acts on.
func (b *Basis) NumLegs() int {
	return len(b.Maps[0])
}

// Kappa is the 1-norm of the coefficients, the sampling overhead base of
// the decomposition.
func (b *Basis) Kappa() float64 {
	k := 0.0
	for _, c := range b.Coeffs {
		k += math.Abs(c)
	}
	return k
}

// MidCircuitMeasurements counts the QPDMeasure placeholders in the given map.
func (b *Basis) MidCircuitMeasurements(basisID int) int {
	n := 0
	for leg := range b.Maps[basisID] {
		n += b.LegMidCircuitMeasurements(basisID, leg)
	}
	return n
}

// LegMidCircuitMeasurements counts the QPDMeasure placeholders on one leg of
// the given map.
func (b *Basis) LegMidCircuitMeasurements(basisID, leg int) int {
	n := 0
	for _, op := range b.Maps[basisID][leg] {
		if _, ok := op.(QPDMeasure); ok {
			n++
		}
	}
	return n
}

func (b *Basis) Equal(o *Basis) bool {
	if len(b.Maps) != len(o.Maps) || len(b.Coeffs) != len(o.Coeffs) {
		return false
	}
	for i := range b.Coeffs {
		if b.Coeffs[i] != o.Coeffs[i] {
			return false
		}
	}
	for i := range b.Maps {
		if len(b.Maps[i]) != len(o.Maps[i]) {
			return false
		}
		for leg := range b.Maps[i] {
			if len(b.Maps[i][leg]) != len(o.Maps[i][leg]) {
				return false
			}
			for k := range b.Maps[i][leg] {
				if !circuit.OperationsEqual(b.Maps[i][leg][k], o.Maps[i][leg][k]) {
					return false
				}
			}
		}
	}
	return true
}
