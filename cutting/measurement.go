package cutting

import (
	"fmt"

	"github.com/qknit-team/qknit-engine/circuit"
	"github.com/qknit-team/qknit-engine/pauli"
)

// ObservableRegisterName is the classical register holding the measurements
// of a commuting observable group.
const ObservableRegisterName = "observable_measurements"

// QPDRegisterName is the classical register holding mid-circuit QPD
// measurement outcomes.
const QPDRegisterName = "qpd_measurements"

type measurementOptions struct {
	qubitLocations []int
	inplace        bool
}

type MeasurementOption func(*measurementOptions)

// WithQubitLocations maps observable qubit i onto circuit qubit locations[i]
// instead of the identity mapping.
func WithQubitLocations(locations []int) MeasurementOption {
	return func(o *measurementOptions) {
		o.qubitLocations = locations
	}
}

// WithInPlace mutates and returns the input circuit instead of a copy.
func WithInPlace(inplace bool) MeasurementOption {
	return func(o *measurementOptions) {
		o.inplace = inplace
	}
}

// AppendMeasurementCircuit appends the basis rotations and measurements of a
// commuting observable group onto the circuit, into a fresh
// observable_measurements register sized to the group.
func AppendMeasurementCircuit(qc *circuit.Circuit, group *pauli.CommutingObservableGroup, opts ...MeasurementOption) (*circuit.Circuit, error) {
	var o measurementOptions
	for _, opt := range opts {
		opt(&o)
	}

	locations := o.qubitLocations
	if locations != nil {
		if len(locations) != group.NumQubits() {
			return nil, invalidInputf("qubit_locations has %d element(s) but the observable(s) have %d qubit(s)",
				len(locations), group.NumQubits())
		}
	} else {
		if qc.NumQubits() != group.NumQubits() {
			return nil, invalidInputf("quantum circuit qubit count (%d) does not match qubit count of observable(s) (%d); "+
				"try providing qubit locations explicitly", qc.NumQubits(), group.NumQubits())
		}
		locations = make([]int, group.NumQubits())
		for i := range locations {
			locations[i] = i
		}
	}

	target := qc
	if !o.inplace {
		target = qc.Copy()
	}

	if group.NumMeasurements() == 0 {
		// identity observable, nothing to measure
		return target, nil
	}
	if err := target.AddRegister(ObservableRegisterName, group.NumMeasurements()); err != nil {
		return nil, err
	}
	offset, err := target.RegisterOffset(ObservableRegisterName)
	if err != nil {
		return nil, err
	}

	for i, q := range group.PauliIndices {
		loc := locations[q]
		switch group.GeneralObservable.At(q) {
		case pauli.X:
			if err := target.H(loc); err != nil {
				return nil, err
			}
		case pauli.Y:
			if err := target.Sdg(loc); err != nil {
				return nil, err
			}
			if err := target.H(loc); err != nil {
				return nil, err
			}
		case pauli.Z:
			// computational basis, no rotation
		default:
			return nil, fmt.Errorf("unexpected operator:%c in general observable %s",
				group.GeneralObservable.At(q), group.GeneralObservable.String())
		}
		if err := target.Measure(loc, offset+i); err != nil {
			return nil, err
		}
	}
	return target, nil
}
