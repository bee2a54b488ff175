package cutting

import (
	"fmt"

	"github.com/qknit-team/qknit-engine/circuit"
	"github.com/qknit-team/qknit-engine/common"
	"github.com/qknit-team/qknit-engine/pauli"
	"github.com/qknit-team/qknit-engine/qpd"
	"go.uber.org/zap"
)

// PartitionedProblem is the result of separating a circuit along per-qubit
// partition labels.
type PartitionedProblem struct {
	Subcircuits    map[string]*circuit.Circuit
	Bases          map[string]*qpd.Basis
	Subobservables map[string]pauli.PauliList
}

// PartitionProblem separates a circuit into one subcircuit per partition
// label. Gates inside a partition are copied with remapped qubit indices;
// two-qubit gates spanning partitions are cut into paired single-qubit QPD
// gates sharing a generated cut label. Observables are restricted to each
// subsystem.
func PartitionProblem(qc *circuit.Circuit, partitionLabels string, observables pauli.PauliList) (*PartitionedProblem, error) {
	if len(partitionLabels) != qc.NumQubits() {
		return nil, invalidInputf("partition labels have %d element(s) but the circuit has %d qubit(s)",
			len(partitionLabels), qc.NumQubits())
	}
	if len(observables) > 0 && observables.NumQubits() != qc.NumQubits() {
		return nil, invalidInputf("observables have %d qubit(s) but the circuit has %d qubit(s)",
			observables.NumQubits(), qc.NumQubits())
	}
	if qc.HasClassicalStorage() {
		return nil, invalidInputf("circuits input to PartitionProblem should contain no classical registers or bits")
	}

	labelOf := make([]string, qc.NumQubits())
	localOf := make([]int, qc.NumQubits())
	qubitsByLabel := map[string][]int{}
	for q := 0; q < qc.NumQubits(); q++ {
		l := string(partitionLabels[q])
		labelOf[q] = l
		localOf[q] = len(qubitsByLabel[l])
		qubitsByLabel[l] = append(qubitsByLabel[l], q)
	}

	subcircuits := map[string]*circuit.Circuit{}
	for l, qubits := range qubitsByLabel {
		subcircuits[l] = circuit.New(len(qubits))
	}

	bases := map[string]*qpd.Basis{}
	cutIndex := 0
	for _, inst := range qc.Instructions {
		switch op := inst.Op.(type) {
		case circuit.Measure:
			return nil, invalidInputf("circuits with measurements cannot be partitioned")
		case circuit.Gate:
			switch op.Qubits {
			case 1:
				l := labelOf[inst.Qubits[0]]
				if err := subcircuits[l].Append(op, []int{localOf[inst.Qubits[0]]}); err != nil {
					return nil, err
				}
			case 2:
				a, b := inst.Qubits[0], inst.Qubits[1]
				if labelOf[a] == labelOf[b] {
					if err := subcircuits[labelOf[a]].Append(op,
						[]int{localOf[a], localOf[b]}); err != nil {
						return nil, err
					}
					continue
				}
				basis, err := qpd.BasisForGate(op.GateName)
				if err != nil {
					return nil, invalidInputf("gate:%s spans partitions %s and %s but cannot be cut: %s",
						op.GateName, labelOf[a], labelOf[b], err.Error())
				}
				if err := appendCutGate(subcircuits, basis, fmt.Sprintf("cut_%s_%d", op.GateName, cutIndex),
					labelOf, localOf, a, b, bases); err != nil {
					return nil, err
				}
				cutIndex++
			default:
				return nil, invalidInputf("gate:%s acting on %d qubits cannot be partitioned",
					op.GateName, op.Qubits)
			}
		case *qpd.TwoQubitGate:
			a, b := inst.Qubits[0], inst.Qubits[1]
			if labelOf[a] == labelOf[b] {
				if err := subcircuits[labelOf[a]].Append(op,
					[]int{localOf[a], localOf[b]}); err != nil {
					return nil, err
				}
				continue
			}
			label := op.Label
			if label == "" {
				label = fmt.Sprintf("cut_%d", cutIndex)
			}
			if err := appendCutGate(subcircuits, op.Basis, label,
				labelOf, localOf, a, b, bases); err != nil {
				return nil, err
			}
			cutIndex++
		default:
			return nil, invalidInputf("operation:%s cannot be partitioned", inst.Op.Name())
		}
	}

	subobservables := map[string]pauli.PauliList{}
	for l, qubits := range qubitsByLabel {
		restricted, err := pauli.ObservablesRestrictedToSubsystem(qubits, observables)
		if err != nil {
			return nil, err
		}
		subobservables[l] = restricted
	}

	zap.L().Debug(fmt.Sprintf("partitioned a %d-qubit circuit into %d subcircuit(s) with cut label(s):%v",
		qc.NumQubits(), len(subcircuits), common.SortedLabels(bases)))
	return &PartitionedProblem{
		Subcircuits:    subcircuits,
		Bases:          bases,
		Subobservables: subobservables,
	}, nil
}

// appendCutGate replaces one nonlocal gate with a pair of single-qubit QPD
// gates sharing a cut label, one per spanned partition.
func appendCutGate(subcircuits map[string]*circuit.Circuit, basis *qpd.Basis, label string,
	labelOf []string, localOf []int, a, b int, bases map[string]*qpd.Basis) error {
	if prev, ok := bases[label]; ok && !prev.Equal(basis) {
		return invalidInputf("conflicting bases for cut label:%s", label)
	}
	bases[label] = basis
	for leg, q := range []int{a, b} {
		g, err := qpd.NewSingleQubitGate(basis, leg, label)
		if err != nil {
			return err
		}
		if err := subcircuits[labelOf[q]].Append(g, []int{localOf[q]}); err != nil {
			return err
		}
	}
	return nil
}
