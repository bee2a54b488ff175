package sim

import (
	"fmt"
	"math/rand"

	"github.com/qknit-team/qknit-engine/circuit"
)

// branches below this probability carry no weight worth tracking
const branchEps = 1e-12

// Run executes a circuit exactly, branching on every measurement, and
// returns the exact distribution over final classical bit values. Mid-circuit
// measurements and classically conditioned instructions are supported.
func Run(qc *circuit.Circuit) (QuasiDist, error) {
	state, err := NewStateVector(qc.NumQubits())
	if err != nil {
		return nil, err
	}
	dist := QuasiDist{}
	if err := runBranch(qc, 0, state, 0, 1.0, dist); err != nil {
		return nil, err
	}
	return dist, nil
}

func runBranch(qc *circuit.Circuit, start int, state *StateVector, clbits uint64, weight float64, dist QuasiDist) error {
	for i := start; i < len(qc.Instructions); i++ {
		inst := qc.Instructions[i]
		if inst.Condition != nil {
			bit := int((clbits >> uint(inst.Condition.Clbit)) & 1)
			if bit != inst.Condition.Value {
				continue
			}
		}
		switch op := inst.Op.(type) {
		case circuit.Gate:
			if err := state.ApplyGate(op, inst.Qubits); err != nil {
				return err
			}
		case circuit.Measure:
			q := inst.Qubits[0]
			cb := uint(inst.Clbits[0])
			p1 := state.Probability(q)
			if p1 > branchEps {
				branch := state.Clone()
				branch.Collapse(q, 1)
				if err := runBranch(qc, i+1, branch, clbits|(1<<cb), weight*p1, dist); err != nil {
					return err
				}
			}
			if p0 := 1 - p1; p0 > branchEps {
				state.Collapse(q, 0)
				return runBranch(qc, i+1, state, clbits&^(1<<cb), weight*p0, dist)
			}
			return nil
		default:
			return fmt.Errorf("cannot execute placeholder operation:%s", op.Name())
		}
	}
	dist[clbits] += weight
	return nil
}

// RunShots executes a circuit by sampling measurement outcomes shot by shot.
func RunShots(qc *circuit.Circuit, shots int, rng *rand.Rand) (QuasiDist, error) {
	if shots <= 0 {
		return nil, fmt.Errorf("shots(%d) must be greater than 0", shots)
	}
	counts := map[uint64]int{}
	for s := 0; s < shots; s++ {
		state, err := NewStateVector(qc.NumQubits())
		if err != nil {
			return nil, err
		}
		var clbits uint64
		for _, inst := range qc.Instructions {
			if inst.Condition != nil {
				bit := int((clbits >> uint(inst.Condition.Clbit)) & 1)
				if bit != inst.Condition.Value {
					continue
				}
			}
			switch op := inst.Op.(type) {
			case circuit.Gate:
				if err := state.ApplyGate(op, inst.Qubits); err != nil {
					return nil, err
				}
			case circuit.Measure:
				q := inst.Qubits[0]
				cb := uint(inst.Clbits[0])
				outcome := 0
				if rng.Float64() < state.Probability(q) {
					outcome = 1
				}
				state.Collapse(q, outcome)
				if outcome == 1 {
					clbits |= 1 << cb
				} else {
					clbits &^= 1 << cb
				}
			default:
				return nil, fmt.Errorf("cannot execute placeholder operation:%s", op.Name())
			}
		}
		counts[clbits]++
	}
	dist := QuasiDist{}
	for k, c := range counts {
		dist[k] = float64(c) / float64(shots)
	}
	return dist, nil
}

// HasMidCircuitMeasurement reports whether any measured qubit is acted on
// again after its measurement, or whether the circuit uses classically
// conditioned instructions.
func HasMidCircuitMeasurement(qc *circuit.Circuit) bool {
	measured := map[int]bool{}
	for _, inst := range qc.Instructions {
		if inst.Condition != nil {
			return true
		}
		if _, ok := inst.Op.(circuit.Measure); ok {
			measured[inst.Qubits[0]] = true
			continue
		}
		for _, q := range inst.Qubits {
			if measured[q] {
				return true
			}
		}
	}
	return false
}
