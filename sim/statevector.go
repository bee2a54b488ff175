package sim

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/qknit-team/qknit-engine/circuit"
)

// MaxSimulatedQubits bounds the statevector size to 2^24 amplitudes.
const MaxSimulatedQubits = 24

// StateVector holds the full amplitude vector of a register of qubits.
type StateVector struct {
	Amplitudes []complex128
	NumQubits  int
}

func NewStateVector(numQubits int) (*StateVector, error) {
	if numQubits < 0 || numQubits > MaxSimulatedQubits {
		return nil, fmt.Errorf("cannot simulate %d qubits. We only support up to %d qubits.",
			numQubits, MaxSimulatedQubits)
	}
	amps := make([]complex128, 1<<numQubits)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}, nil
}

func (s *StateVector) Clone() *StateVector {
	amps := make([]complex128, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits}
}

type matrix2 [2][2]complex128

func singleQubitMatrix(g circuit.Gate) (matrix2, error) {
	invSqrt2 := complex(1/math.Sqrt2, 0)
	switch g.GateName {
	case "id":
		return matrix2{{1, 0}, {0, 1}}, nil
	case "x":
		return matrix2{{0, 1}, {1, 0}}, nil
	case "y":
		return matrix2{{0, -1i}, {1i, 0}}, nil
	case "z":
		return matrix2{{1, 0}, {0, -1}}, nil
	case "h":
		return matrix2{{invSqrt2, invSqrt2}, {invSqrt2, -invSqrt2}}, nil
	case "s":
		return matrix2{{1, 0}, {0, 1i}}, nil
	case "sdg":
		return matrix2{{1, 0}, {0, -1i}}, nil
	case "t":
		return matrix2{{1, 0}, {0, cmplx.Exp(1i * math.Pi / 4)}}, nil
	case "tdg":
		return matrix2{{1, 0}, {0, cmplx.Exp(-1i * math.Pi / 4)}}, nil
	case "sx":
		return matrix2{
			{complex(0.5, 0.5), complex(0.5, -0.5)},
			{complex(0.5, -0.5), complex(0.5, 0.5)},
		}, nil
	case "rz":
		theta := g.Params[0]
		return matrix2{
			{cmplx.Exp(complex(0, -theta/2)), 0},
			{0, cmplx.Exp(complex(0, theta/2))},
		}, nil
	default:
		return matrix2{}, fmt.Errorf("unsupported single-qubit gate:%s", g.GateName)
	}
}

// ApplyGate applies a concrete gate to the given qubits.
func (s *StateVector) ApplyGate(g circuit.Gate, qubits []int) error {
	switch g.Qubits {
	case 1:
		m, err := singleQubitMatrix(g)
		if err != nil {
			return err
		}
		s.applySingle(qubits[0], m)
		return nil
	case 2:
		switch g.GateName {
		case "cx":
			s.applyCX(qubits[0], qubits[1])
		case "cz":
			s.applyCZ(qubits[0], qubits[1])
		case "swap":
			s.applySwap(qubits[0], qubits[1])
		default:
			return fmt.Errorf("unsupported two-qubit gate:%s", g.GateName)
		}
		return nil
	default:
		return fmt.Errorf("unsupported gate:%s acting on %d qubits", g.GateName, g.Qubits)
	}
}

func (s *StateVector) applySingle(q int, m matrix2) {
	bit := 1 << q
	for i := range s.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			a0 := s.Amplitudes[i]
			a1 := s.Amplitudes[j]
			s.Amplitudes[i] = m[0][0]*a0 + m[0][1]*a1
			s.Amplitudes[j] = m[1][0]*a0 + m[1][1]*a1
		}
	}
}

func (s *StateVector) applyCX(control, target int) {
	cbit := 1 << control
	tbit := 1 << target
	for i := range s.Amplitudes {
		if i&cbit != 0 && i&tbit == 0 {
			j := i | tbit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applyCZ(a, b int) {
	abit := 1 << a
	bbit := 1 << b
	for i := range s.Amplitudes {
		if i&abit != 0 && i&bbit != 0 {
			s.Amplitudes[i] = -s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applySwap(a, b int) {
	abit := 1 << a
	bbit := 1 << b
	for i := range s.Amplitudes {
		if i&abit != 0 && i&bbit == 0 {
			j := (i &^ abit) | bbit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

// Probability returns the probability of measuring the qubit as 1.
func (s *StateVector) Probability(q int) float64 {
	bit := 1 << q
	p := 0.0
	for i, a := range s.Amplitudes {
		if i&bit != 0 {
			p += real(a)*real(a) + imag(a)*imag(a)
		}
	}
	return p
}

// Collapse projects the qubit onto the given outcome and renormalizes,
// returning the probability of the branch. A zero-probability branch leaves
// the state zeroed.
func (s *StateVector) Collapse(q, outcome int) float64 {
	bit := 1 << q
	p := 0.0
	for i, a := range s.Amplitudes {
		hit := (i&bit != 0) == (outcome == 1)
		if hit {
			p += real(a)*real(a) + imag(a)*imag(a)
		} else {
			s.Amplitudes[i] = 0
		}
	}
	if p > 0 {
		norm := complex(1/math.Sqrt(p), 0)
		for i := range s.Amplitudes {
			s.Amplitudes[i] *= norm
		}
	}
	return p
}

// Probabilities returns the outcome distribution over all qubits.
func (s *StateVector) Probabilities() []float64 {
	probs := make([]float64, len(s.Amplitudes))
	for i, a := range s.Amplitudes {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return probs
}
