package circuit

// Operation is anything that can be appended to a circuit: a concrete gate,
// a measurement, or a placeholder such as a QPD gate that is expanded before
// execution.
type Operation interface {
	Name() string
	NumQubits() int
	NumClbits() int
}

// Gate is a concrete quantum gate.
type Gate struct {
	GateName string
	Qubits   int
	Params   []float64
}

func (g Gate) Name() string   { return g.GateName }
func (g Gate) NumQubits() int { return g.Qubits }
func (g Gate) NumClbits() int { return 0 }

func IGate() Gate   { return Gate{GateName: "id", Qubits: 1} }
func XGate() Gate   { return Gate{GateName: "x", Qubits: 1} }
func YGate() Gate   { return Gate{GateName: "y", Qubits: 1} }
func ZGate() Gate   { return Gate{GateName: "z", Qubits: 1} }
func HGate() Gate   { return Gate{GateName: "h", Qubits: 1} }
func SGate() Gate   { return Gate{GateName: "s", Qubits: 1} }
func SdgGate() Gate { return Gate{GateName: "sdg", Qubits: 1} }
func TGate() Gate   { return Gate{GateName: "t", Qubits: 1} }
func TdgGate() Gate { return Gate{GateName: "tdg", Qubits: 1} }
func SXGate() Gate  { return Gate{GateName: "sx", Qubits: 1} }

func RZGate(theta float64) Gate {
	return Gate{GateName: "rz", Qubits: 1, Params: []float64{theta}}
}

func CXGate() Gate   { return Gate{GateName: "cx", Qubits: 2} }
func CZGate() Gate   { return Gate{GateName: "cz", Qubits: 2} }
func SwapGate() Gate { return Gate{GateName: "swap", Qubits: 2} }

// Measure reads one qubit into one classical bit.
type Measure struct{}

func (m Measure) Name() string   { return "measure" }
func (m Measure) NumQubits() int { return 1 }
func (m Measure) NumClbits() int { return 1 }

func OperationsEqual(a, b Operation) bool {
	if a.Name() != b.Name() || a.NumQubits() != b.NumQubits() || a.NumClbits() != b.NumClbits() {
		return false
	}
	ga, aIsGate := a.(Gate)
	gb, bIsGate := b.(Gate)
	if aIsGate != bIsGate {
		return false
	}
	if aIsGate {
		if len(ga.Params) != len(gb.Params) {
			return false
		}
		for i := range ga.Params {
			if ga.Params[i] != gb.Params[i] {
				return false
			}
		}
	}
	return true
}
