package engine

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/qknit-team/qknit-engine/circuit"
	"github.com/qknit-team/qknit-engine/common"
	"github.com/qknit-team/qknit-engine/pauli"
	"go.uber.org/zap"
)

// Scenario is the toml description of one cut-circuit evaluation: the
// circuit, the per-qubit partition labels, the observables to estimate and
// the weight sample budget.
type Scenario struct {
	PartitionLabels string      `toml:"partition_labels"`
	Observables     []string    `toml:"observables"`
	NumSamples      int         `toml:"num_samples"`
	Circuit         CircuitSpec `toml:"circuit"`
}

type CircuitSpec struct {
	Qubits int        `toml:"qubits"`
	Gates  []GateSpec `toml:"gate"`
}

type GateSpec struct {
	GateName string    `toml:"name"`
	Qubits   []int     `toml:"qubits"`
	Params   []float64 `toml:"params"`
}

func LoadScenario(path string) (*Scenario, error) {
	tomlString, err := common.ReadSettingsFile(path)
	if err != nil {
		return nil, err
	}
	return parseScenario(tomlString)
}

func parseScenario(tomlString string) (*Scenario, error) {
	s := &Scenario{}
	if _, err := toml.Decode(tomlString, s); err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse scenario/reason:%s", err))
		return nil, err
	}
	if s.NumSamples == 0 {
		s.NumSamples = 100
	}
	zap.L().Debug(fmt.Sprintf("loaded a scenario with %d gate(s) and %d observable(s)",
		len(s.Circuit.Gates), len(s.Observables)))
	return s, nil
}

// BuildCircuit materializes the gate list of the scenario.
func (s *Scenario) BuildCircuit() (*circuit.Circuit, error) {
	qc := circuit.New(s.Circuit.Qubits)
	for i, g := range s.Circuit.Gates {
		op, err := g.operation()
		if err != nil {
			return nil, fmt.Errorf("gate %d: %s", i, err.Error())
		}
		if err := qc.Append(op, g.Qubits); err != nil {
			return nil, fmt.Errorf("gate %d: %s", i, err.Error())
		}
	}
	return qc, nil
}

func (s *Scenario) BuildObservables() (pauli.PauliList, error) {
	return pauli.NewPauliList(s.Observables)
}

func (g GateSpec) operation() (circuit.Operation, error) {
	switch g.GateName {
	case "id":
		return circuit.IGate(), nil
	case "x":
		return circuit.XGate(), nil
	case "y":
		return circuit.YGate(), nil
	case "z":
		return circuit.ZGate(), nil
	case "h":
		return circuit.HGate(), nil
	case "s":
		return circuit.SGate(), nil
	case "sdg":
		return circuit.SdgGate(), nil
	case "t":
		return circuit.TGate(), nil
	case "tdg":
		return circuit.TdgGate(), nil
	case "sx":
		return circuit.SXGate(), nil
	case "rz":
		if len(g.Params) != 1 {
			return nil, fmt.Errorf("gate:rz takes 1 parameter but %d were given", len(g.Params))
		}
		return circuit.RZGate(g.Params[0]), nil
	case "cx":
		return circuit.CXGate(), nil
	case "cz":
		return circuit.CZGate(), nil
	case "swap":
		return circuit.SwapGate(), nil
	default:
		return nil, fmt.Errorf("unknown gate:%s", g.GateName)
	}
}
