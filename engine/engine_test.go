//go:build unit
// +build unit

package engine

import (
	"context"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/qknit-team/qknit-engine/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioToml = `
	partition_labels = "AB"
	observables = ["ZI", "IZ", "ZZ"]
	num_samples = 100

	[circuit]
	qubits = 2

	[[circuit.gate]]
	name = "h"
	qubits = [0]

	[[circuit.gate]]
	name = "cz"
	qubits = [0, 1]
	`

func TestParseScenario(t *testing.T) {
	sc, err := parseScenario(heredoc.Doc(scenarioToml))
	require.NoError(t, err)
	assert.Equal(t, "AB", sc.PartitionLabels)
	assert.Equal(t, []string{"ZI", "IZ", "ZZ"}, sc.Observables)
	assert.Equal(t, 100, sc.NumSamples)
	require.Len(t, sc.Circuit.Gates, 2)
	assert.Equal(t, GateSpec{GateName: "cz", Qubits: []int{0, 1}}, sc.Circuit.Gates[1])

	qc, err := sc.BuildCircuit()
	require.NoError(t, err)
	assert.Equal(t, 2, qc.NumQubits())
	assert.Len(t, qc.Instructions, 2)
}

func TestParseScenarioDefaultsNumSamples(t *testing.T) {
	sc, err := parseScenario(heredoc.Doc(`
		observables = ["Z"]

		[circuit]
		qubits = 1
		`))
	require.NoError(t, err)
	assert.Equal(t, 100, sc.NumSamples)
}

func TestBuildCircuitErrors(t *testing.T) {
	sc := &Scenario{Circuit: CircuitSpec{
		Qubits: 1,
		Gates:  []GateSpec{{GateName: "bogus", Qubits: []int{0}}},
	}}
	_, err := sc.BuildCircuit()
	assert.EqualError(t, err, "gate 0: unknown gate:bogus")

	sc = &Scenario{Circuit: CircuitSpec{
		Qubits: 1,
		Gates:  []GateSpec{{GateName: "rz", Qubits: []int{0}}},
	}}
	_, err = sc.BuildCircuit()
	assert.EqualError(t, err, "gate 0: gate:rz takes 1 parameter but 0 were given")
}

func TestEvaluateScenario(t *testing.T) {
	sc, err := parseScenario(heredoc.Doc(scenarioToml))
	require.NoError(t, err)

	report, err := Evaluate(context.Background(), sc, sim.NewExactSampler())
	require.NoError(t, err)
	require.Len(t, report.Values, 3)
	assert.InDelta(t, 1.0, report.Values[0], 1e-9)
	assert.InDelta(t, 0.0, report.Values[1], 1e-9)
	assert.InDelta(t, 0.0, report.Values[2], 1e-9)
	assert.Len(t, report.Coefficients, 6)
	assert.Equal(t, []string{"A", "B"}, report.Partitions)
	assert.NotEmpty(t, report.ID)

	// one commuting group per partition, per weight
	require.Len(t, report.Distributions, 12)
	assert.Equal(t, 0, report.Distributions[0].Weight)
	assert.Equal(t, "A", report.Distributions[0].Partition)
	for _, d := range report.Distributions {
		assert.NotEmpty(t, d.Outcomes)
	}

	out, err := report.Pretty()
	require.NoError(t, err)
	assert.Contains(t, out, "\"observables\"")
}
