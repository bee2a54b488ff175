//go:build unit
// +build unit

package cutting

import (
	"context"
	"fmt"
	"testing"

	"github.com/qknit-team/qknit-engine/circuit"
	"github.com/qknit-team/qknit-engine/pauli"
	"github.com/qknit-team/qknit-engine/qpd"
	"github.com/qknit-team/qknit-engine/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityBasis is a two-leg decomposition with a single empty map, so the
// cut gate acts as the identity with unit weight.
func identityBasis(t *testing.T) *qpd.Basis {
	t.Helper()
	b, err := qpd.NewBasis([]qpd.Map{{{}, {}}}, []float64{1.0})
	require.NoError(t, err)
	return b
}

func trivialCutCircuit(t *testing.T) *circuit.Circuit {
	t.Helper()
	qc := circuit.New(2)
	require.NoError(t, qc.X(0))
	require.NoError(t, qc.X(1))
	g, err := qpd.NewTwoQubitGate(identityBasis(t), "")
	require.NoError(t, err)
	require.NoError(t, qc.Append(g, []int{0, 1}))
	return qc
}

func TestExecuteExperimentsTrivialCut(t *testing.T) {
	qc := trivialCutCircuit(t)
	before := qc.Copy()
	observables := pauli.MustNewList("ZZ")

	res, err := ExecuteExperiments(context.Background(),
		SingleCircuit(qc), SingleObservables(observables), 100,
		SingleSampler(sim.NewExactSampler()))
	require.NoError(t, err)

	require.Len(t, res.QuasiDists, 1)
	require.Len(t, res.QuasiDists[0], 1)
	require.Len(t, res.QuasiDists[0][0], 1)
	sub := res.QuasiDists[0][0][0]
	assert.True(t, sub.QuasiDist.Equal(sim.QuasiDist{3: 1.0}, 1e-9), sub.QuasiDist.String())
	assert.Equal(t, 0, sub.NumQPDBits)

	require.Len(t, res.Coefficients, 1)
	assert.Equal(t, Coefficient{Value: 1.0, Kind: qpd.Exact}, res.Coefficients[0])

	assert.Equal(t, []string{""}, res.Labels)
	assert.Equal(t, 1, res.Metadata.Subexperiments)
	assert.NotEmpty(t, res.Metadata.ID)
	assert.True(t, qc.Equal(before), "input circuit must not be mutated")
}

func TestExecuteExperimentsPartitionedTrivialCut(t *testing.T) {
	basis := identityBasis(t)
	subcircuits := map[string]*circuit.Circuit{}
	for leg, label := range []string{"A", "B"} {
		qc := circuit.New(1)
		require.NoError(t, qc.X(0))
		g, err := qpd.NewSingleQubitGate(basis, leg, "cut_0")
		require.NoError(t, err)
		require.NoError(t, qc.Append(g, []int{0}))
		subcircuits[label] = qc
	}
	observables := map[string]pauli.PauliList{
		"A": pauli.MustNewList("Z"),
		"B": pauli.MustNewList("Z"),
	}
	samplers := map[string]Sampler{
		"A": sim.NewExactSampler(),
		"B": sim.NewExactSampler(),
	}

	res, err := ExecuteExperiments(context.Background(),
		PartitionedCircuits(subcircuits), PartitionedObservables(observables), 100,
		PartitionedSamplers(samplers))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, res.Labels)
	require.Len(t, res.QuasiDists, 1)
	require.Len(t, res.QuasiDists[0], 2)
	for p := range res.Labels {
		require.Len(t, res.QuasiDists[0][p], 1)
		sub := res.QuasiDists[0][p][0]
		assert.True(t, sub.QuasiDist.Equal(sim.QuasiDist{1: 1.0}, 1e-9), sub.QuasiDist.String())
		assert.Equal(t, 0, sub.NumQPDBits)
	}
	require.Len(t, res.Coefficients, 1)
	assert.Equal(t, Coefficient{Value: 1.0, Kind: qpd.Exact}, res.Coefficients[0])
	assert.Equal(t, 2, res.Metadata.Subexperiments)
}

func TestExecuteExperimentsInputShapeErrors(t *testing.T) {
	qc := trivialCutCircuit(t)
	observables := pauli.MustNewList("ZZ")
	exact := sim.NewExactSampler()

	_, err := ExecuteExperiments(context.Background(),
		PartitionedCircuits(map[string]*circuit.Circuit{"A": circuit.New(1)}),
		SingleObservables(observables), 100, SingleSampler(exact))
	assert.EqualError(t, err, "if a partition mapping of subcircuits is passed as the circuits argument, "+
		"a partition mapping of subobservables is expected as the observables argument")

	_, err = ExecuteExperiments(context.Background(),
		SingleCircuit(qc),
		PartitionedObservables(map[string]pauli.PauliList{"A": pauli.MustNewList("Z")}),
		100, SingleSampler(exact))
	assert.EqualError(t, err, "if a single circuit is passed as the circuits argument, "+
		"a flat observable list is expected as the observables argument")

	_, err = ExecuteExperiments(context.Background(),
		PartitionedCircuits(map[string]*circuit.Circuit{"A": circuit.New(1)}),
		PartitionedObservables(map[string]pauli.PauliList{"B": pauli.MustNewList("Z")}),
		100, SingleSampler(exact))
	assert.EqualError(t, err, "the keys for the circuits and observables mappings should be equivalent")

	_, err = ExecuteExperiments(context.Background(),
		CircuitInput{}, SingleObservables(observables), 100, SingleSampler(exact))
	assert.EqualError(t, err, "the circuits input argument must be either a single circuit "+
		"or a mapping from partition labels to subcircuits")
}

func TestExecuteExperimentsNumSamplesMustBePositive(t *testing.T) {
	qc := trivialCutCircuit(t)
	for _, n := range []int{0, -1} {
		_, err := ExecuteExperiments(context.Background(),
			SingleCircuit(qc), SingleObservables(pauli.MustNewList("ZZ")), n,
			SingleSampler(sim.NewExactSampler()))
		assert.EqualError(t, err, "the number of requested samples must be positive")
	}
}

func TestExecuteExperimentsSamplerErrors(t *testing.T) {
	qc := trivialCutCircuit(t)
	observables := pauli.MustNewList("ZZ")

	_, err := ExecuteExperiments(context.Background(),
		SingleCircuit(qc), SingleObservables(observables), 100, SamplerInput{})
	assert.EqualError(t, err, samplersTypeMsg)

	_, err = ExecuteExperiments(context.Background(),
		SingleCircuit(qc), SingleObservables(observables), 100,
		PartitionedSamplers(map[string]Sampler{"": nil}))
	assert.EqualError(t, err, samplersTypeMsg)

	_, err = ExecuteExperiments(context.Background(),
		SingleCircuit(qc), SingleObservables(observables), 100,
		PartitionedSamplers(map[string]Sampler{"A": sim.NewExactSampler()}))
	assert.EqualError(t, err, "the keys for the circuits and samplers mappings should be equivalent")
}

func TestExecuteExperimentsRejectsSharedSamplerInMapping(t *testing.T) {
	basis := identityBasis(t)
	subcircuits := map[string]*circuit.Circuit{}
	for leg, label := range []string{"A", "B"} {
		qc := circuit.New(1)
		g, err := qpd.NewSingleQubitGate(basis, leg, "cut_0")
		require.NoError(t, err)
		require.NoError(t, qc.Append(g, []int{0}))
		subcircuits[label] = qc
	}
	observables := map[string]pauli.PauliList{
		"A": pauli.MustNewList("Z"),
		"B": pauli.MustNewList("Z"),
	}
	shared := sim.NewExactSampler()

	_, err := ExecuteExperiments(context.Background(),
		PartitionedCircuits(subcircuits), PartitionedObservables(observables), 100,
		PartitionedSamplers(map[string]Sampler{"A": shared, "B": shared}))
	assert.EqualError(t, err, "if a samplers mapping is passed, each sampler must be unique; "+
		"however, subsystems A and B were passed the same sampler")

	// the same instance passed as a single sampler is fine
	_, err = ExecuteExperiments(context.Background(),
		PartitionedCircuits(subcircuits), PartitionedObservables(observables), 100,
		SingleSampler(shared))
	assert.NoError(t, err)
}

func TestExecuteExperimentsDistinctSamplersOfSameType(t *testing.T) {
	basis := identityBasis(t)
	subcircuits := map[string]*circuit.Circuit{}
	for leg, label := range []string{"A", "B"} {
		qc := circuit.New(1)
		g, err := qpd.NewSingleQubitGate(basis, leg, "cut_0")
		require.NoError(t, err)
		require.NoError(t, qc.Append(g, []int{0}))
		subcircuits[label] = qc
	}
	observables := map[string]pauli.PauliList{
		"A": pauli.MustNewList("Z"),
		"B": pauli.MustNewList("Z"),
	}

	_, err := ExecuteExperiments(context.Background(),
		PartitionedCircuits(subcircuits), PartitionedObservables(observables), 100,
		PartitionedSamplers(map[string]Sampler{
			"A": sim.NewExactSampler(),
			"B": sim.NewExactSampler(),
		}))
	assert.NoError(t, err)

	// two plain samplers pass the uniqueness check and fail only on
	// capability, proving they were not conflated as one instance
	_, err = ExecuteExperiments(context.Background(),
		PartitionedCircuits(subcircuits), PartitionedObservables(observables), 100,
		PartitionedSamplers(map[string]Sampler{
			"A": sim.NewPlainSampler(),
			"B": sim.NewPlainSampler(),
		}))
	assert.EqualError(t, err, fmt.Sprintf("%T does not support mid-circuit measurements. "+
		"Use sim.ExactSampler to generate exact distributions for each subexperiment.", sim.NewPlainSampler()))
}

func TestExecuteExperimentsCapabilityErrors(t *testing.T) {
	qc := trivialCutCircuit(t)
	observables := pauli.MustNewList("ZZ")

	_, err := ExecuteExperiments(context.Background(),
		SingleCircuit(qc), SingleObservables(observables), 100,
		SingleSampler(sim.NewExactModeShotSampler()))
	assert.EqualError(t, err, fmt.Sprintf("%T does not support mid-circuit measurements when shots is unset. "+
		"Use sim.ExactSampler to generate exact distributions for each subexperiment.", sim.NewExactModeShotSampler()))

	_, err = ExecuteExperiments(context.Background(),
		SingleCircuit(qc), SingleObservables(observables), 100,
		SingleSampler(sim.NewPlainSampler()))
	assert.EqualError(t, err, fmt.Sprintf("%T does not support mid-circuit measurements. "+
		"Use sim.ExactSampler to generate exact distributions for each subexperiment.", sim.NewPlainSampler()))
}

func TestExecuteExperimentsRejectsClassicalStorage(t *testing.T) {
	qc := trivialCutCircuit(t)
	require.NoError(t, qc.AddRegister("scratch", 1))

	_, err := ExecuteExperiments(context.Background(),
		SingleCircuit(qc), SingleObservables(pauli.MustNewList("ZZ")), 100,
		SingleSampler(sim.NewExactSampler()))
	assert.EqualError(t, err, "circuits input to ExecuteExperiments should contain no classical registers or bits")
}

func TestExecuteExperimentsRejectsSingleQubitQPDGateInUnseparatedCircuit(t *testing.T) {
	qc := circuit.New(2)
	g, err := qpd.NewSingleQubitGate(identityBasis(t), 0, "cut_0")
	require.NoError(t, err)
	require.NoError(t, qc.Append(g, []int{0}))

	_, err = ExecuteExperiments(context.Background(),
		SingleCircuit(qc), SingleObservables(pauli.MustNewList("ZZ")), 100,
		SingleSampler(sim.NewExactSampler()))
	assert.EqualError(t, err, "single-qubit QPD gates are not supported in unseparable circuits")
}

func TestExecuteExperimentsConflictingBases(t *testing.T) {
	basis := identityBasis(t)
	other, err := qpd.BasisForGate("cz")
	require.NoError(t, err)

	qc := circuit.New(2)
	g1, err := qpd.NewTwoQubitGate(basis, "lcu_0")
	require.NoError(t, err)
	g2, err := qpd.NewTwoQubitGate(other, "lcu_0")
	require.NoError(t, err)
	require.NoError(t, qc.Append(g1, []int{0, 1}))
	require.NoError(t, qc.Append(g2, []int{0, 1}))

	_, err = ExecuteExperiments(context.Background(),
		SingleCircuit(qc), SingleObservables(pauli.MustNewList("ZZ")), 100,
		SingleSampler(sim.NewExactSampler()))
	assert.EqualError(t, err, "conflicting bases for cut label:lcu_0")
}

func TestExecuteExperimentsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExecuteExperiments(ctx,
		SingleCircuit(trivialCutCircuit(t)), SingleObservables(pauli.MustNewList("ZZ")), 100,
		SingleSampler(sim.NewExactSampler()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecuteAndReconstructCutCZ(t *testing.T) {
	basis, err := qpd.BasisForGate("cz")
	require.NoError(t, err)
	g, err := qpd.NewTwoQubitGate(basis, "")
	require.NoError(t, err)

	qc := circuit.New(2)
	require.NoError(t, qc.H(0))
	require.NoError(t, qc.Append(g, []int{0, 1}))

	// cz on |+>|0> leaves qubit 1 in |0> and qubit 0 unbiased in z
	observables := SingleObservables(pauli.MustNewList("ZI", "IZ", "ZZ"))
	res, err := ExecuteExperiments(context.Background(),
		SingleCircuit(qc), observables, 100, SingleSampler(sim.NewExactSampler()))
	require.NoError(t, err)

	require.Len(t, res.Coefficients, 6)
	for _, c := range res.Coefficients {
		assert.Equal(t, qpd.Exact, c.Kind)
		assert.InDelta(t, 0.5, mathAbs(c.Value), 1e-12)
	}

	values, err := ReconstructExpectationValues(res, observables)
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.InDelta(t, 1.0, values[0], 1e-9)
	assert.InDelta(t, 0.0, values[1], 1e-9)
	assert.InDelta(t, 0.0, values[2], 1e-9)
}

func TestExecuteAndReconstructPartitionedCutCZ(t *testing.T) {
	qc := circuit.New(2)
	require.NoError(t, qc.H(0))
	require.NoError(t, qc.CZ(0, 1))

	observables := pauli.MustNewList("ZI", "IZ", "ZZ")
	prob, err := PartitionProblem(qc, "AB", observables)
	require.NoError(t, err)

	res, err := ExecuteExperiments(context.Background(),
		PartitionedCircuits(prob.Subcircuits),
		PartitionedObservables(prob.Subobservables), 100,
		PartitionedSamplers(map[string]Sampler{
			"A": sim.NewExactSampler(),
			"B": sim.NewExactSampler(),
		}))
	require.NoError(t, err)
	require.Len(t, res.Coefficients, 6)

	values, err := ReconstructExpectationValues(res, PartitionedObservables(prob.Subobservables))
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.InDelta(t, 1.0, values[0], 1e-9)
	assert.InDelta(t, 0.0, values[1], 1e-9)
	assert.InDelta(t, 0.0, values[2], 1e-9)
}

func TestExecuteAndReconstructCutCZNonDiagonal(t *testing.T) {
	basis, err := qpd.BasisForGate("cz")
	require.NoError(t, err)
	g, err := qpd.NewTwoQubitGate(basis, "")
	require.NoError(t, err)

	// control stays |0>, so the cut cz acts as the identity on |0>|+>
	qc := circuit.New(2)
	require.NoError(t, qc.H(1))
	require.NoError(t, qc.Append(g, []int{0, 1}))

	observables := SingleObservables(pauli.MustNewList("XI", "IX", "YI"))
	res, err := ExecuteExperiments(context.Background(),
		SingleCircuit(qc), observables, 100, SingleSampler(sim.NewExactSampler()))
	require.NoError(t, err)

	values, err := ReconstructExpectationValues(res, observables)
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.InDelta(t, 1.0, values[0], 1e-9)
	assert.InDelta(t, 0.0, values[1], 1e-9)
	assert.InDelta(t, 0.0, values[2], 1e-9)
}

func TestExecuteAndReconstructCutCXNonDiagonal(t *testing.T) {
	basis, err := qpd.BasisForGate("cx")
	require.NoError(t, err)
	g, err := qpd.NewTwoQubitGate(basis, "")
	require.NoError(t, err)

	// control stays |0>, so the cut cx acts as the identity on |0>|+>
	qc := circuit.New(2)
	require.NoError(t, qc.H(1))
	require.NoError(t, qc.Append(g, []int{0, 1}))

	observables := SingleObservables(pauli.MustNewList("XI", "ZI"))
	res, err := ExecuteExperiments(context.Background(),
		SingleCircuit(qc), observables, 100, SingleSampler(sim.NewExactSampler()))
	require.NoError(t, err)

	values, err := ReconstructExpectationValues(res, observables)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.InDelta(t, 1.0, values[0], 1e-9)
	assert.InDelta(t, 0.0, values[1], 1e-9)
}

func TestExecuteAndReconstructCutCZWithShots(t *testing.T) {
	basis, err := qpd.BasisForGate("cz")
	require.NoError(t, err)
	g, err := qpd.NewTwoQubitGate(basis, "")
	require.NoError(t, err)

	qc := circuit.New(2)
	require.NoError(t, qc.H(0))
	require.NoError(t, qc.Append(g, []int{0, 1}))

	observables := SingleObservables(pauli.MustNewList("ZI"))
	sampler := sim.NewShotSampler(20000).WithSeed(1234)
	res, err := ExecuteExperiments(context.Background(),
		SingleCircuit(qc), observables, 100, SingleSampler(sampler))
	require.NoError(t, err)

	values, err := ReconstructExpectationValues(res, observables)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.InDelta(t, 1.0, values[0], 0.15)
}

func TestReconstructExpectationValuesErrors(t *testing.T) {
	qc := trivialCutCircuit(t)
	observables := SingleObservables(pauli.MustNewList("ZZ"))
	res, err := ExecuteExperiments(context.Background(),
		SingleCircuit(qc), observables, 100, SingleSampler(sim.NewExactSampler()))
	require.NoError(t, err)

	_, err = ReconstructExpectationValues(res,
		PartitionedObservables(map[string]pauli.PauliList{"A": pauli.MustNewList("Z")}))
	assert.EqualError(t, err, "no observables were passed for partition ")

	_, err = ReconstructExpectationValues(res, SingleObservables(pauli.MustNewList("XX")))
	assert.EqualError(t, err, "observable term XX was not part of the evaluation")
}

func TestSubResultBitstrings(t *testing.T) {
	sub := SubResult{
		QuasiDist:  sim.QuasiDist{0b101: 0.5, 0b001: -0.25},
		NumQPDBits: 1,
	}
	out, err := sub.Bitstrings(3)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"10 1": 0.5, "00 1": -0.25}, out)

	noQPD := SubResult{QuasiDist: sim.QuasiDist{2: 1.0}}
	out, err = noQPD.Bitstrings(2)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"10": 1.0}, out)

	_, err = noQPD.Bitstrings(1)
	assert.EqualError(t, err, "inconsistent bits")
}

func mathAbs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
