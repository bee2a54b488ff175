//go:build unit
// +build unit

package cutting

import (
	"testing"

	"github.com/qknit-team/qknit-engine/circuit"
	"github.com/qknit-team/qknit-engine/pauli"
	"github.com/qknit-team/qknit-engine/qpd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionProblemCutsCrossPartitionGate(t *testing.T) {
	qc := circuit.New(2)
	require.NoError(t, qc.H(0))
	require.NoError(t, qc.CZ(0, 1))

	prob, err := PartitionProblem(qc, "AB", pauli.MustNewList("ZZ"))
	require.NoError(t, err)

	require.Len(t, prob.Subcircuits, 2)
	require.Len(t, prob.Bases, 1)
	basis, ok := prob.Bases["cut_cz_0"]
	require.True(t, ok)
	want, err := qpd.BasisForGate("cz")
	require.NoError(t, err)
	assert.True(t, basis.Equal(want))

	subA := prob.Subcircuits["A"]
	require.Len(t, subA.Instructions, 2)
	assert.Equal(t, "h", subA.Instructions[0].Op.Name())
	gA, ok := subA.Instructions[1].Op.(*qpd.SingleQubitGate)
	require.True(t, ok)
	assert.Equal(t, 0, gA.QubitID)
	assert.Equal(t, "cut_cz_0", gA.Label)

	subB := prob.Subcircuits["B"]
	require.Len(t, subB.Instructions, 1)
	gB, ok := subB.Instructions[0].Op.(*qpd.SingleQubitGate)
	require.True(t, ok)
	assert.Equal(t, 1, gB.QubitID)
	assert.Equal(t, "cut_cz_0", gB.Label)

	assert.Equal(t, pauli.MustNewList("Z"), prob.Subobservables["A"])
	assert.Equal(t, pauli.MustNewList("Z"), prob.Subobservables["B"])
}

func TestPartitionProblemKeepsLocalGates(t *testing.T) {
	qc := circuit.New(4)
	require.NoError(t, qc.H(0))
	require.NoError(t, qc.CX(0, 1))
	require.NoError(t, qc.CX(2, 3))

	prob, err := PartitionProblem(qc, "AABB", pauli.MustNewList("ZZZZ"))
	require.NoError(t, err)
	assert.Empty(t, prob.Bases)

	subA := prob.Subcircuits["A"]
	require.Len(t, subA.Instructions, 2)
	assert.Equal(t, []int{0, 1}, subA.Instructions[1].Qubits)

	subB := prob.Subcircuits["B"]
	require.Len(t, subB.Instructions, 1)
	// global qubits 2,3 remap to local 0,1
	assert.Equal(t, []int{0, 1}, subB.Instructions[0].Qubits)
}

func TestPartitionProblemSplitsExistingQPDGate(t *testing.T) {
	basis, err := qpd.BasisForGate("cz")
	require.NoError(t, err)
	g, err := qpd.NewTwoQubitGate(basis, "lcu_0")
	require.NoError(t, err)

	qc := circuit.New(2)
	require.NoError(t, qc.Append(g, []int{0, 1}))

	prob, err := PartitionProblem(qc, "AB", pauli.MustNewList("ZZ"))
	require.NoError(t, err)
	require.Len(t, prob.Bases, 1)
	_, ok := prob.Bases["lcu_0"]
	assert.True(t, ok)
}

func TestPartitionProblemErrors(t *testing.T) {
	qc := circuit.New(2)
	require.NoError(t, qc.CZ(0, 1))

	_, err := PartitionProblem(qc, "A", pauli.MustNewList("ZZ"))
	assert.EqualError(t, err, "partition labels have 1 element(s) but the circuit has 2 qubit(s)")

	_, err = PartitionProblem(qc, "AB", pauli.MustNewList("ZZZ"))
	assert.EqualError(t, err, "observables have 3 qubit(s) but the circuit has 2 qubit(s)")

	withBits := circuit.New(2)
	require.NoError(t, withBits.AddRegister("meas", 1))
	_, err = PartitionProblem(withBits, "AB", pauli.MustNewList("ZZ"))
	assert.EqualError(t, err, "circuits input to PartitionProblem should contain no classical registers or bits")

	measured := circuit.New(2)
	measured.AddBits(1)
	require.NoError(t, measured.Measure(0, 0))
	// the classical bit backing the measurement is rejected first
	_, err = PartitionProblem(measured, "AB", pauli.MustNewList("ZZ"))
	assert.EqualError(t, err, "circuits input to PartitionProblem should contain no classical registers or bits")

	swapped := circuit.New(2)
	require.NoError(t, swapped.Append(circuit.SwapGate(), []int{0, 1}))
	_, err = PartitionProblem(swapped, "AB", pauli.MustNewList("ZZ"))
	assert.EqualError(t, err, "gate:swap spans partitions A and B but cannot be cut: "+
		"no built-in decomposition for gate:swap")
}
