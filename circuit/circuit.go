package circuit

import (
	"fmt"

	"github.com/mohae/deepcopy"
)

// ClassicalRegister is a named block of classical bits. Registers map onto
// the circuit's flat classical bit space in registration order, followed by
// any loose bits.
type ClassicalRegister struct {
	RegName string
	Size    int
}

// Condition gates an instruction on a classical bit holding a value.
type Condition struct {
	Clbit int
	Value int
}

// Instruction is an operation bound to concrete qubits and classical bits.
type Instruction struct {
	Op        Operation
	Qubits    []int
	Clbits    []int
	Condition *Condition
}

// Circuit is an ordered list of instructions over a fixed set of qubits and
// a growable flat classical bit space.
type Circuit struct {
	QubitCount   int
	Registers    []ClassicalRegister
	LooseBits    int
	Instructions []Instruction
}

func New(numQubits int) *Circuit {
	return &Circuit{QubitCount: numQubits}
}

func (c *Circuit) NumQubits() int {
	return c.QubitCount
}

func (c *Circuit) NumClbits() int {
	n := c.LooseBits
	for _, r := range c.Registers {
		n += r.Size
	}
	return n
}

// HasClassicalStorage reports whether the circuit carries any classical
// registers or loose bits.
func (c *Circuit) HasClassicalStorage() bool {
	return len(c.Registers) > 0 || c.LooseBits > 0
}

func (c *Circuit) AddRegister(name string, size int) error {
	if size <= 0 {
		return fmt.Errorf("register size(%d) must be greater than 0", size)
	}
	for _, r := range c.Registers {
		if r.RegName == name {
			return fmt.Errorf("register:%s is already added", name)
		}
	}
	// loose bits stay behind the registers in the flat bit space, so adding
	// a register to a circuit with loose bits would renumber existing
	// instructions
	if c.LooseBits > 0 {
		return fmt.Errorf("cannot add a register after loose bits")
	}
	c.Registers = append(c.Registers, ClassicalRegister{RegName: name, Size: size})
	return nil
}

func (c *Circuit) AddBits(n int) {
	c.LooseBits += n
}

// RegisterOffset returns the index of the first classical bit of the named
// register in the flat bit space.
func (c *Circuit) RegisterOffset(name string) (int, error) {
	offset := 0
	for _, r := range c.Registers {
		if r.RegName == name {
			return offset, nil
		}
		offset += r.Size
	}
	return 0, fmt.Errorf("register:%s is not found", name)
}

func (c *Circuit) Append(op Operation, qubits []int, clbits ...int) error {
	return c.appendImpl(op, qubits, clbits, nil)
}

func (c *Circuit) AppendConditioned(op Operation, qubits []int, clbits []int, cond Condition) error {
	return c.appendImpl(op, qubits, clbits, &cond)
}

func (c *Circuit) appendImpl(op Operation, qubits []int, clbits []int, cond *Condition) error {
	if len(qubits) != op.NumQubits() {
		return fmt.Errorf("operation:%s acts on %d qubit(s) but %d qubit(s) were given",
			op.Name(), op.NumQubits(), len(qubits))
	}
	if len(clbits) != op.NumClbits() {
		return fmt.Errorf("operation:%s writes %d classical bit(s) but %d bit(s) were given",
			op.Name(), op.NumClbits(), len(clbits))
	}
	for _, q := range qubits {
		if q < 0 || q >= c.QubitCount {
			return fmt.Errorf("qubit %d is out of range for a %d-qubit circuit", q, c.QubitCount)
		}
	}
	for _, b := range clbits {
		if b < 0 || b >= c.NumClbits() {
			return fmt.Errorf("classical bit %d is out of range for %d classical bit(s)", b, c.NumClbits())
		}
	}
	if cond != nil && (cond.Clbit < 0 || cond.Clbit >= c.NumClbits()) {
		return fmt.Errorf("condition bit %d is out of range for %d classical bit(s)", cond.Clbit, c.NumClbits())
	}
	inst := Instruction{Op: op, Condition: cond}
	inst.Qubits = append(inst.Qubits, qubits...)
	inst.Clbits = append(inst.Clbits, clbits...)
	c.Instructions = append(c.Instructions, inst)
	return nil
}

func (c *Circuit) H(q int) error        { return c.Append(HGate(), []int{q}) }
func (c *Circuit) X(q int) error        { return c.Append(XGate(), []int{q}) }
func (c *Circuit) Y(q int) error        { return c.Append(YGate(), []int{q}) }
func (c *Circuit) Z(q int) error        { return c.Append(ZGate(), []int{q}) }
func (c *Circuit) S(q int) error        { return c.Append(SGate(), []int{q}) }
func (c *Circuit) Sdg(q int) error      { return c.Append(SdgGate(), []int{q}) }
func (c *Circuit) CX(a, b int) error    { return c.Append(CXGate(), []int{a, b}) }
func (c *Circuit) CZ(a, b int) error    { return c.Append(CZGate(), []int{a, b}) }
func (c *Circuit) RZ(theta float64, q int) error {
	return c.Append(RZGate(theta), []int{q})
}

func (c *Circuit) Measure(q, clbit int) error {
	return c.Append(Measure{}, []int{q}, clbit)
}

// Copy returns a deep copy sharing no mutable state with the receiver.
func (c *Circuit) Copy() *Circuit {
	return deepcopy.Copy(c).(*Circuit)
}

// Equal is a structural, order-sensitive comparison of qubit count,
// classical layout and instruction list.
func (c *Circuit) Equal(o *Circuit) bool {
	if c.QubitCount != o.QubitCount || c.LooseBits != o.LooseBits {
		return false
	}
	if len(c.Registers) != len(o.Registers) {
		return false
	}
	for i := range c.Registers {
		if c.Registers[i] != o.Registers[i] {
			return false
		}
	}
	if len(c.Instructions) != len(o.Instructions) {
		return false
	}
	for i := range c.Instructions {
		if !instructionsEqual(c.Instructions[i], o.Instructions[i]) {
			return false
		}
	}
	return true
}

func instructionsEqual(a, b Instruction) bool {
	if !OperationsEqual(a.Op, b.Op) {
		return false
	}
	if len(a.Qubits) != len(b.Qubits) || len(a.Clbits) != len(b.Clbits) {
		return false
	}
	for i := range a.Qubits {
		if a.Qubits[i] != b.Qubits[i] {
			return false
		}
	}
	for i := range a.Clbits {
		if a.Clbits[i] != b.Clbits[i] {
			return false
		}
	}
	if (a.Condition == nil) != (b.Condition == nil) {
		return false
	}
	if a.Condition != nil && *a.Condition != *b.Condition {
		return false
	}
	return true
}
