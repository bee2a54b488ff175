package pauli

import (
	"fmt"
)

// Op is a single-qubit Pauli operator.
type Op byte

const (
	I Op = 'I'
	X Op = 'X'
	Y Op = 'Y'
	Z Op = 'Z'
)

// Pauli is an n-qubit Pauli operator. Qubit 0 is the rightmost character of
// the string form, so "XZ" acts with Z on qubit 0 and X on qubit 1.
type Pauli struct {
	ops []Op // indexed by qubit
}

func New(label string) (Pauli, error) {
	if label == "" {
		return Pauli{}, fmt.Errorf("empty pauli label")
	}
	ops := make([]Op, len(label))
	for i := 0; i < len(label); i++ {
		c := Op(label[i])
		switch c {
		case I, X, Y, Z:
			ops[len(label)-1-i] = c
		default:
			return Pauli{}, fmt.Errorf("invalid pauli label:%s", label)
		}
	}
	return Pauli{ops: ops}, nil
}

// MustNew is a constructor for labels known to be valid, such as literals in
// built-in decompositions.
func MustNew(label string) Pauli {
	p, err := New(label)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pauli) NumQubits() int {
	return len(p.ops)
}

// At returns the operator acting on the given qubit.
func (p Pauli) At(qubit int) Op {
	return p.ops[qubit]
}

func (p Pauli) String() string {
	buf := make([]byte, len(p.ops))
	for i, op := range p.ops {
		buf[len(p.ops)-1-i] = byte(op)
	}
	return string(buf)
}

func (p Pauli) Equal(o Pauli) bool {
	if len(p.ops) != len(o.ops) {
		return false
	}
	for i := range p.ops {
		if p.ops[i] != o.ops[i] {
			return false
		}
	}
	return true
}

// IsIdentity reports whether every qubit carries I.
func (p Pauli) IsIdentity() bool {
	for _, op := range p.ops {
		if op != I {
			return false
		}
	}
	return true
}

// CommutesWith reports whether two equal-width Paulis commute, that is
// whether the number of qubit positions with anticommuting operators is even.
func (p Pauli) CommutesWith(o Pauli) (bool, error) {
	if len(p.ops) != len(o.ops) {
		return false, fmt.Errorf("pauli qubit counts do not match: %d vs %d",
			len(p.ops), len(o.ops))
	}
	anti := 0
	for i := range p.ops {
		if p.ops[i] != I && o.ops[i] != I && p.ops[i] != o.ops[i] {
			anti++
		}
	}
	return anti%2 == 0, nil
}

// QubitwiseCompatibleWith reports whether each qubit of p carries either I or
// the same operator as basis. Qubitwise compatible observables are
// simultaneously measurable after the basis rotation of basis.
func (p Pauli) QubitwiseCompatibleWith(basis Pauli) bool {
	if len(p.ops) != len(basis.ops) {
		return false
	}
	for i := range p.ops {
		if p.ops[i] != I && p.ops[i] != basis.ops[i] {
			return false
		}
	}
	return true
}

// RestrictedTo returns the Pauli acting on the given qubits only, in the
// given order. Qubit i of the result is qubits[i] of p.
func (p Pauli) RestrictedTo(qubits []int) (Pauli, error) {
	ops := make([]Op, len(qubits))
	for i, q := range qubits {
		if q < 0 || q >= len(p.ops) {
			return Pauli{}, fmt.Errorf("qubit %d is out of range for a %d-qubit pauli",
				q, len(p.ops))
		}
		ops[i] = p.ops[q]
	}
	return Pauli{ops: ops}, nil
}

// PauliList is an ordered list of equal-width Paulis.
type PauliList []Pauli

func NewPauliList(labels []string) (PauliList, error) {
	list := make(PauliList, 0, len(labels))
	for _, l := range labels {
		p, err := New(l)
		if err != nil {
			return nil, err
		}
		if len(list) > 0 && p.NumQubits() != list[0].NumQubits() {
			return nil, fmt.Errorf("pauli %s does not match the qubit count of %s",
				l, list[0].String())
		}
		list = append(list, p)
	}
	return list, nil
}

// MustNewList is NewPauliList for literal labels.
func MustNewList(labels ...string) PauliList {
	list, err := NewPauliList(labels)
	if err != nil {
		panic(err)
	}
	return list
}

func (l PauliList) NumQubits() int {
	if len(l) == 0 {
		return 0
	}
	return l[0].NumQubits()
}
