package sliqsim

import (
	"fmt"
	"io"
	"strings"
)

const qasmVersion = "OPENQASM 2.0;"

// Program is translated QASM text. It is never modified after Translate returns it.
type Program struct {
	lines []string
}

// Lines returns a copy of the program's lines.
func (p Program) Lines() []string {
	out := make([]string, len(p.lines))
	copy(out, p.lines)
	return out
}

func (p Program) String() string {
	return strings.Join(p.lines, "\n") + "\n"
}

// Reader feeds the program to a process's stdin.
func (p Program) Reader() io.Reader {
	return strings.NewReader(p.String())
}

func registerNames(register string, size int) []string {
	names := make([]string, size)
	for i := range names {
		names[i] = fmt.Sprintf("%s[%d]", register, i)
	}
	return names
}

/*
Translate converts an experiment into the QASM dialect SliQSim reads: a
three line header followed by one statement per operation.

The classical register is declared with the qubit count, not the classical
bit count. SliQSim has always been fed programs in that shape.
*/
func Translate(exp Experiment) (Program, error) {
	qubits := exp.NumQubits()
	qubitNames := registerNames("q", qubits)
	clbitNames := registerNames("c", exp.NumClbits())

	lines := make([]string, 0, len(exp.Instructions)+3)
	lines = append(lines,
		qasmVersion,
		fmt.Sprintf("qreg q[%d];", qubits),
		fmt.Sprintf("creg c[%d];", qubits),
	)

	for i, op := range exp.Instructions {
		line, err := EncodeOperation(op, qubitNames, clbitNames)
		if err != nil {
			return Program{}, fmt.Errorf("instruction %d: %w", i, err)
		}
		lines = append(lines, line)
	}

	return Program{lines: lines}, nil
}
