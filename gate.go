package sliqsim

import (
	"fmt"
	"math"
	"strings"
)

const measureGate = "measure"

/*
Rotation is the closed set of angles a parametrized gate may carry when sent
to SliQSim. Anything outside of it is rejected during translation instead of
producing a line the simulator would misread.
*/
type Rotation int

const (
	RotationNone Rotation = iota
	RotationHalfPi
	RotationNegHalfPi
)

func (r Rotation) String() string {
	switch r {
	case RotationHalfPi:
		return "(pi/2)"
	case RotationNegHalfPi:
		return "(-pi/2)"
	default:
		return ""
	}
}

// rotationFor maps an angle onto the supported set by the rounded ratio pi/angle.
func rotationFor(gate string, param float64) (Rotation, error) {
	ratio := math.Round(math.Pi / param)

	switch ratio {
	case 2:
		return RotationHalfPi, nil
	case -2:
		return RotationNegHalfPi, nil
	}

	return RotationNone, &UnsupportedGateError{Gate: gate, Param: param}
}

func operandName(names []string, index int, kind string, gate string) (string, error) {
	if index < 0 || index >= len(names) {
		return "", &InvalidOperationError{
			Gate:   gate,
			Reason: fmt.Sprintf("%s index %d out of range [0, %d)", kind, index, len(names)),
		}
	}
	return names[index], nil
}

/*
EncodeOperation renders one operation as a single QASM statement, without a
line terminator. qubitNames and clbitNames map indices to the symbolic names
declared in the program header.
*/
func EncodeOperation(op Operation, qubitNames, clbitNames []string) (string, error) {
	if op.Name == measureGate {
		if len(op.Qubits) == 0 || len(op.Memory) == 0 {
			return "", &InvalidOperationError{Gate: op.Name, Reason: "measurement needs a qubit and a memory slot"}
		}

		qubit, err := operandName(qubitNames, op.Qubits[0], "qubit", op.Name)
		if err != nil {
			return "", err
		}

		clbit, err := operandName(clbitNames, op.Memory[0], "memory", op.Name)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("measure %s -> %s;", qubit, clbit), nil
	}

	rotation := RotationNone
	if len(op.Params) > 0 {
		var err error
		if rotation, err = rotationFor(op.Name, op.Params[0]); err != nil {
			return "", err
		}
	}

	operands := make([]string, 0, len(op.Qubits))
	for _, index := range op.Qubits {
		name, err := operandName(qubitNames, index, "qubit", op.Name)
		if err != nil {
			return "", err
		}
		operands = append(operands, name)
	}

	return fmt.Sprintf("%s%s %s;", op.Name, rotation, strings.Join(operands, ", ")), nil
}
