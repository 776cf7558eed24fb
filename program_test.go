package sliqsim

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTranslate(t *testing.T) {
	Convey("Given a Bell state experiment", t, func() {
		program, err := Translate(bellExperiment())
		So(err, ShouldBeNil)

		lines := program.Lines()

		Convey("It starts with the three line header", func() {
			So(lines[:3], ShouldResemble, []string{
				"OPENQASM 2.0;",
				"qreg q[2];",
				"creg c[2];",
			})
		})

		Convey("It has two gate statements followed by the measurements", func() {
			So(lines[3:], ShouldResemble, []string{
				"h q[0];",
				"cx q[0], q[1];",
				"measure q[0] -> c[0];",
				"measure q[1] -> c[1];",
			})
		})

		Convey("The text ends with a newline", func() {
			text := program.String()
			So(strings.HasSuffix(text, ";\n"), ShouldBeTrue)
			So(strings.Count(text, "\n"), ShouldEqual, 7)

			fromReader, err := io.ReadAll(program.Reader())
			So(err, ShouldBeNil)
			So(string(fromReader), ShouldEqual, text)
		})

		Convey("Lines returns a copy", func() {
			lines[0] = "tampered"
			So(program.Lines()[0], ShouldEqual, "OPENQASM 2.0;")
		})
	})

	Convey("Given more qubits than classical bits", t, func() {
		exp := Experiment{
			Header: ExperimentHeader{
				Name:        "wide",
				QubitLabels: []RegisterRef{{"q", 0}, {"q", 1}, {"q", 2}},
				ClbitLabels: []RegisterRef{{"c", 0}},
			},
			Instructions: []Operation{{Name: "measure", Qubits: []int{2}, Memory: []int{0}}},
		}

		Convey("The classical register is still sized by the qubit count", func() {
			program, err := Translate(exp)
			So(err, ShouldBeNil)
			So(program.Lines()[2], ShouldEqual, "creg c[3];")
		})

		Convey("Measuring into a slot beyond the classical bits fails", func() {
			exp.Instructions[0].Memory = []int{1}
			_, err := Translate(exp)
			var opErr *InvalidOperationError
			So(errors.As(err, &opErr), ShouldBeTrue)
		})
	})

	Convey("Given an experiment with an unsupported rotation", t, func() {
		exp := bellExperiment()
		exp.Instructions = append(exp.Instructions, Operation{Name: "rx", Qubits: []int{0}, Params: []float64{math.Pi / 3}})

		Convey("Translation fails and names the instruction", func() {
			_, err := Translate(exp)
			var gateErr *UnsupportedGateError
			So(errors.As(err, &gateErr), ShouldBeTrue)
			So(err.Error(), ShouldStartWith, "instruction 4:")
		})
	})
}
