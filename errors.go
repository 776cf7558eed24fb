package sliqsim

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExecutableNotFound = errors.New("simulator executable not found")
	ErrUnknownBackend     = errors.New("unknown backend")
	ErrJobNotDone         = errors.New("job has not finished")
	ErrJobSubmitted       = errors.New("job already submitted")
)

// UnsupportedModeError is returned for a run mode the simulator has no flags for.
type UnsupportedModeError struct {
	Mode Mode
}

func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("unsupported simulation mode: %q", string(e.Mode))
}

/*
UnsupportedGateError is returned when a parametrized gate carries an angle
outside of the rotations SliQSim understands. Only rx/ry(±pi/2) can be
expressed, so circuits must be transpiled into that set with optimization
turned off.
*/
type UnsupportedGateError struct {
	Gate  string
	Param float64
}

func (e *UnsupportedGateError) Error() string {
	return fmt.Sprintf(
		"gate %s(%g) is not supported: only rx/ry(+-pi/2) are supported, make sure the circuit is made up of supported gates and optimization is turned off",
		e.Gate, e.Param,
	)
}

// InvalidOperationError reports an operation whose operands do not fit the experiment.
type InvalidOperationError struct {
	Gate   string
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid operation %s: %s", e.Gate, e.Reason)
}

/*
SimulationExecutionError wraps a failed simulator process: it either could
not be started, was killed, or exited with a non-zero status. Stderr holds
whatever the process wrote before it died.
*/
type SimulationExecutionError struct {
	Executable string
	ExitCode   int
	Stderr     string
	Err        error
}

func (e *SimulationExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "simulator %s failed", e.Executable)
	if e.ExitCode > 0 {
		fmt.Fprintf(&b, " with exit code %d", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		fmt.Fprintf(&b, " (stderr: %s)", stderr)
	}
	return b.String()
}

func (e *SimulationExecutionError) Unwrap() error {
	return e.Err
}

// OutputParseError is returned when the simulator output does not match its schema.
type OutputParseError struct {
	Reason string
	Err    error
}

func (e *OutputParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot parse simulator output: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot parse simulator output: %s", e.Reason)
}

func (e *OutputParseError) Unwrap() error {
	return e.Err
}

// Stage names the pipeline step an experiment failed in.
type Stage string

const (
	StageTranslate Stage = "translate"
	StageInvoke    Stage = "invoke"
	StageParse     Stage = "parse"
)

// ExperimentError identifies which experiment and stage a pipeline error came from.
type ExperimentError struct {
	Experiment string
	Stage      Stage
	Err        error
}

func (e *ExperimentError) Error() string {
	return fmt.Sprintf("experiment %q failed during %s: %v", e.Experiment, e.Stage, e.Err)
}

func (e *ExperimentError) Unwrap() error {
	return e.Err
}

/*
isPipelineError reports whether err came out of the translate, invoke or
parse stages. These are never retried: the simulator is deterministic for a
given program and seed.
*/
func isPipelineError(err error) bool {
	var (
		modeErr  *UnsupportedModeError
		gateErr  *UnsupportedGateError
		opErr    *InvalidOperationError
		execErr  *SimulationExecutionError
		parseErr *OutputParseError
		expErr   *ExperimentError
	)

	return errors.As(err, &expErr) ||
		errors.As(err, &modeErr) ||
		errors.As(err, &gateErr) ||
		errors.As(err, &opErr) ||
		errors.As(err, &execErr) ||
		errors.As(err, &parseErr)
}

func isExecutionError(err error) bool {
	var execErr *SimulationExecutionError
	return errors.As(err, &execErr)
}
