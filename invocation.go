package sliqsim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os/exec"
)

// Mode selects how SliQSim simulates a program.
type Mode string

const (
	// ModeStatevector returns every amplitude of the final state.
	ModeStatevector Mode = "statevector"
	// ModeSampling measures the final state repeatedly and returns counts.
	ModeSampling Mode = "sampling"
)

// Invocation holds the per-run flags handed to the simulator.
type Invocation struct {
	Mode  Mode
	Seed  uint32
	Shots int
}

// Args builds the simulator's command line. It fails before anything is spawned.
func (inv Invocation) Args() ([]string, error) {
	args := []string{
		"--sim_qasm",
		fmt.Sprintf("--seed=%d", inv.Seed),
	}

	switch inv.Mode {
	case ModeStatevector:
		args = append(args, "--type=1")
	case ModeSampling:
		args = append(args, "--type=0", fmt.Sprintf("--shots=%d", inv.Shots))
	default:
		return nil, &UnsupportedModeError{Mode: inv.Mode}
	}

	return args, nil
}

// SeedSource supplies a seed when the caller did not configure one.
type SeedSource interface {
	Seed() uint32
}

// RandomSeedSource draws a fresh 32-bit seed per call.
type RandomSeedSource struct{}

func (RandomSeedSource) Seed() uint32 {
	return rand.Uint32()
}

// FixedSeed always returns the same seed.
type FixedSeed uint32

func (f FixedSeed) Seed() uint32 {
	return uint32(f)
}

// ResolveSeed uses the configured seed verbatim, else draws one from src.
func ResolveSeed(configured *uint32, src SeedSource) uint32 {
	if configured != nil {
		return *configured
	}
	if src == nil {
		src = RandomSeedSource{}
	}
	return src.Seed()
}

/*
Executor runs the simulator with args, feeding stdin to it, and returns
everything it wrote to stdout. Any failure must come back as a
*SimulationExecutionError.
*/
type Executor interface {
	Execute(ctx context.Context, args []string, stdin io.Reader) ([]byte, error)
}

// ProcessExecutor spawns a fresh simulator process per call.
type ProcessExecutor struct {
	Path string
	// Env is appended to the inherited environment.
	Env []string
}

func NewProcessExecutor(path string) *ProcessExecutor {
	return &ProcessExecutor{Path: path}
}

func (p *ProcessExecutor) Execute(ctx context.Context, args []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, p.Path, args...)
	if len(p.Env) > 0 {
		cmd.Env = append(cmd.Environ(), p.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		execErr := &SimulationExecutionError{
			Executable: p.Path,
			Stderr:     stderr.String(),
			Err:        err,
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			execErr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			execErr.Err = fmt.Errorf("%w: %w", ctxErr, err)
		}

		return nil, execErr
	}

	return stdout.Bytes(), nil
}
