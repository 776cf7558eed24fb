package sliqsim

import (
	"context"
	"time"
)

// RunConfig is the per-experiment run configuration.
type RunConfig struct {
	Mode  Mode
	Shots int
	// Seed is used verbatim when set; otherwise one is drawn and reported.
	Seed *uint32
}

/*
Simulator drives one experiment at a time through translation, invocation,
parsing and assembly. It holds no state between runs, so a single Simulator
may be shared by concurrent jobs as long as its Executor spawns a separate
process per call.
*/
type Simulator struct {
	executor Executor
	seeds    SeedSource
}

type SimulatorOption func(*Simulator)

// WithSeedSource replaces the random default used when no seed is configured.
func WithSeedSource(src SeedSource) SimulatorOption {
	return func(s *Simulator) {
		s.seeds = src
	}
}

func NewSimulator(executor Executor, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		executor: executor,
		seeds:    RandomSeedSource{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run invokes the simulator on an already translated program and returns its raw output.
func (s *Simulator) Run(ctx context.Context, inv Invocation, program Program) ([]byte, error) {
	args, err := inv.Args()
	if err != nil {
		return nil, err
	}

	logger.Debug("invoking simulator", "mode", inv.Mode, "seed", inv.Seed, "shots", inv.Shots, "args", args)
	return s.executor.Execute(ctx, args, program.Reader())
}

// RunExperiment simulates exp and assembles its result record.
func (s *Simulator) RunExperiment(ctx context.Context, exp Experiment, cfg RunConfig) (*ExperimentResult, error) {
	fail := func(stage Stage, err error) (*ExperimentResult, error) {
		logger.Error("experiment failed", "experiment", exp.Header.Name, "stage", stage, "err", err)
		return nil, &ExperimentError{Experiment: exp.Header.Name, Stage: stage, Err: err}
	}

	inv := Invocation{
		Mode:  cfg.Mode,
		Seed:  ResolveSeed(cfg.Seed, s.seeds),
		Shots: cfg.Shots,
	}

	// Reject an unknown mode before doing any work.
	if _, err := inv.Args(); err != nil {
		return fail(StageInvoke, err)
	}

	program, err := Translate(exp)
	if err != nil {
		return fail(StageTranslate, err)
	}

	start := time.Now()

	raw, err := s.Run(ctx, inv, program)
	if err != nil {
		return fail(StageInvoke, err)
	}

	out, err := ParseOutput(raw, inv.Mode)
	if err != nil {
		return fail(StageParse, err)
	}

	result := AssembleResult(exp, time.Since(start), inv.Seed, inv.Shots, out)
	return &result, nil
}
