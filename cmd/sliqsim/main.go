package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/theapemachine/sliqsim"
)

func main() {
	if err := run(); err != nil {
		log.Error("sliqsim failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "configuration file")
		executable = flag.String("executable", "", "path to the SliQSim binary")
		backend    = flag.String("backend", sliqsim.SamplingBackend, "backend: sampling or all_amplitude")
		qobjPath   = flag.String("qobj", "", "qobj JSON file to run (default: 2-qubit Bell state)")
	)
	defineRunFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := sliqsim.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *executable != "" {
		cfg.Executable = *executable
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	provider, err := sliqsim.NewProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer provider.Close()

	qobj, err := loadQobj(*qobjPath)
	if err != nil {
		return err
	}
	if err := applyRunFlags(qobj, flag.CommandLine, *qobjPath != ""); err != nil {
		return err
	}

	b, err := provider.GetBackend(*backend)
	if err != nil {
		return err
	}

	job, err := b.Run(qobj)
	if err != nil {
		return err
	}

	result, err := job.Result(ctx)
	if err != nil {
		return err
	}

	out := make(map[string]any, len(result.Results))
	for _, exp := range result.Results {
		name := exp.Header.Name
		if b.Mode() == sliqsim.ModeStatevector {
			out[name] = exp.Data.Statevector
			continue
		}
		counts, err := result.FormattedCounts(name)
		if err != nil {
			return err
		}
		out[name] = counts
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func defineRunFlags(flags *flag.FlagSet) {
	flags.Int("shots", 1024, "number of shots (overrides the qobj file when set)")
	flags.Uint32("seed", 0, "simulator seed (random when unset)")
}

// applyRunFlags sets shots and seed on qobj. A qobj file keeps its own shots unless --shots was given.
func applyRunFlags(qobj *sliqsim.Qobj, flags *flag.FlagSet, fromFile bool) error {
	if !fromFile || flags.Changed("shots") {
		shots, err := flags.GetInt("shots")
		if err != nil {
			return err
		}
		qobj.Config.Shots = shots
	}

	if flags.Changed("seed") {
		seed, err := flags.GetUint32("seed")
		if err != nil {
			return err
		}
		qobj.Config.Seed = &seed
	}
	return nil
}

func loadQobj(path string) (*sliqsim.Qobj, error) {
	if path == "" {
		return bellState(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var qobj sliqsim.Qobj
	if err := json.Unmarshal(data, &qobj); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &qobj, nil
}

func bellState() *sliqsim.Qobj {
	return &sliqsim.Qobj{
		QobjID: "bell",
		Experiments: []sliqsim.Experiment{{
			Header: sliqsim.ExperimentHeader{
				Name:        "bell",
				QubitLabels: []sliqsim.RegisterRef{{Name: "q", Index: 0}, {Name: "q", Index: 1}},
				ClbitLabels: []sliqsim.RegisterRef{{Name: "c", Index: 0}, {Name: "c", Index: 1}},
				CregSizes:   []sliqsim.RegisterRef{{Name: "c", Index: 2}},
			},
			Config: sliqsim.ExperimentConfig{MemorySlots: 2, NQubits: 2},
			Instructions: []sliqsim.Operation{
				{Name: "h", Qubits: []int{0}},
				{Name: "cx", Qubits: []int{0, 1}},
				{Name: "measure", Qubits: []int{0}, Memory: []int{0}},
				{Name: "measure", Qubits: []int{1}, Memory: []int{1}},
			},
		}},
	}
}
