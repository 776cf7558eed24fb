package sliqsim

import (
	"context"
	"time"
)

const (
	SamplingBackend     = "sampling"
	AllAmplitudeBackend = "all_amplitude"
	backendVersion      = "1.0"
)

type GateConfig struct {
	Name       string   `json:"name"`
	Parameters []string `json:"parameters"`
	QasmDef    string   `json:"qasm_def"`
}

// BackendConfiguration describes what a backend accepts.
type BackendConfiguration struct {
	BackendName    string       `json:"backend_name"`
	BackendVersion string       `json:"backend_version"`
	URL            string       `json:"url"`
	Simulator      bool         `json:"simulator"`
	Local          bool         `json:"local"`
	Description    string       `json:"description"`
	BasisGates     []string     `json:"basis_gates"`
	Memory         bool         `json:"memory"`
	NQubits        int          `json:"n_qubits"`
	Conditional    bool         `json:"conditional"`
	MaxShots       int          `json:"max_shots"`
	OpenPulse      bool         `json:"open_pulse"`
	CouplingMap    [][2]int     `json:"coupling_map"`
	Gates          []GateConfig `json:"gates"`
}

// DefaultConfiguration returns the configuration every SliQSim backend starts from.
func DefaultConfiguration(name string) BackendConfiguration {
	return BackendConfiguration{
		BackendName:    name,
		BackendVersion: backendVersion,
		URL:            "https://github.com/NTU-ALComLab/SliQSim",
		Simulator:      true,
		Local:          true,
		Description:    "SliQSim C++ simulator",
		BasisGates: []string{
			"cx", "x", "y", "z", "h", "s", "t", "sdg", "tdg",
			"rx", "ry", "cz", "ccx", "mcx", "swap", "cswap",
		},
		NQubits:  30,
		MaxShots: 100000,
		Gates:    []GateConfig{},
	}
}

type BackendStatus struct {
	BackendName    string `json:"backend_name"`
	BackendVersion string `json:"backend_version"`
	Operational    bool   `json:"operational"`
	PendingJobs    int    `json:"pending_jobs"`
	StatusMsg      string `json:"status_msg"`
}

/*
Backend runs qobjs on SliQSim in one fixed mode. The sampling backend
returns counts; the all_amplitude backend returns the statevector and
always runs a single shot.
*/
type Backend struct {
	configuration BackendConfiguration
	mode          Mode
	executable    string
	simulator     *Simulator
	pool          *Q
	config        *Config
}

func (b *Backend) Name() string {
	return b.configuration.BackendName
}

func (b *Backend) Mode() Mode {
	return b.mode
}

func (b *Backend) Configuration() BackendConfiguration {
	return b.configuration
}

func (b *Backend) Status() BackendStatus {
	operational := true
	msg := ""
	if breaker := b.pool.breaker(b.executable); breaker != nil && breaker.State() == CircuitOpen {
		operational = false
		msg = "simulator executable is failing, circuit breaker open"
	}

	return BackendStatus{
		BackendName:    b.Name(),
		BackendVersion: b.configuration.BackendVersion,
		Operational:    operational,
		PendingJobs:    b.pool.Pending(),
		StatusMsg:      msg,
	}
}

// Run validates qobj, then submits it as a new job.
func (b *Backend) Run(qobj *Qobj) (*Job, error) {
	b.validate(qobj)

	job := newJob(b, qobj)
	if err := job.Submit(); err != nil {
		return nil, err
	}
	return job, nil
}

func (b *Backend) validate(qobj *Qobj) {
	switch b.mode {
	case ModeStatevector:
		if qobj.Config.Shots != 1 {
			logger.Info("backend only supports 1 shot, setting shots=1", "backend", b.Name())
			qobj.Config.Shots = 1
		}
		for i := range qobj.Experiments {
			exp := &qobj.Experiments[i]
			if exp.Config.Shots != 0 && exp.Config.Shots != 1 {
				logger.Info("backend only supports 1 shot, setting shots=1", "backend", b.Name(), "circuit", exp.Header.Name)
				exp.Config.Shots = 1
			}
		}
	case ModeSampling:
		for _, exp := range qobj.Experiments {
			if exp.Config.MemorySlots == 0 {
				logger.Warn("no classical registers in circuit, counts will be empty", "circuit", exp.Header.Name)
			} else if !exp.HasMeasurement() {
				logger.Warn("no measurements in circuit, classical register will remain all zeros", "circuit", exp.Header.Name)
			}
		}
	}
}

func (b *Backend) schedule(job *Job) chan Outcome {
	opts := []TaskOption{
		WithStartHook(job.markRunning),
		WithCircuitBreaker(
			b.executable,
			b.config.Breaker.MaxFailures,
			b.config.Breaker.ResetTimeout,
			b.config.Breaker.HalfOpenMax,
		),
	}
	if b.config.JobTimeout > 0 {
		opts = append(opts, WithTimeout(b.config.JobTimeout))
	}

	return b.pool.Schedule(job.ID(), func(ctx context.Context) (any, error) {
		return b.runJob(ctx, job.ID(), job.qobj)
	}, opts...)
}

// runJob simulates every experiment of qobj in order.
func (b *Backend) runJob(ctx context.Context, jobID string, qobj *Qobj) (*Result, error) {
	start := time.Now()

	cfg := RunConfig{
		Mode:  b.mode,
		Shots: qobj.Config.Shots,
		Seed:  qobj.Config.Seed,
	}

	results := make([]ExperimentResult, 0, len(qobj.Experiments))
	for _, exp := range qobj.Experiments {
		result, err := b.simulator.RunExperiment(ctx, exp, cfg)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	logger.Info("job completed", "job", jobID, "backend", b.Name(), "experiments", len(results))

	return &Result{
		BackendName:    b.Name(),
		BackendVersion: b.configuration.BackendVersion,
		QobjID:         qobj.QobjID,
		JobID:          jobID,
		Results:        results,
		Status:         StatusCompleted,
		Success:        true,
		TimeTaken:      time.Since(start).Seconds(),
	}, nil
}
