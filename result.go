package sliqsim

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	StatusDone      = "DONE"
	StatusCompleted = "COMPLETED"
)

type ResultHeader struct {
	Name        string        `json:"name"`
	MemorySlots int           `json:"memory_slots"`
	CregSizes   []RegisterRef `json:"creg_sizes"`
}

// ExperimentResult is the record produced for one successfully simulated experiment.
type ExperimentResult struct {
	Header    ResultHeader `json:"header"`
	Status    string       `json:"status"`
	TimeTaken float64      `json:"time_taken"`
	Seed      uint32       `json:"seed"`
	Shots     int          `json:"shots"`
	Data      Output       `json:"data"`
	Success   bool         `json:"success"`
}

// AssembleResult wraps a parsed payload and its run metadata into a result record.
func AssembleResult(exp Experiment, elapsed time.Duration, seed uint32, shots int, out Output) ExperimentResult {
	return ExperimentResult{
		Header: ResultHeader{
			Name:        exp.Header.Name,
			MemorySlots: memorySlots(exp),
			CregSizes:   exp.Header.CregSizes,
		},
		Status:    StatusDone,
		TimeTaken: elapsed.Seconds(),
		Seed:      seed,
		Shots:     shots,
		Data:      out,
		Success:   true,
	}
}

// memorySlots prefers the configured slot count, falling back to the declared clbits.
func memorySlots(exp Experiment) int {
	if exp.Config.MemorySlots > 0 {
		return exp.Config.MemorySlots
	}
	return exp.NumClbits()
}

// Result is the outcome of a whole job.
type Result struct {
	BackendName    string             `json:"backend_name"`
	BackendVersion string             `json:"backend_version"`
	QobjID         string             `json:"qobj_id"`
	JobID          string             `json:"job_id"`
	Results        []ExperimentResult `json:"results"`
	Status         string             `json:"status"`
	Success        bool               `json:"success"`
	TimeTaken      float64            `json:"time_taken"`
}

func (r *Result) experiment(name string) (*ExperimentResult, error) {
	for i := range r.Results {
		if r.Results[i].Header.Name == name {
			return &r.Results[i], nil
		}
	}
	return nil, fmt.Errorf("no result for experiment %q", name)
}

// Counts returns the hex-keyed counts of the named experiment.
func (r *Result) Counts(name string) (map[string]int, error) {
	exp, err := r.experiment(name)
	if err != nil {
		return nil, err
	}
	if exp.Data.Counts == nil {
		return nil, fmt.Errorf("experiment %q has no counts", name)
	}
	return exp.Data.Counts, nil
}

/*
FormattedCounts renders the named experiment's counts with binary keys,
padded to the number of memory slots and split per classical register with
the last register leftmost, e.g. "01 10".
*/
func (r *Result) FormattedCounts(name string) (map[string]int, error) {
	exp, err := r.experiment(name)
	if err != nil {
		return nil, err
	}
	if exp.Data.Counts == nil {
		return nil, fmt.Errorf("experiment %q has no counts", name)
	}

	formatted := make(map[string]int, len(exp.Data.Counts))
	for key, count := range exp.Data.Counts {
		bits, err := formatBitstring(key, exp.Header.MemorySlots, exp.Header.CregSizes)
		if err != nil {
			return nil, err
		}
		formatted[bits] += count
	}
	return formatted, nil
}

// Statevector returns the named experiment's amplitudes.
func (r *Result) Statevector(name string) ([]complex128, error) {
	exp, err := r.experiment(name)
	if err != nil {
		return nil, err
	}
	if exp.Data.Statevector == nil {
		return nil, fmt.Errorf("experiment %q has no statevector", name)
	}

	sv := make([]complex128, len(exp.Data.Statevector))
	for i, amp := range exp.Data.Statevector {
		sv[i] = amp.Complex()
	}
	return sv, nil
}

func formatBitstring(key string, memorySlots int, cregSizes []RegisterRef) (string, error) {
	value, ok := new(big.Int).SetString(strings.TrimPrefix(key, "0x"), 16)
	if !ok {
		return "", fmt.Errorf("malformed counts key %q", key)
	}

	bits := value.Text(2)
	if len(bits) < memorySlots {
		bits = strings.Repeat("0", memorySlots-len(bits)) + bits
	}

	if len(cregSizes) == 0 {
		return bits, nil
	}

	parts := make([]string, 0, len(cregSizes))
	offset := 0
	for i := len(cregSizes) - 1; i >= 0; i-- {
		end := min(offset+cregSizes[i].Index, len(bits))
		parts = append(parts, bits[offset:end])
		offset = end
	}
	return strings.Join(parts, " "), nil
}
