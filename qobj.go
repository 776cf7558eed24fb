package sliqsim

import (
	"encoding/json"
	"fmt"
)

/*
RegisterRef points at a register, either a single bit in it (qubit_labels,
clbit_labels) or its size (creg_sizes). On the wire it is a two element
array such as ["q", 0].
*/
type RegisterRef struct {
	Name  string
	Index int
}

func (r RegisterRef) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{r.Name, r.Index})
}

func (r *RegisterRef) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("register reference: %w", err)
	}

	if len(raw) != 2 {
		return fmt.Errorf("register reference: expected 2 elements, got %d", len(raw))
	}

	if err := json.Unmarshal(raw[0], &r.Name); err != nil {
		return fmt.Errorf("register reference name: %w", err)
	}

	if err := json.Unmarshal(raw[1], &r.Index); err != nil {
		return fmt.Errorf("register reference index: %w", err)
	}

	return nil
}

// Operation is a single gate application or measurement.
type Operation struct {
	Name   string    `json:"name"`
	Qubits []int     `json:"qubits"`
	Params []float64 `json:"params,omitempty"`
	Memory []int     `json:"memory,omitempty"`
}

type ExperimentHeader struct {
	Name        string        `json:"name"`
	QubitLabels []RegisterRef `json:"qubit_labels,omitempty"`
	ClbitLabels []RegisterRef `json:"clbit_labels,omitempty"`
	CregSizes   []RegisterRef `json:"creg_sizes,omitempty"`
	QregSizes   []RegisterRef `json:"qreg_sizes,omitempty"`
	MemorySlots int           `json:"memory_slots,omitempty"`
	NQubits     int           `json:"n_qubits,omitempty"`
}

type ExperimentConfig struct {
	MemorySlots int `json:"memory_slots"`
	NQubits     int `json:"n_qubits,omitempty"`
	Shots       int `json:"shots,omitempty"`
}

// Experiment is one circuit to simulate.
type Experiment struct {
	Header       ExperimentHeader `json:"header"`
	Config       ExperimentConfig `json:"config"`
	Instructions []Operation      `json:"instructions"`
}

// NumQubits is the number of qubits the experiment declares.
func (e Experiment) NumQubits() int {
	if n := len(e.Header.QubitLabels); n > 0 {
		return n
	}
	if e.Config.NQubits > 0 {
		return e.Config.NQubits
	}
	return e.Header.NQubits
}

// NumClbits is the number of classical bits the experiment declares.
func (e Experiment) NumClbits() int {
	if n := len(e.Header.ClbitLabels); n > 0 {
		return n
	}
	if e.Config.MemorySlots > 0 {
		return e.Config.MemorySlots
	}
	return e.Header.MemorySlots
}

// HasMeasurement reports whether any instruction is a measurement.
func (e Experiment) HasMeasurement() bool {
	for _, op := range e.Instructions {
		if op.Name == measureGate {
			return true
		}
	}
	return false
}

type QobjConfig struct {
	Shots       int     `json:"shots"`
	Seed        *uint32 `json:"seed,omitempty"`
	MemorySlots int     `json:"memory_slots,omitempty"`
	NQubits     int     `json:"n_qubits,omitempty"`
}

// Qobj is a batch of experiments submitted together as one job.
type Qobj struct {
	QobjID      string       `json:"qobj_id"`
	Config      QobjConfig   `json:"config"`
	Experiments []Experiment `json:"experiments"`
}
