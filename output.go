package sliqsim

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

// Amplitude is one complex amplitude as a [real, imaginary] pair.
type Amplitude [2]float64

func (a Amplitude) Complex() complex128 {
	return complex(a[0], a[1])
}

// Output is the parsed simulator payload, placed under a result's data key.
type Output struct {
	Statevector []Amplitude    `json:"statevector,omitempty"`
	Counts      map[string]int `json:"counts,omitempty"`
}

// rawOutput is the schema SliQSim's JSON is validated against.
type rawOutput struct {
	Statevector *[]string       `json:"statevector"`
	Counts      *map[string]int `json:"counts"`
}

/*
ParseOutput validates the simulator's JSON output and converts it into the
shapes results carry. The field the mode produces must be present: a
statevector run without "statevector" or a sampling run without "counts" is
treated as malformed output.
*/
func ParseOutput(raw []byte, mode Mode) (Output, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Output{}, &OutputParseError{Reason: "expected a JSON object"}
	}

	var doc rawOutput
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Output{}, &OutputParseError{Reason: "invalid document", Err: err}
	}

	switch mode {
	case ModeStatevector:
		if doc.Statevector == nil {
			return Output{}, &OutputParseError{Reason: `missing "statevector" field`}
		}
	case ModeSampling:
		if doc.Counts == nil {
			return Output{}, &OutputParseError{Reason: `missing "counts" field`}
		}
	default:
		return Output{}, &UnsupportedModeError{Mode: mode}
	}

	var out Output

	if doc.Statevector != nil {
		sv, err := convertStatevector(*doc.Statevector)
		if err != nil {
			return Output{}, err
		}
		out.Statevector = sv
	}

	if doc.Counts != nil {
		counts, err := convertCounts(*doc.Counts)
		if err != nil {
			return Output{}, err
		}
		out.Counts = counts
	}

	return out, nil
}

func convertStatevector(literals []string) ([]Amplitude, error) {
	amplitudes := make([]Amplitude, len(literals))
	for i, literal := range literals {
		amp, err := ParseAmplitude(literal)
		if err != nil {
			return nil, &OutputParseError{Reason: fmt.Sprintf("statevector entry %d", i), Err: err}
		}
		amplitudes[i] = amp
	}
	return amplitudes, nil
}

/*
ParseAmplitude reads a complex literal with an i or j imaginary suffix, e.g.
"0.707107-0.5i". A bare unit such as "j" or "1-j" counts as a coefficient of one.
*/
func ParseAmplitude(literal string) (Amplitude, error) {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		if r == 'j' || r == 'J' {
			return 'i'
		}
		return r
	}, literal)

	c, err := strconv.ParseComplex(unitImaginary(s), 128)
	if err != nil {
		return Amplitude{}, err
	}

	re, im := real(c), imag(c)
	// "1-0i" must not come out as negative zero.
	if re == 0 {
		re = 0
	}
	if im == 0 {
		im = 0
	}

	return Amplitude{re, im}, nil
}

// unitImaginary writes the implied 1 into a bare imaginary unit, e.g. "1-i" becomes "1-1i".
func unitImaginary(s string) string {
	end := len(s)
	if strings.HasSuffix(s, ")") {
		end--
	}
	if end == 0 || s[end-1] != 'i' {
		return s
	}
	if end == 1 || strings.IndexByte("(+-", s[end-2]) >= 0 {
		return s[:end-1] + "1" + s[end-1:]
	}
	return s
}

func convertCounts(raw map[string]int) (map[string]int, error) {
	counts := make(map[string]int, len(raw))
	for outcome, count := range raw {
		key, ok, err := OutcomeKey(outcome)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		counts[key] += count
	}
	return counts, nil
}

/*
OutcomeKey turns a per-qubit outcome vector into the hexadecimal key results
are indexed by. Symbols are concatenated in the order given, without
reversal. ok is false when the vector holds no measured value, in which case
the entry must be dropped.
*/
func OutcomeKey(outcome string) (key string, ok bool, err error) {
	var bits strings.Builder
	for _, r := range outcome {
		switch {
		case unicode.IsSpace(r):
			continue
		case r == '0' || r == '1':
			bits.WriteRune(r)
		default:
			return "", false, &OutputParseError{Reason: fmt.Sprintf("outcome %q contains non-binary symbol %q", outcome, r)}
		}
	}

	if bits.Len() == 0 {
		return "", false, nil
	}

	value, _ := new(big.Int).SetString(bits.String(), 2)
	return "0x" + value.Text(16), true, nil
}
