// Package mapping turns raw terahertz readings into audible frequencies.
//
// A reading is converted with hz = thz * 1e12 and then forced into the
// audible band [Min, Max] by one system-wide Policy:
//
//   - PolicyClamp (default): out-of-band values collapse onto the nearest
//     edge, so widely spread inputs pile up at Min and Max.
//   - PolicyWrap: out-of-band values fold back with a floored modulo,
//     Min + ((hz - Min) mod (Max - Min)), keeping more relative spread.
//     Wrapped results lie in [Min, Max).
//
// Missing, non-finite and non-positive readings are rejected rather than
// coerced to zero.
package mapping

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/neuroaudio/dsp/core"
)

const (
	// HzPerTHz converts terahertz to hertz.
	HzPerTHz = 1e12

	DefaultMinHz = 18000.0
	DefaultMaxHz = 22000.0
)

// ErrRejected is matched by every *RejectedError.
var ErrRejected = errors.New("frequency rejected")

// Policy selects how out-of-band frequencies are brought into range.
type Policy int

const (
	PolicyClamp Policy = iota
	PolicyWrap
)

// DefaultPolicy is the documented system policy.
const DefaultPolicy = PolicyClamp

func (p Policy) String() string {
	switch p {
	case PolicyClamp:
		return "clamp"
	case PolicyWrap:
		return "wrap"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses "clamp" or "wrap".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "clamp", "":
		return PolicyClamp, nil
	case "wrap":
		return PolicyWrap, nil
	default:
		return 0, fmt.Errorf("unknown mapping policy %q (want clamp or wrap)", s)
	}
}

// Reason classifies a rejected reading.
type Reason string

const (
	ReasonNaN         Reason = "not-a-number"
	ReasonInfinite    Reason = "infinite"
	ReasonNonPositive Reason = "non-positive"
	ReasonSynthesis   Reason = "synthesis"
)

// RejectedError reports a reading that produced no tone.
type RejectedError struct {
	Raw    float64
	Reason Reason
	Err    error // underlying cause, set for synthesis failures
}

func (e *RejectedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("frequency %v THz rejected (%s): %v", e.Raw, e.Reason, e.Err)
	}
	return fmt.Sprintf("frequency %v THz rejected (%s)", e.Raw, e.Reason)
}

// Is makes errors.Is(err, ErrRejected) hold.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// Reject builds a synthesis rejection for raw with the given cause.
func Reject(raw float64, cause error) *RejectedError {
	return &RejectedError{Raw: raw, Reason: ReasonSynthesis, Err: cause}
}

// Frequency is an accepted reading mapped into the audible band.
type Frequency struct {
	RawTHz float64
	Hz     float64
	// Adjusted is true when the policy moved the converted value.
	Adjusted bool
}

// Mapper applies one band and policy to every reading.
type Mapper struct {
	min, max float64
	policy   Policy
}

// New creates a Mapper for the band [minHz, maxHz].
func New(minHz, maxHz float64, policy Policy) (*Mapper, error) {
	if !core.IsFinite(minHz) || !core.IsFinite(maxHz) || minHz <= 0 {
		return nil, fmt.Errorf("mapping: band must be finite and positive: [%v, %v]", minHz, maxHz)
	}
	if minHz >= maxHz {
		return nil, fmt.Errorf("mapping: min %v Hz must be below max %v Hz", minHz, maxHz)
	}
	if policy != PolicyClamp && policy != PolicyWrap {
		return nil, fmt.Errorf("mapping: unsupported policy %v", policy)
	}
	return &Mapper{min: minHz, max: maxHz, policy: policy}, nil
}

// Default returns the 18-22 kHz clamp mapper.
func Default() *Mapper {
	return &Mapper{min: DefaultMinHz, max: DefaultMaxHz, policy: DefaultPolicy}
}

// Policy returns the mapper's policy.
func (m *Mapper) Policy() Policy {
	return m.policy
}

// Band returns the inclusive band edges in Hz.
func (m *Mapper) Band() (minHz, maxHz float64) {
	return m.min, m.max
}

// Map converts one reading. The error, if any, is a *RejectedError.
func (m *Mapper) Map(raw float64) (Frequency, error) {
	switch {
	case math.IsNaN(raw):
		return Frequency{}, &RejectedError{Raw: raw, Reason: ReasonNaN}
	case math.IsInf(raw, 0):
		return Frequency{}, &RejectedError{Raw: raw, Reason: ReasonInfinite}
	case raw <= 0:
		return Frequency{}, &RejectedError{Raw: raw, Reason: ReasonNonPositive}
	}

	hz := raw * HzPerTHz
	if math.IsInf(hz, 0) {
		return Frequency{}, &RejectedError{Raw: raw, Reason: ReasonInfinite}
	}

	var mapped float64
	switch m.policy {
	case PolicyWrap:
		mapped = core.Wrap(hz, m.min, m.max)
	default:
		mapped = core.Clamp(hz, m.min, m.max)
	}

	return Frequency{RawTHz: raw, Hz: mapped, Adjusted: mapped != hz}, nil
}
