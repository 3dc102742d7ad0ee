package worklet

import "fmt"

// SyncState is the state of a RateSync.
type SyncState int

const (
	// NoRateNoModule is the initial state.
	NoRateNoModule SyncState = iota
	// RateNoModule holds a pending rate while the module is still loading.
	RateNoModule
	// ModuleNoRate has a module that has not been given a rate yet.
	ModuleNoRate
	// Ready has applied a rate to the module.
	Ready
)

func (s SyncState) String() string {
	switch s {
	case NoRateNoModule:
		return "NoRateNoModule"
	case RateNoModule:
		return "RateNoModule"
	case ModuleNoRate:
		return "ModuleNoRate"
	case Ready:
		return "Ready"
	default:
		return fmt.Sprintf("SyncState(%d)", int(s))
	}
}

// RateSync applies a sample rate to a module once both have arrived, in
// whichever order they arrive. The first application happens on the
// transition into Ready; afterwards only rates that differ from the applied
// one are forwarded.
type RateSync struct {
	hasRate   bool
	hasModule bool

	rate    float64
	applied float64
	module  RateSetter
	applies int
}

// State returns the current state derived from the two flags.
func (s *RateSync) State() SyncState {
	switch {
	case s.hasRate && s.hasModule:
		return Ready
	case s.hasRate:
		return RateNoModule
	case s.hasModule:
		return ModuleNoRate
	default:
		return NoRateNoModule
	}
}

// SetPendingRate records rate and applies it if the module is present.
func (s *RateSync) SetPendingRate(rate float64) error {
	wasReady := s.State() == Ready
	s.rate = rate
	s.hasRate = true

	if !s.hasModule {
		return nil
	}
	if wasReady && rate == s.applied {
		return nil
	}
	return s.apply()
}

// OnModuleReady records m and applies the pending rate, if any.
func (s *RateSync) OnModuleReady(m RateSetter) error {
	if s.hasModule {
		return ErrModuleLoaded
	}
	s.module = m
	s.hasModule = true

	if !s.hasRate {
		return nil
	}
	return s.apply()
}

// Rate returns the most recently received rate.
func (s *RateSync) Rate() (float64, bool) {
	return s.rate, s.hasRate
}

// Applied returns the rate last applied to the module.
func (s *RateSync) Applied() (float64, bool) {
	return s.applied, s.applies > 0
}

// Applies returns how many times a rate has been applied to the module.
func (s *RateSync) Applies() int {
	return s.applies
}

func (s *RateSync) apply() error {
	if err := s.module.SetSampleRate(s.rate); err != nil {
		return fmt.Errorf("set_sample_rate(%g): %w", s.rate, err)
	}
	s.applied = s.rate
	s.applies++
	return nil
}
