package workflow

import (
	"fmt"
	"strings"
)

// MissingStateError is returned by Require. It matches ErrMissingState.
type MissingStateError struct {
	Step    string
	Missing []Slot
}

func (e *MissingStateError) Error() string {
	names := make([]string, len(e.Missing))
	for i, slot := range e.Missing {
		names[i] = string(slot)
	}
	return fmt.Sprintf("%s: %v: %s", e.Step, ErrMissingState, strings.Join(names, ", "))
}

func (e *MissingStateError) Is(target error) bool {
	return target == ErrMissingState
}

// Require fails unless every listed slot is populated.
func Require(s *State, step string, slots ...Slot) error {
	var missing []Slot
	for _, slot := range slots {
		if s == nil || s.Get(slot) == "" {
			missing = append(missing, slot)
		}
	}
	if len(missing) > 0 {
		return &MissingStateError{Step: step, Missing: missing}
	}
	return nil
}
