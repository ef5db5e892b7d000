package common

import "errors"

var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a named engine module has been halted by
// operations.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard returns ErrModulePaused when the module is halted. A nil view or empty
// module name disables the check.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// StaticPauses is a PauseView backed by a fixed set of module names, typically
// sourced from configuration at boot.
type StaticPauses map[string]bool

// IsPaused implements the PauseView interface.
func (s StaticPauses) IsPaused(module string) bool {
	if s == nil {
		return false
	}
	return s[module]
}
