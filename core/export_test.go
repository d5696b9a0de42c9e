package core

import "testing"

// SetSpinHint replaces the busy-wait hint until the test ends
func SetSpinHint(t testing.TB, hint func()) {
	saved := spinHint
	spinHint = hint
	t.Cleanup(func() { spinHint = saved })
}
