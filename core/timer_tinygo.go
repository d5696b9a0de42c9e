//go:build tinygo

package core

// spinHint does nothing on target: the tick arrives as a hardware
// exception, not a goroutine
func spinHint() {}
