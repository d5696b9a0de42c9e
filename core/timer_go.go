//go:build !tinygo

package core

import "runtime"

// spinHint yields so a goroutine standing in for the tick interrupt can run
// even with GOMAXPROCS=1 (regular Go implementation). Tests swap it to step
// a simulated clock in lock-step with the busy-wait.
var spinHint = runtime.Gosched
