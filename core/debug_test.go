package core

import (
	"strings"
	"testing"
)

func TestBootLogOrder(t *testing.T) {
	ClearBootLog()
	RecordBootEvent(StageHSIReady, 1, uint32(HSIFrequency))
	RecordBootEvent(StageHSEReady, 40, 8000000)
	RecordBootEvent(StagePLLLocked, 20, 168000000)

	events := BootEvents()
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	for i, stage := range []BootStage{StageHSIReady, StageHSEReady, StagePLLLocked} {
		if events[i].Stage != stage {
			t.Errorf("Event %d: expected %s, got %s", i, stage, events[i].Stage)
		}
	}
	if _, ok := LastFault(); ok {
		t.Errorf("No fault was recorded")
	}
}

func TestBootLogOverwritesOldest(t *testing.T) {
	ClearBootLog()
	for i := uint32(0); i < BootLogSize+4; i++ {
		RecordBootEvent(StageSysTick, 0, i)
	}

	events := BootEvents()
	if len(events) != BootLogSize {
		t.Fatalf("Expected %d events, got %d", BootLogSize, len(events))
	}
	if events[0].Value != 4 || events[BootLogSize-1].Value != BootLogSize+3 {
		t.Errorf("Expected values 4..%d, got %d..%d",
			BootLogSize+3, events[0].Value, events[BootLogSize-1].Value)
	}
}

func TestLastFault(t *testing.T) {
	ClearBootLog()
	RecordBootEvent(StageHSIReady, 1, uint32(HSIFrequency))
	RecordBootEvent(StageFault, 20480, uint32(StagePLLLocked))

	stage, ok := LastFault()
	if !ok || stage != StagePLLLocked {
		t.Errorf("Expected PLL_LOCKED fault, got %s, %v", stage, ok)
	}
}

func TestDumpBootLog(t *testing.T) {
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})
	SetDebugEnabled(false)

	ClearBootLog()
	RecordBootEvent(StageHSEReady, 40, 8000000)
	RecordBootEvent(StageFault, 3, uint32(StageSwitched))

	DebugPrintln("suppressed")
	DumpBootLog()

	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %d: %q", len(lines), lines)
	}
	if lines[1] != "[BOOT] HSE_READY polls=40 value=8000000" {
		t.Errorf("Unexpected line %q", lines[1])
	}
	if !strings.Contains(lines[2], "stage=SWITCHED") {
		t.Errorf("Fault line does not name the stage: %q", lines[2])
	}
}

func TestUtoa(t *testing.T) {
	for n, s := range map[uint32]string{0: "0", 7: "7", 167999: "167999", 4294967295: "4294967295"} {
		if got := Utoa(n); got != s {
			t.Errorf("Utoa(%d): expected %q, got %q", n, s, got)
		}
	}
}
