package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"f4tick/core"
	"f4tick/protocol"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPlanCommand(t *testing.T) {
	out, err := execute(t, "plan", "--hse", "8000000", "--sysclk", "168000000")
	if err != nil {
		t.Fatalf("plan failed: %v\n%s", err, out)
	}
	for _, want := range []string{
		"PLL       M=4 N=168 P=2 Q=7",
		"HCLK      168 MHz (AHB /1)",
		"PCLK1     42 MHz (APB1 /4, timers 84 MHz)",
		"flash     5 wait states",
		"SysTick   reload 167999",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("plan output lacks %q:\n%s", want, out)
		}
	}
}

func TestPlanCommandGo(t *testing.T) {
	out, err := execute(t, "plan", "--chip", "stm32f411", "--go", "--package", "board")
	if err != nil {
		t.Fatalf("plan --go failed: %v", err)
	}
	if !strings.Contains(out, "package board") || !strings.Contains(out, "hclkFrequency = 100000000") {
		t.Errorf("Unexpected generated source:\n%s", out)
	}
}

func TestPlanCommandErrors(t *testing.T) {
	if _, err := execute(t, "plan", "--chip", "stm32h743"); err == nil {
		t.Errorf("Expected an unknown chip to fail")
	}
	if _, err := execute(t, "plan", "--sysclk", "200000000"); err == nil {
		t.Errorf("Expected 200 MHz on an F407 to fail")
	}
	if _, err := execute(t, "plan", "--vrange", "5V"); err == nil {
		t.Errorf("Expected an unknown voltage range to fail")
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(good, []byte("pll: {m: 8, n: 336, p: 2, q: 7}\nlatency: 5\n"), 0o644)
	os.WriteFile(bad, []byte("pll: {m: 8, n: 336, p: 2, q: 7}\nlatency: 3\n"), 0o644)

	out, err := execute(t, "check", good)
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "good.yaml: ok") || !strings.Contains(out, "M=8 N=336 P=2 Q=7") {
		t.Errorf("Unexpected check output:\n%s", out)
	}

	if _, err := execute(t, "check", bad); err == nil {
		t.Errorf("Expected a latency of 3 at 168 MHz to fail")
	}
	if _, err := execute(t, "check"); err == nil {
		t.Errorf("Expected check without a file to fail")
	}
}

func TestSimulateCommand(t *testing.T) {
	out, err := execute(t, "simulate", "--ms", "1000")
	if err != nil {
		t.Fatalf("simulate failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "core running at 168 MHz, recorded 168 MHz") {
		t.Errorf("Unexpected clock line:\n%s", out)
	}
	if !strings.Contains(out, "1000 ticks in 1000 simulated ms") {
		t.Errorf("Unexpected tick count:\n%s", out)
	}
}

func TestSimulateHSEFault(t *testing.T) {
	out, err := execute(t, "simulate", "--hse-fault", "--ms", "500")
	if err == nil {
		t.Fatalf("Expected the HSE fault to surface")
	}
	if !strings.Contains(out, "core running at 16 MHz, recorded 16 MHz") {
		t.Errorf("Expected the core to stay on HSI:\n%s", out)
	}
	if !strings.Contains(out, "500 ticks in 500 simulated ms") {
		t.Errorf("Ticks must stay correct on HSI:\n%s", out)
	}
	if !strings.Contains(out, "[BOOT] FAULT") {
		t.Errorf("Expected the boot log dump:\n%s", out)
	}
}

func TestSimulateBlinks(t *testing.T) {
	out, err := execute(t, "simulate", "--boot-on-pll", "--ms", "0", "--blinks", "3")
	if err != nil {
		t.Fatalf("simulate failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "toggle 3 at tick") {
		t.Errorf("Expected three toggles:\n%s", out)
	}
}

func TestRunMonitor(t *testing.T) {
	var enc protocol.Encoder
	var stream bytes.Buffer
	frame := func(payload func(protocol.OutputBuffer)) {
		output := protocol.NewScratchOutput()
		if err := enc.Frame(output, payload); err != nil {
			t.Fatal(err)
		}
		stream.Write(output.Result())
	}

	boot := protocol.BootReport{
		Version: protocol.Version, Fault: true, FailedStage: uint32(core.StageHSEReady),
		Sysclk: 16000000, HCLK: 16000000, PCLK1: 16000000, PCLK2: 16000000,
		SysTickReload: 15999, TicksPerSecond: 1000,
	}
	frame(func(o protocol.OutputBuffer) { protocol.EncodeBoot(o, &boot) })
	frame(func(o protocol.OutputBuffer) {
		protocol.EncodeStatus(o, &protocol.StatusReport{Ticks: 500, Toggles: 1})
	})

	var out bytes.Buffer
	err := runMonitor(context.Background(), &out, &stream, true)
	if err == nil {
		t.Errorf("Expected a single sample to be too few for a rate")
	}
	if !strings.Contains(out.String(), "boot: FAULT at HSE_READY, running 16 MHz from HSI") {
		t.Errorf("Unexpected boot line:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "ticks=500 toggles=1") {
		t.Errorf("Expected a verbose status line:\n%s", out.String())
	}
}
