package clockplan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"f4tick/core"
)

const discoveryYAML = `
chip: stm32f407
hse: 8000000
sysclk: 168000000
pll: {m: 8, n: 336, p: 2, q: 7}
apb1: 4
apb2: 2
latency: 5
`

func TestClockFileExplicit(t *testing.T) {
	file, err := ParseClockFile([]byte(discoveryYAML))
	if err != nil {
		t.Fatalf("ParseClockFile failed: %v", err)
	}
	cfg, err := file.Config()
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}

	want := core.DefaultClockConfig()
	if cfg.PLL != want.PLL || cfg.AHBDiv != 1 || cfg.APB1Div != 4 || cfg.APB2Div != 2 || cfg.Latency != 5 {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.Flash != core.DefaultFlashOptions() {
		t.Errorf("Expected flash options to default on, got %+v", cfg.Flash)
	}
}

func TestClockFileDefaults(t *testing.T) {
	file, err := ParseClockFile([]byte("{}"))
	if err != nil {
		t.Fatalf("ParseClockFile failed: %v", err)
	}
	if file.Chip != "stm32f407" || file.HSE != 8000000 || file.Voltage != "2.7-3.6" || file.AHB != 1 {
		t.Errorf("Defaults not applied: %+v", *file)
	}

	cfg, err := file.Config()
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	if tree := cfg.Tree(); tree.Sysclk != 168*core.MHz || tree.PCLK1 != 42*core.MHz {
		t.Errorf("Planned tree %+v", tree)
	}
	if cfg.Latency != 5 {
		t.Errorf("Expected planned latency 5, got %d", cfg.Latency)
	}
}

func TestClockFileErrors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
		err  error
	}{
		{"latency too low", "latency: 4", core.ErrFlashLatency},
		{"apb1 too fast", "apb1: 2", core.ErrBusDivider},
		{"inexact pll", "pll: {m: 3, n: 168, p: 2, q: 7}", core.ErrPLLInexact},
		{"no exact pll", "sysclk: 167000001", core.ErrNoExactPLL},
		{"unknown chip", "chip: stm32h743", ErrUnknownChip},
		{"bad ahb divider", "ahb: 3", core.ErrBusDivider},
	}

	for _, tc := range testCases {
		file, err := ParseClockFile([]byte(tc.yaml))
		if err != nil {
			t.Errorf("%s: parse failed: %v", tc.name, err)
			continue
		}
		if _, err := file.Config(); !errors.Is(err, tc.err) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.err, err)
		}
	}
}

func TestClockFileSysclkMismatch(t *testing.T) {
	file, err := ParseClockFile([]byte("sysclk: 84000000\npll: {m: 8, n: 336, p: 2, q: 7}"))
	if err != nil {
		t.Fatalf("ParseClockFile failed: %v", err)
	}
	if _, err := file.Config(); err == nil {
		t.Errorf("Expected a mismatch between pll and sysclk to be rejected")
	}
}

func TestClockFileFlashSwitches(t *testing.T) {
	file, err := ParseClockFile([]byte("flash: {dcache: false}"))
	if err != nil {
		t.Fatalf("ParseClockFile failed: %v", err)
	}
	cfg, err := file.Config()
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	if !cfg.Flash.Prefetch || !cfg.Flash.InstructionCache || cfg.Flash.DataCache {
		t.Errorf("Unexpected flash options %+v", cfg.Flash)
	}
}

func TestLoadClockFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clock.yaml")
	if err := os.WriteFile(path, []byte(discoveryYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadClockFile(path); err != nil {
		t.Errorf("LoadClockFile failed: %v", err)
	}
	if _, err := LoadClockFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Expected an error for a missing file")
	}
	if _, err := ParseClockFile([]byte("chip: [")); err == nil {
		t.Errorf("Expected a parse error")
	}
}
