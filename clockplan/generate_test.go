package clockplan

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"f4tick/core"
)

func TestGoConstants(t *testing.T) {
	src, err := GoConstants(core.DefaultClockConfig(), "main")
	if err != nil {
		t.Fatalf("GoConstants failed: %v", err)
	}

	if _, err := parser.ParseFile(token.NewFileSet(), "config.go", src, 0); err != nil {
		t.Fatalf("Generated source does not parse: %v\n%s", err, src)
	}

	text := string(src)
	for _, want := range []string{
		"// Code generated by f4tick; DO NOT EDIT.",
		"//go:build stm32f407",
		"package main",
		"pllN          = 336",
		"flashLatency  = 5",
		"hclkFrequency = 168000000",
		"Voltage: core.Range27to36,",
		"SYSCLK 168 MHz",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Generated source lacks %q:\n%s", want, text)
		}
	}
}

func TestGoConstantsRejectsInvalid(t *testing.T) {
	cfg := core.DefaultClockConfig()
	cfg.Latency = 2
	if _, err := GoConstants(cfg, "main"); err != core.ErrFlashLatency {
		t.Errorf("Expected ErrFlashLatency, got %v", err)
	}
}
