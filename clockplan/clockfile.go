package clockplan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"f4tick/core"
)

// PLLFactors are explicit PLL factors in a clock file
type PLLFactors struct {
	M uint32 `yaml:"m"`
	N uint32 `yaml:"n"`
	P uint32 `yaml:"p"`
	Q uint32 `yaml:"q"`
}

// FlashFile holds the flash accelerator switches. Unset switches are on.
type FlashFile struct {
	Prefetch         *bool `yaml:"prefetch"`
	InstructionCache *bool `yaml:"icache"`
	DataCache        *bool `yaml:"dcache"`
}

// ClockFile is a clock setup as written in YAML. Anything left out is
// planned from the chip limits: PLL factors from hse and sysclk, the
// smallest dividers meeting each bus ceiling, the minimum wait states.
type ClockFile struct {
	Chip    string      `yaml:"chip"`
	HSE     uint32      `yaml:"hse"`
	Sysclk  uint32      `yaml:"sysclk"`
	PLL     *PLLFactors `yaml:"pll"`
	AHB     uint32      `yaml:"ahb"`
	APB1    uint32      `yaml:"apb1"`
	APB2    uint32      `yaml:"apb2"`
	Voltage string      `yaml:"voltage"`
	Latency *uint32     `yaml:"latency"`
	Flash   FlashFile   `yaml:"flash"`
}

// LoadClockFile reads and parses a YAML clock file
func LoadClockFile(path string) (*ClockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read clock file: %w", err)
	}
	return ParseClockFile(data)
}

// ParseClockFile parses a YAML clock file and fills in defaults
func ParseClockFile(data []byte) (*ClockFile, error) {
	var file ClockFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse clock file: %w", err)
	}

	// Apply defaults
	applyDefaults(&file)

	return &file, nil
}

// applyDefaults fills in the fields that don't depend on the chip
func applyDefaults(file *ClockFile) {
	if file.Chip == "" {
		file.Chip = "stm32f407"
	}
	if file.HSE == 0 {
		file.HSE = 8000000 // STM32F4-Discovery crystal
	}
	if file.Voltage == "" {
		file.Voltage = core.Range27to36.String()
	}
	if file.AHB == 0 {
		file.AHB = 1
	}
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// Config resolves the file against its chip into a validated ClockConfig
func (f *ClockFile) Config() (core.ClockConfig, error) {
	limits, err := LookupLimits(f.Chip)
	if err != nil {
		return core.ClockConfig{}, err
	}
	voltage, ok := core.ParseVoltageRange(f.Voltage)
	if !ok {
		return core.ClockConfig{}, fmt.Errorf("unknown voltage range %q", f.Voltage)
	}

	cfg := core.ClockConfig{
		Chip:    limits,
		HSE:     core.Hz(f.HSE),
		AHBDiv:  f.AHB,
		Voltage: voltage,
		Flash: core.FlashOptions{
			Prefetch:         boolOr(f.Flash.Prefetch, true),
			InstructionCache: boolOr(f.Flash.InstructionCache, true),
			DataCache:        boolOr(f.Flash.DataCache, true),
		},
	}

	if f.PLL != nil {
		cfg.PLL = core.PLLConfig{M: f.PLL.M, N: f.PLL.N, P: f.PLL.P, Q: f.PLL.Q}
		if err := cfg.PLL.Validate(limits, cfg.HSE); err != nil {
			return core.ClockConfig{}, fmt.Errorf("pll: %w", err)
		}
		if f.Sysclk != 0 && cfg.PLL.Sysclk(cfg.HSE) != core.Hz(f.Sysclk) {
			return core.ClockConfig{}, fmt.Errorf("pll produces %d Hz, file asks for %d Hz",
				cfg.PLL.Sysclk(cfg.HSE), f.Sysclk)
		}
	} else {
		target := core.Hz(f.Sysclk)
		if target == 0 {
			target = limits.SysclkMax
		}
		if cfg.PLL, err = core.FindPLL(limits, cfg.HSE, target); err != nil {
			return core.ClockConfig{}, fmt.Errorf("pll: %w", err)
		}
	}

	if _, ok := core.HPREBits(cfg.AHBDiv); !ok {
		return core.ClockConfig{}, fmt.Errorf("ahb divider %d: %w", cfg.AHBDiv, core.ErrBusDivider)
	}
	hclk := cfg.PLL.Sysclk(cfg.HSE) / core.Hz(cfg.AHBDiv)
	if cfg.APB1Div = f.APB1; cfg.APB1Div == 0 {
		if cfg.APB1Div, err = core.BusDivider(hclk, limits.APB1Max, core.APBDividers); err != nil {
			return core.ClockConfig{}, fmt.Errorf("apb1: %w", err)
		}
	}
	if cfg.APB2Div = f.APB2; cfg.APB2Div == 0 {
		if cfg.APB2Div, err = core.BusDivider(hclk, limits.APB2Max, core.APBDividers); err != nil {
			return core.ClockConfig{}, fmt.Errorf("apb2: %w", err)
		}
	}
	if f.Latency != nil {
		cfg.Latency = *f.Latency
	} else if cfg.Latency, err = core.FlashLatency(limits.Latency[voltage], hclk); err != nil {
		return core.ClockConfig{}, fmt.Errorf("flash latency: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return core.ClockConfig{}, err
	}
	return cfg, nil
}
