package clockplan

import (
	"bytes"
	"fmt"
	"go/format"
	"text/template"

	"f4tick/core"
)

var constTemplate = template.Must(template.New("config").Parse(`// Code generated by f4tick; DO NOT EDIT.

//go:build {{.Chip}}

package {{.Package}}

import "f4tick/core"

// {{.Chip}}: {{.MHz .Cfg.HSE}} HSE, SYSCLK {{.MHz .Tree.Sysclk}}, HCLK {{.MHz .Tree.HCLK}}, PCLK1 {{.MHz .Tree.PCLK1}}, PCLK2 {{.MHz .Tree.PCLK2}}
const (
	hseFrequency = {{.Cfg.HSE}}
	pllM = {{.Cfg.PLL.M}}
	pllN = {{.Cfg.PLL.N}}
	pllP = {{.Cfg.PLL.P}}
	pllQ = {{.Cfg.PLL.Q}}
	ahbDivider = {{.Cfg.AHBDiv}}
	apb1Divider = {{.Cfg.APB1Div}}
	apb2Divider = {{.Cfg.APB2Div}}
	flashLatency = {{.Cfg.Latency}}
	hclkFrequency = {{.Tree.HCLK}}
)

func clockConfig() core.ClockConfig {
	return core.ClockConfig{
		HSE: hseFrequency,
		PLL: core.PLLConfig{M: pllM, N: pllN, P: pllP, Q: pllQ},
		AHBDiv: ahbDivider,
		APB1Div: apb1Divider,
		APB2Div: apb2Divider,
		Voltage: core.{{.VoltageConst}},
		Latency: flashLatency,
		Flash: core.FlashOptions{
			Prefetch: {{.Cfg.Flash.Prefetch}},
			InstructionCache: {{.Cfg.Flash.InstructionCache}},
			DataCache: {{.Cfg.Flash.DataCache}},
		},
	}
}
`))

type constData struct {
	Package string
	Chip    string
	Cfg     core.ClockConfig
	Tree    core.ClockTree
}

func (constData) MHz(hz core.Hz) string {
	if hz%core.MHz == 0 {
		return fmt.Sprintf("%d MHz", hz/core.MHz)
	}
	return fmt.Sprintf("%d Hz", hz)
}

func (d constData) VoltageConst() string {
	return [...]string{"Range27to36", "Range24to27", "Range21to24", "Range18to21"}[d.Cfg.Voltage]
}

// GoConstants renders cfg as a gofmt'ed Go file for package pkg. The file
// defines clockConfig(), which a firmware target passes to InitClock, and is
// constrained to builds tagged with the chip name.
func GoConstants(cfg core.ClockConfig, pkg string) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	chip := "stm32f407"
	if cfg.Chip != nil {
		chip = cfg.Chip.Name
	}

	var buf bytes.Buffer
	data := constData{Package: pkg, Chip: chip, Cfg: cfg, Tree: cfg.Tree()}
	if err := constTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render constants: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format constants: %w", err)
	}
	return src, nil
}
