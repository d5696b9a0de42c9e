// Package clockplan plans and checks STM32F4 clock trees on the host. Chip
// limits come from an embedded table; clock setups are read from YAML files
// and can be emitted as Go constants for a firmware target.
package clockplan

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"f4tick/core"
)

//go:embed chips.yaml
var rawChips []byte

var (
	chips          Chips
	ErrUnknownChip = errors.New("unknown chip")
)

// All returns the embedded chip table
func All() Chips {
	return chips
}

// Chips is a list of chip table entries
type Chips []ChipInfo

// ChipInfo is one chip table entry
type ChipInfo struct {
	Name      string              `yaml:"name"`
	Aliases   []string            `yaml:"aliases"`
	SysclkMax uint32              `yaml:"sysclkMax"`
	AHBMax    uint32              `yaml:"ahbMax"`
	APB1Max   uint32              `yaml:"apb1Max"`
	APB2Max   uint32              `yaml:"apb2Max"`
	HSEMin    uint32              `yaml:"hseMin"`
	HSEMax    uint32              `yaml:"hseMax"`
	VCOInMin  uint32              `yaml:"vcoInMin"`
	VCOInMax  uint32              `yaml:"vcoInMax"`
	VCOOutMin uint32              `yaml:"vcoOutMin"`
	VCOOutMax uint32              `yaml:"vcoOutMax"`
	PLLNMin   uint32              `yaml:"pllNMin"`
	PLLNMax   uint32              `yaml:"pllNMax"`

	LatencyBits uint8               `yaml:"latencyBits"`
	Latency     map[string][]uint32 `yaml:"latency"`
}

// Limits converts the entry to the core's representation
func (c ChipInfo) Limits() (*core.ChipLimits, error) {
	limits := &core.ChipLimits{
		Name:      c.Name,
		SysclkMax: core.Hz(c.SysclkMax),
		AHBMax:    core.Hz(c.AHBMax),
		APB1Max:   core.Hz(c.APB1Max),
		APB2Max:   core.Hz(c.APB2Max),
		HSEMin:    core.Hz(c.HSEMin),
		HSEMax:    core.Hz(c.HSEMax),
		VCOInMin:  core.Hz(c.VCOInMin),
		VCOInMax:  core.Hz(c.VCOInMax),
		VCOOutMin: core.Hz(c.VCOOutMin),
		VCOOutMax: core.Hz(c.VCOOutMax),
		PLLNMin:   c.PLLNMin,
		PLLNMax:   c.PLLNMax,

		LatencyBits: c.LatencyBits,
	}
	for name, table := range c.Latency {
		v, ok := core.ParseVoltageRange(name)
		if !ok {
			return nil, fmt.Errorf("chip %s: unknown voltage range %q", c.Name, name)
		}
		if !slices.IsSorted(table) {
			return nil, fmt.Errorf("chip %s: latency table %s not ascending", c.Name, name)
		}
		if uint32(len(table)-1) > limits.LatencyMask() {
			return nil, fmt.Errorf("chip %s: latency table %s needs %d wait states, LATENCY holds %d",
				c.Name, name, len(table)-1, limits.LatencyMask())
		}
		limits.Latency[v] = make(core.LatencyTable, len(table))
		for i, hz := range table {
			limits.Latency[v][i] = core.Hz(hz)
		}
	}
	for v, table := range limits.Latency {
		if len(table) == 0 {
			return nil, fmt.Errorf("chip %s: missing latency table for %s", c.Name, core.VoltageRange(v))
		}
	}
	return limits, nil
}

// Find looks a chip up by name or alias, ignoring case
func (c Chips) Find(name string) (ChipInfo, error) {
	name = strings.ToLower(name)
	idx := slices.IndexFunc(c, func(chip ChipInfo) bool {
		return chip.Name == name || slices.Contains(chip.Aliases, name)
	})
	if idx < 0 {
		return ChipInfo{}, fmt.Errorf("%w: %s", ErrUnknownChip, name)
	}
	return c[idx], nil
}

// Names returns every chip name and alias, sorted
func (c Chips) Names() []string {
	var names []string
	for _, chip := range c {
		names = append(names, chip.Name)
		names = append(names, chip.Aliases...)
	}
	slices.Sort(names)
	return names
}

// LookupLimits finds a chip and converts it in one step
func LookupLimits(name string) (*core.ChipLimits, error) {
	chip, err := chips.Find(name)
	if err != nil {
		return nil, err
	}
	return chip.Limits()
}

func init() {
	var t struct {
		Elements []ChipInfo `yaml:"chips"`
	}
	if err := yaml.Unmarshal(rawChips, &t); err != nil {
		panic(err)
	}

	chips = t.Elements
}
