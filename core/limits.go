package core

// Hz is a frequency in cycles per second
type Hz uint32

const (
	KHz Hz = 1000
	MHz Hz = 1000 * KHz
)

// HSIFrequency is the internal RC oscillator the core runs from after reset
const HSIFrequency = 16 * MHz

// VoltageRange selects a column of the flash wait-state table
type VoltageRange uint8

const (
	Range27to36 VoltageRange = iota // 2.7 V - 3.6 V
	Range24to27                     // 2.4 V - 2.7 V
	Range21to24                     // 2.1 V - 2.4 V
	Range18to21                     // 1.8 V - 2.1 V
)

func (v VoltageRange) String() string {
	switch v {
	case Range27to36:
		return "2.7-3.6"
	case Range24to27:
		return "2.4-2.7"
	case Range21to24:
		return "2.1-2.4"
	case Range18to21:
		return "1.8-2.1"
	default:
		return "invalid"
	}
}

// ParseVoltageRange accepts the String form of a VoltageRange
func ParseVoltageRange(s string) (VoltageRange, bool) {
	for v := Range27to36; v <= Range18to21; v++ {
		if v.String() == s {
			return v, true
		}
	}
	return 0, false
}

// LatencyTable holds, for each wait-state count, the highest HCLK that
// count supports. Index 0 is zero wait states.
type LatencyTable []Hz

// ChipLimits are the datasheet ceilings and PLL ranges of one part
type ChipLimits struct {
	Name string

	SysclkMax Hz
	AHBMax    Hz
	APB1Max   Hz
	APB2Max   Hz

	HSEMin Hz
	HSEMax Hz

	VCOInMin  Hz
	VCOInMax  Hz
	VCOOutMin Hz
	VCOOutMax Hz

	PLLNMin uint32
	PLLNMax uint32

	// LatencyBits is the width of the ACR LATENCY field: 3 on F401/F405/F407/F411,
	// 4 on F42x/F43x
	LatencyBits uint8

	// Latency is indexed by VoltageRange
	Latency [4]LatencyTable
}

// STM32F407 limits from DS8626 and RM0090 Table 10
var STM32F407 = ChipLimits{
	Name:      "stm32f407",
	SysclkMax: 168 * MHz,
	AHBMax:    168 * MHz,
	APB1Max:   42 * MHz,
	APB2Max:   84 * MHz,
	HSEMin:    4 * MHz,
	HSEMax:    26 * MHz,
	VCOInMin:  1 * MHz,
	VCOInMax:  2 * MHz,
	VCOOutMin: 100 * MHz,
	VCOOutMax: 432 * MHz,
	PLLNMin:   50,
	PLLNMax:   432,

	LatencyBits: 3,
	Latency: [4]LatencyTable{
		Range27to36: {30 * MHz, 60 * MHz, 90 * MHz, 120 * MHz, 150 * MHz, 168 * MHz},
		Range24to27: {24 * MHz, 48 * MHz, 72 * MHz, 96 * MHz, 120 * MHz, 144 * MHz, 168 * MHz},
		Range21to24: {22 * MHz, 44 * MHz, 66 * MHz, 88 * MHz, 110 * MHz, 132 * MHz, 154 * MHz, 168 * MHz},
		Range18to21: {20 * MHz, 40 * MHz, 60 * MHz, 80 * MHz, 100 * MHz, 120 * MHz, 140 * MHz, 160 * MHz},
	},
}

// LatencyMask is the largest wait-state count the chip's LATENCY field holds
func (l *ChipLimits) LatencyMask() uint32 {
	return 1<<l.LatencyBits - 1
}
