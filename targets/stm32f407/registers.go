//go:build stm32f407

package main

import (
	"f4tick/core"
	"runtime/volatile"
	"unsafe"
)

const usart2Base = 0x40004400

func reg(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

// Register blocks, laid over the RM0090 memory map
var (
	rcc = &core.RCCRegisters{
		CR:      reg(core.RCCBase + 0x00),
		PLLCFGR: reg(core.RCCBase + 0x04),
		CFGR:    reg(core.RCCBase + 0x08),
		CIR:     reg(core.RCCBase + 0x0C),
		AHB1ENR: reg(core.RCCBase + 0x30),
	}

	flash = &core.FlashRegisters{
		ACR: reg(core.FlashBase + 0x00),
	}

	// baud rate register of USART2, the UART behind machine.Serial
	usart2BRR = reg(usart2Base + 0x08)

	sysTick = &core.SysTickRegisters{
		CTRL:  reg(core.SysTickBase + 0x00),
		LOAD:  reg(core.SysTickBase + 0x04),
		VAL:   reg(core.SysTickBase + 0x08),
		CALIB: reg(core.SysTickBase + 0x0C),
	}
)
