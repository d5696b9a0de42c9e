package core

import "testing"

func TestFindPLLDiscovery(t *testing.T) {
	pll, err := FindPLL(&STM32F407, 8*MHz, 168*MHz)
	if err != nil {
		t.Fatalf("FindPLL failed: %v", err)
	}
	expected := PLLConfig{M: 4, N: 168, P: 2, Q: 7}
	if pll != expected {
		t.Errorf("Expected %+v, got %+v", expected, pll)
	}
	if got := pll.Sysclk(8 * MHz); got != 168*MHz {
		t.Errorf("Expected SYSCLK 168 MHz, got %d", got)
	}
	if got := pll.PLL48(8 * MHz); got != USBFrequency {
		t.Errorf("Expected PLL48CLK 48 MHz, got %d", got)
	}
}

func TestFindPLLExact(t *testing.T) {
	testCases := []struct {
		hse, target Hz
	}{
		{8 * MHz, 168 * MHz},
		{8 * MHz, 84 * MHz},
		{25 * MHz, 168 * MHz},
		{12 * MHz, 120 * MHz},
		{16 * MHz, 100 * MHz},
	}

	for _, tc := range testCases {
		pll, err := FindPLL(&STM32F407, tc.hse, tc.target)
		if err != nil {
			t.Errorf("FindPLL(%d, %d) failed: %v", tc.hse, tc.target, err)
			continue
		}
		if err := pll.Validate(&STM32F407, tc.hse); err != nil {
			t.Errorf("FindPLL(%d, %d) returned invalid %+v: %v", tc.hse, tc.target, pll, err)
		}
		if got := pll.Sysclk(tc.hse); got != tc.target {
			t.Errorf("FindPLL(%d, %d) produces %d", tc.hse, tc.target, got)
		}
	}
}

func TestFindPLLErrors(t *testing.T) {
	if _, err := FindPLL(&STM32F407, 3*MHz, 168*MHz); err != ErrHSERange {
		t.Errorf("Expected ErrHSERange, got %v", err)
	}
	if _, err := FindPLL(&STM32F407, 8*MHz, 180*MHz); err != ErrFrequencyTooHigh {
		t.Errorf("Expected ErrFrequencyTooHigh, got %v", err)
	}
	// 168 MHz + 1 Hz has no integer factorization
	if _, err := FindPLL(&STM32F407, 8*MHz, 167*MHz+1); err != ErrNoExactPLL {
		t.Errorf("Expected ErrNoExactPLL, got %v", err)
	}
}

func TestPLLValidate(t *testing.T) {
	testCases := []struct {
		name string
		pll  PLLConfig
		hse  Hz
		err  error
	}{
		{"discovery", PLLConfig{M: 8, N: 336, P: 2, Q: 7}, 8 * MHz, nil},
		{"M too small", PLLConfig{M: 1, N: 336, P: 2, Q: 7}, 8 * MHz, ErrPLLFactor},
		{"odd P", PLLConfig{M: 8, N: 336, P: 3, Q: 7}, 8 * MHz, ErrPLLFactor},
		{"N too small", PLLConfig{M: 8, N: 49, P: 2, Q: 7}, 8 * MHz, ErrPLLFactor},
		{"Q too large", PLLConfig{M: 8, N: 336, P: 2, Q: 16}, 8 * MHz, ErrPLLFactor},
		{"inexact M", PLLConfig{M: 3, N: 168, P: 2, Q: 7}, 8 * MHz, ErrPLLInexact},
		{"VCO input too low", PLLConfig{M: 16, N: 336, P: 2, Q: 7}, 8 * MHz, ErrPLLInputRange},
		{"VCO output too high", PLLConfig{M: 4, N: 432, P: 2, Q: 7}, 8 * MHz, ErrPLLOutputRange},
		{"HSE too fast", PLLConfig{M: 8, N: 336, P: 2, Q: 7}, 30 * MHz, ErrHSERange},
	}

	for _, tc := range testCases {
		if err := tc.pll.Validate(&STM32F407, tc.hse); err != tc.err {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.err, err)
		}
	}
}

func TestPLLWord(t *testing.T) {
	pll := PLLConfig{M: 8, N: 336, P: 2, Q: 7}
	w := pll.Word()

	// M[5:0]=8, N[14:6]=336, P[17:16]=0, SRC[22]=1, Q[27:24]=7
	expected := uint32(8) | 336<<6 | 1<<22 | 7<<24
	if w != expected {
		t.Errorf("Expected PLLCFGR 0x%08X, got 0x%08X", expected, w)
	}

	decoded, fromHSE := DecodePLLWord(w)
	if !fromHSE {
		t.Errorf("Expected HSE as PLL source")
	}
	if decoded != pll {
		t.Errorf("Decode mismatch: expected %+v, got %+v", pll, decoded)
	}

	for _, p := range []uint32{2, 4, 6, 8} {
		pll.P = p
		if decoded, _ := DecodePLLWord(pll.Word()); decoded.P != p {
			t.Errorf("P=%d decoded as %d", p, decoded.P)
		}
	}
}
