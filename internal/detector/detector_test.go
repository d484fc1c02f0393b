package detector

import (
	"math"
	"testing"
)

// almostEqual returns true if a and b are within epsilon of each other.
func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// relClose returns true if a and b agree to within a relative tolerance.
func relClose(a, b, tol float64) bool {
	if b == 0 {
		return math.Abs(a) < tol
	}
	return math.Abs(a-b)/math.Abs(b) < tol
}

// --- ComputePower() table-driven tests ---

func TestComputePower_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		couplerDb float64
		zeroVolts float64
		rawVolts  float64
		want      float64
	}{
		{
			// corrected = 0 → low cubic constant term 0.017345 Vpp
			// (0.017345/2.818)²/50 = 7.577e-7
			name: "zero input — low segment floor",
			want: 7.576988471657161e-07,
		},
		{
			// corrected = -0.05, clamped to exactly 0 → identical to zero input
			name:      "negative corrected voltage clamps to zero",
			zeroVolts: 0.1,
			rawVolts:  0.05,
			want:      7.576988471657161e-07,
		},
		{
			// corrected exactly at the 0.421 boundary → high quadratic:
			// 0.036838·0.421² + 1.739364·0.421 − 0.384399 = 0.3544024 Vpp
			name:     "segment boundary uses high fit",
			rawVolts: 0.421,
			want:     0.0003163307741287577,
		},
		{
			// high fit at 1.0 V → Vinpp = 1.391803; 20 dB coupler → ×0.01
			name:      "high segment with 20 dB coupler",
			couplerDb: 20,
			rawVolts:  1.0,
			want:      4.878693723480453e-05,
		},
		{
			name:     "high segment, no coupler loss",
			rawVolts: 1.0,
			want:     0.004878693723480453,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputePower(tc.couplerDb, tc.zeroVolts, tc.rawVolts)
			if !relClose(got, tc.want, 1e-12) {
				t.Errorf("ComputePower(%v, %v, %v) = %.12e, want %.12e",
					tc.couplerDb, tc.zeroVolts, tc.rawVolts, got, tc.want)
			}
		})
	}
}

func TestComputePower_ZeroFloor(t *testing.T) {
	// Any raw reading at or below the zero offset must read identically to a
	// reading exactly at the offset.
	const zero = 0.35
	atOffset := ComputePower(30, zero, zero)
	for _, raw := range []float64{zero, zero - 0.001, zero - 0.1, 0, -5} {
		if got := ComputePower(30, zero, raw); got != atOffset {
			t.Errorf("ComputePower(30, %v, %v) = %v, want %v (zero-floor)", zero, raw, got, atOffset)
		}
	}
}

func TestComputePower_Monotonic(t *testing.T) {
	// Sampled monotonicity: above the zero offset, more detector voltage never
	// means less power. Sweep both fit segments and the boundary.
	prev := math.Inf(-1)
	for v := 0.0; v <= 2.0; v += 0.001 {
		p := ComputePower(0, 0, v)
		if p < prev {
			t.Fatalf("power decreased at %v V: %v < %v", v, p, prev)
		}
		prev = p
	}
}

func TestComputePower_CouplerScaling(t *testing.T) {
	// Halving the coupler attenuation by 10·log10(2) dB doubles the power.
	const db = 30.0
	halfStep := 10 * math.Log10(2)
	for _, raw := range []float64{0.1, 0.42100, 1.0, 2.5} {
		base := ComputePower(db, 0, raw)
		doubled := ComputePower(db-halfStep, 0, raw)
		if !relClose(doubled, 2*base, 1e-12) {
			t.Errorf("raw=%v: power at %v dB = %v, want 2× power at %v dB (%v)",
				raw, db-halfStep, doubled, db, base)
		}
	}
}

func TestComputePower_NonFinitePropagates(t *testing.T) {
	// The function is documented total over finite inputs; non-finite inputs
	// flow through IEEE-754 arithmetic rather than erroring.
	if got := ComputePower(0, 0, math.Inf(1)); !math.IsInf(got, 1) {
		t.Errorf("ComputePower(0, 0, +Inf) = %v, want +Inf", got)
	}
	if got := ComputePower(0, 0, math.NaN()); !math.IsNaN(got) {
		t.Errorf("ComputePower(0, 0, NaN) = %v, want NaN", got)
	}
}

// --- Calibration ---

func TestCalibration_VinPPBoundary(t *testing.T) {
	// The boundary is inclusive on the high-segment side: exactly 0.421 uses
	// the quadratic, a hair below uses the cubic. The two fits disagree
	// slightly there; the discontinuity is part of the original calibration.
	high := LTC5507.VinPP(LTC5507.Threshold)
	if !almostEqual(high, 0.35440244795799997, 1e-12) {
		t.Errorf("VinPP(threshold) = %.17g, want high-fit value 0.354402448", high)
	}
	below := LTC5507.VinPP(LTC5507.Threshold - 1e-6)
	if !almostEqual(below, 0.3522748020515283, 1e-9) {
		t.Errorf("VinPP(threshold-1e-6) = %.17g, want low-fit value 0.352274802", below)
	}
}

func TestCalibration_Substitutable(t *testing.T) {
	// A flat unity "calibration" shows Power's shared plumbing works for any
	// constant set: Vinpp = V, so P = gain·(V/1)²/50.
	flat := Calibration{
		Model:      "unity",
		Threshold:  math.Inf(1), // always the low segment
		LowFit:     [4]float64{0, 0, 1, 0},
		VppDivisor: 1,
	}
	got := flat.Power(0, 0, 2.0)
	want := 2.0 * 2.0 / LoadOhms
	if !relClose(got, want, 1e-12) {
		t.Errorf("unity calibration Power = %v, want %v", got, want)
	}
}

// --- helpers ---

func TestCouplerGain(t *testing.T) {
	tests := []struct{ db, want float64 }{
		{0, 1},
		{10, 0.1},
		{20, 0.01},
		{30, 0.001},
		{-10, 10}, // a gain stage, not a loss — still well-defined
	}
	for _, tc := range tests {
		if got := CouplerGain(tc.db); !relClose(got, tc.want, 1e-12) {
			t.Errorf("CouplerGain(%v) = %v, want %v", tc.db, got, tc.want)
		}
	}
}

func TestDbmWattsRoundTrip(t *testing.T) {
	for _, w := range []float64{1e-9, 1e-3, 1, 100, 1500} {
		if got := WattsFromDbm(DbmFromWatts(w)); !relClose(got, w, 1e-12) {
			t.Errorf("round trip of %v W = %v", w, got)
		}
	}
	if got := DbmFromWatts(1); !almostEqual(got, 30, 1e-12) {
		t.Errorf("DbmFromWatts(1) = %v, want 30", got)
	}
	if got := DbmFromWatts(0); !math.IsInf(got, -1) {
		t.Errorf("DbmFromWatts(0) = %v, want -Inf", got)
	}
}
