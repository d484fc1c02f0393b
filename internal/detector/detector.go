package detector

import "math"

// LoadOhms is the reference impedance the power calculation assumes.
const LoadOhms = 50.0

// Calibration is the fitted transfer curve of one detector part. The fit maps
// a zero-corrected detector voltage V to the peak-to-peak voltage of the RF
// input that produced it, split into two polynomial segments around Threshold.
//
// The values are empirical calibration data, not tuning knobs: substituting a
// different detector model means substituting a whole new Calibration, never
// editing individual coefficients.
type Calibration struct {
	// Model names the detector part the fit was measured against.
	Model string

	// Threshold is the corrected voltage at which the fit switches from the
	// low cubic to the high quadratic. The high segment is inclusive: a
	// corrected voltage exactly equal to Threshold uses HighFit.
	Threshold float64

	// HighFit holds the quadratic coefficients {a2, a1, a0} for
	// Vinpp = a2·V² + a1·V + a0, used when V >= Threshold.
	HighFit [3]float64

	// LowFit holds the cubic coefficients {a3, a2, a1, a0} for
	// Vinpp = a3·V³ + a2·V² + a1·V + a0, used when V < Threshold.
	LowFit [4]float64

	// VppDivisor converts the fitted peak-to-peak voltage into the effective
	// amplitude the P = E²/R step expects.
	VppDivisor float64
}

// LTC5507 is the calibration for the Linear Technology LTC5507 diode
// detector, fitted against its logarithmic transfer curve.
var LTC5507 = Calibration{
	Model:      "ltc5507",
	Threshold:  0.42100,
	HighFit:    [3]float64{0.036838, 1.739364, -0.384399},
	LowFit:     [4]float64{7.346069, -3.656032, 1.032727, 0.017345},
	VppDivisor: 2.818,
}

// ComputePower converts a raw LTC5507 output voltage into RF power in watts.
//
// couplerAttenuationDb is the directional coupler's attenuation (positive =
// loss); zeroPowerOffsetVolts is the detector's output with no RF present;
// rawDetectorVolts is the measured detector output. A raw reading at or below
// the zero offset (noise) reads as zero RF input.
//
// The function is total over finite inputs and never fails; non-finite inputs
// propagate through IEEE-754 arithmetic unchanged.
func ComputePower(couplerAttenuationDb, zeroPowerOffsetVolts, rawDetectorVolts float64) float64 {
	return LTC5507.Power(couplerAttenuationDb, zeroPowerOffsetVolts, rawDetectorVolts)
}

// Power is ComputePower evaluated against this calibration.
func (c Calibration) Power(couplerAttenuationDb, zeroPowerOffsetVolts, rawDetectorVolts float64) float64 {
	v := rawDetectorVolts - zeroPowerOffsetVolts
	if v < 0.0 {
		v = 0.0
	}
	vinpp := c.VinPP(v)
	e := vinpp / c.VppDivisor
	return CouplerGain(couplerAttenuationDb) * e * e / LoadOhms
}

// VinPP maps a zero-corrected detector voltage to the fitted peak-to-peak
// input voltage. The caller is responsible for the zero correction and floor;
// Power does both.
func (c Calibration) VinPP(correctedVolts float64) float64 {
	v := correctedVolts
	if v >= c.Threshold {
		return c.HighFit[0]*v*v + c.HighFit[1]*v + c.HighFit[2]
	}
	return c.LowFit[0]*v*v*v + c.LowFit[1]*v*v + c.LowFit[2]*v + c.LowFit[3]
}

// CouplerGain converts a coupler attenuation in dB into the linear power
// ratio that scales a sampled-port reading back up to line power. The sign is
// applied here so callers multiply instead of divide.
func CouplerGain(attenuationDb float64) float64 {
	return math.Pow(10, -attenuationDb/10)
}

// DbmFromWatts converts watts to dBm. Zero watts yields -Inf, matching the
// logarithm; display layers decide how to render that.
func DbmFromWatts(w float64) float64 {
	return 10 * math.Log10(w*1000)
}

// WattsFromDbm converts dBm to watts.
func WattsFromDbm(dbm float64) float64 {
	return math.Pow(10, dbm/10) / 1000
}
