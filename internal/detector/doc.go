// Package detector converts the DC output voltage of a logarithmic RF power
// detector into an equivalent RF power in watts.
//
// detector.go provides the pure ComputePower(couplerDb, zeroOffset, rawVolts)
// function: a two-segment polynomial curve fit from detector voltage to
// peak-to-peak input voltage, followed by P = E²/R into a 50 Ω reference,
// scaled up by the directional coupler's attenuation.
//
// The curve-fit coefficients, the 0.421 V segment threshold and the 2.818
// peak-to-peak divisor are calibration data for the LTC5507 part, carried as
// the Calibration value LTC5507. A different detector model is a new
// Calibration value; the control flow never changes.
package detector
