// Package meter applies per-channel calibration settings to raw detector
// voltages, producing power Readings.
//
// The detector package owns the pure voltage→watts math; Meter owns the
// mapping from channel ids (forward, reflected, ...) to their configured
// coupler attenuation, zero-power offset and detector model, and supports
// swapping that mapping atomically on config hot-reload via Apply.
package meter
