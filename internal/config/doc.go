// Package config loads and watches the rfmeter configuration file.
//
// Top-level types:
//   - Config{Meter} — full config tree parsed from YAML
//   - MeterConfig — input, output, rescan_interval, channels []
//   - InputConfig — path, metric, channel_label of the detector-voltage gauge
//   - OutputConfig — path of the power exposition file to write
//   - Channel — id, detector model, coupler_attenuation_db,
//     zero_power_offset_volts (the per-channel calibration scalars)
//
// Load(path) reads the YAML file, applies defaults (15s rescan,
// rfdetector_volts metric, channel label, ltc5507 detector), then validates
// required fields, id uniqueness and calibration sanity.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It handles the rename→create pattern
// used by atomic-save editors (vim, VS Code) by re-adding the watch after
// a rename event.
package config
