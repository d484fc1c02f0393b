// Package textfile reads detector voltages from, and writes power readings
// to, Prometheus text exposition files — the node_exporter textfile-collector
// contract.
//
// An external ADC exporter owns the sampling hardware and periodically writes
// a gauge like
//
//	rfdetector_volts{channel="forward"} 1.234
//
// to a .prom file. ReadSamples parses that file, ConvertFile pushes the
// voltages through a meter.Meter, and WriteReadings emits rf_power_watts,
// rf_power_dbm, rf_detector_vinpp_volts and rf_detector_raw_volts gauges.
// Output writes are atomic (temp file + rename) so a concurrently scraping
// collector never observes a partial exposition.
package textfile
