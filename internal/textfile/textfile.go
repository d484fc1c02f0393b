package textfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/rfmeter/rfmeter/internal/config"
	"github.com/rfmeter/rfmeter/internal/meter"
)

// Names of the gauge families written to the output exposition file.
const (
	MetricPowerWatts  = "rf_power_watts"
	MetricPowerDbm    = "rf_power_dbm"
	MetricVinPPVolts  = "rf_detector_vinpp_volts"
	MetricRawVolts    = "rf_detector_raw_volts"
	OutputChannelName = "channel"
)

// ReadSamples parses a Prometheus text exposition from r and extracts one
// voltage sample per series of the named metric, using channelLabel to name
// the channel. Series without the channel label are ignored; the input file
// may carry unrelated gauges from the same exporter.
//
// Returns an error when the exposition cannot be parsed at all or the metric
// family is absent; an external ADC exporter that stopped writing voltages is
// a condition the caller should surface.
func ReadSamples(r io.Reader, metric, channelLabel string) ([]meter.Sample, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("textfile: parse exposition: %w", err)
	}

	mf, ok := mfs[metric]
	if !ok {
		return nil, fmt.Errorf("textfile: metric %q not present in input", metric)
	}

	var samples []meter.Sample
	for _, m := range mf.GetMetric() {
		channel := ""
		for _, lp := range m.GetLabel() {
			if lp.GetName() == channelLabel {
				channel = lp.GetValue()
				break
			}
		}
		if channel == "" {
			continue
		}
		v, ok := sampleValue(m)
		if !ok {
			continue
		}
		samples = append(samples, meter.Sample{Channel: channel, Volts: v})
	}
	return samples, nil
}

// sampleValue extracts the value of a gauge or untyped series. ADC exporters
// commonly omit TYPE lines, which parses as untyped.
func sampleValue(m *dto.Metric) (float64, bool) {
	switch {
	case m.Gauge != nil:
		return m.Gauge.GetValue(), true
	case m.Untyped != nil:
		return m.Untyped.GetValue(), true
	default:
		return 0, false
	}
}

// WriteReadings encodes the readings as Prometheus text exposition gauges:
// rf_power_watts, rf_power_dbm, rf_detector_vinpp_volts and
// rf_detector_raw_volts, one series per channel.
func WriteReadings(w io.Writer, readings []meter.Reading) error {
	sorted := make([]meter.Reading, len(readings))
	copy(sorted, readings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Channel < sorted[j].Channel })

	families := []*dto.MetricFamily{
		gaugeFamily(MetricPowerWatts, "RF power at the line, corrected for coupler attenuation.",
			sorted, func(r meter.Reading) float64 { return r.Watts }),
		gaugeFamily(MetricPowerDbm, "RF power at the line in dBm.",
			sorted, func(r meter.Reading) float64 { return r.Dbm }),
		gaugeFamily(MetricVinPPVolts, "Fitted peak-to-peak input voltage at the detector.",
			sorted, func(r meter.Reading) float64 { return r.VinPP }),
		gaugeFamily(MetricRawVolts, "Raw detector output voltage as read from the input file.",
			sorted, func(r meter.Reading) float64 { return r.RawVolts }),
	}

	for _, mf := range families {
		// expfmt rejects a family with no series; a pass with no matching
		// samples still has to produce a valid (empty) exposition.
		if len(mf.Metric) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("textfile: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// gaugeFamily builds one gauge MetricFamily with a channel-labelled series
// per reading.
func gaugeFamily(name, help string, readings []meter.Reading, value func(meter.Reading) float64) *dto.MetricFamily {
	mf := &dto.MetricFamily{
		Name: strPtr(name),
		Help: strPtr(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
	for _, r := range readings {
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label: []*dto.LabelPair{
				{Name: strPtr(OutputChannelName), Value: strPtr(r.Channel)},
			},
			Gauge: &dto.Gauge{Value: floatPtr(value(r))},
		})
	}
	return mf
}

// ConvertFile runs one full conversion pass: read the input exposition file,
// convert every configured channel's voltage through m, and atomically
// replace the output file. Returns the number of readings written.
func ConvertFile(m *meter.Meter, cfg config.MeterConfig, at time.Time) (int, error) {
	in, err := os.Open(cfg.Input.Path)
	if err != nil {
		return 0, fmt.Errorf("textfile: open input: %w", err)
	}
	defer in.Close()

	samples, err := ReadSamples(in, cfg.Input.Metric, cfg.Input.ChannelLabel)
	if err != nil {
		return 0, err
	}

	readings := m.ConvertAll(samples, at)
	if err := writeAtomic(cfg.Output.Path, readings); err != nil {
		return 0, err
	}
	return len(readings), nil
}

// writeAtomic writes the readings to a temp file next to path and renames it
// into place, so a scraper reading the output never sees a partial file.
func writeAtomic(path string, readings []meter.Reading) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("textfile: create temp output: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := WriteReadings(tmp, readings); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("textfile: close temp output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("textfile: chmod temp output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("textfile: replace output: %w", err)
	}
	return nil
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
