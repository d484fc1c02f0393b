package meter

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rfmeter/rfmeter/internal/config"
	"github.com/rfmeter/rfmeter/internal/detector"
)

// Sample is one raw detector-voltage observation for a named channel.
type Sample struct {
	Channel string
	Volts   float64
}

// Reading is the fully-derived power snapshot for one channel, ready to be
// written to the output exposition file or printed by the CLI.
type Reading struct {
	Channel        string
	RawVolts       float64
	CorrectedVolts float64 // raw minus zero offset, floored at 0
	VinPP          float64 // fitted peak-to-peak input voltage
	Watts          float64
	Dbm            float64 // finite even at zero input: the low fit's constant term keeps watts above zero
	At             time.Time
}

// channelState is the resolved calibration for one configured channel.
type channelState struct {
	cfg config.Channel
	cal detector.Calibration
}

// Meter applies per-channel calibration settings to raw voltage samples.
//
// All exported methods are safe for concurrent use; Apply may swap the
// channel set while conversions are in flight.
type Meter struct {
	mu       sync.RWMutex
	channels map[string]channelState
}

// New builds a Meter from the given meter configuration.
// The configuration is assumed validated by config.Load.
func New(cfg config.MeterConfig) (*Meter, error) {
	m := &Meter{}
	if err := m.Apply(cfg); err != nil {
		return nil, err
	}
	return m, nil
}

// Apply replaces the meter's channel settings with those from cfg.
// Used at startup and on config hot-reload.
func (m *Meter) Apply(cfg config.MeterConfig) error {
	channels := make(map[string]channelState, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		cal, err := calibrationFor(ch.Detector)
		if err != nil {
			return fmt.Errorf("meter: channel %q: %w", ch.ID, err)
		}
		channels[ch.ID] = channelState{cfg: ch, cal: cal}
	}

	m.mu.Lock()
	m.channels = channels
	m.mu.Unlock()
	return nil
}

// Channels returns the configured channel ids, sorted.
func (m *Meter) Channels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.channels))
	for id := range m.channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Convert turns one raw detector voltage into a power Reading using the named
// channel's calibration. Returns an error for a channel id that is not in the
// current configuration.
func (m *Meter) Convert(channelID string, volts float64, at time.Time) (Reading, error) {
	m.mu.RLock()
	st, ok := m.channels[channelID]
	m.mu.RUnlock()
	if !ok {
		return Reading{}, fmt.Errorf("meter: unknown channel %q", channelID)
	}

	corrected := volts - st.cfg.ZeroPowerOffsetVolts
	if corrected < 0.0 {
		corrected = 0.0
	}
	watts := st.cal.Power(st.cfg.CouplerAttenuationDb, st.cfg.ZeroPowerOffsetVolts, volts)

	return Reading{
		Channel:        channelID,
		RawVolts:       volts,
		CorrectedVolts: corrected,
		VinPP:          st.cal.VinPP(corrected),
		Watts:          watts,
		Dbm:            detector.DbmFromWatts(watts),
		At:             at,
	}, nil
}

// ConvertAll converts a batch of samples, skipping (and logging) samples for
// channels that are not configured; the input file may carry gauges for
// ports this meter does not calibrate.
func (m *Meter) ConvertAll(samples []Sample, at time.Time) []Reading {
	readings := make([]Reading, 0, len(samples))
	for _, s := range samples {
		r, err := m.Convert(s.Channel, s.Volts, at)
		if err != nil {
			slog.Debug("meter: skipping sample", "channel", s.Channel, "err", err)
			continue
		}
		readings = append(readings, r)
	}
	return readings
}

// calibrationFor maps a configured detector model name to its compiled-in
// calibration.
func calibrationFor(model string) (detector.Calibration, error) {
	switch model {
	case "ltc5507":
		return detector.LTC5507, nil
	default:
		return detector.Calibration{}, fmt.Errorf("unknown detector model %q", model)
	}
}
