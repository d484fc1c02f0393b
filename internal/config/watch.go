package config

import (
	"context"
	"log/slog"

	"github.com/rfmeter/rfmeter/internal/fswatch"
)

// Watch monitors path for changes and calls onChange with the newly loaded
// Config each time the file is written. It runs until ctx is cancelled.
//
// If a reload fails (e.g., invalid YAML or a bad calibration value), the
// error is logged and the previous config remains active — Watch does not
// call onChange.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	return fswatch.Watch(ctx, path, func() {
		cfg, err := Load(path)
		if err != nil {
			slog.Error("config: reload failed — keeping previous config",
				"path", path, "err", err)
			return
		}
		slog.Info("config: reloaded", "path", path)
		onChange(cfg)
	})
}
