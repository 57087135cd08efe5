package config

import (
	"errors"
	"fmt"
	"strings"
)

var hardwareAccelValues = map[string]struct{}{
	"none":  {},
	"auto":  {},
	"nvenc": {},
	"amf":   {},
	"qsv":   {},
}

var workPriorityValues = map[string]struct{}{
	"low":    {},
	"normal": {},
	"high":   {},
}

var waveformPaletteValues = map[string]struct{}{
	"heatmap": {},
	"accent":  {},
	"mono":    {},
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		problems = append(problems, "paths.work_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		problems = append(problems, "paths.output_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		problems = append(problems, "paths.api_bind must not be empty")
	}
	if _, ok := hardwareAccelValues[c.Encoding.HardwareAccel]; !ok {
		problems = append(problems, fmt.Sprintf("encoding.hardware_accel must be one of none, auto, nvenc, amf, qsv (got %q)", c.Encoding.HardwareAccel))
	}
	if _, ok := workPriorityValues[c.Encoding.WorkPriority]; !ok {
		problems = append(problems, fmt.Sprintf("encoding.work_priority must be one of low, normal, high (got %q)", c.Encoding.WorkPriority))
	}
	if c.Encoding.DefaultCRF < 0 || c.Encoding.DefaultCRF > 51 {
		problems = append(problems, fmt.Sprintf("encoding.default_crf must be between 0 and 51 (got %d)", c.Encoding.DefaultCRF))
	}
	if _, ok := waveformPaletteValues[c.Preview.WaveformPalette]; !ok {
		problems = append(problems, fmt.Sprintf("preview.waveform_palette must be one of heatmap, accent, mono (got %q)", c.Preview.WaveformPalette))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format must be console or json (got %q)", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level))
	}
	switch c.UI.Theme {
	case "dark", "light", "system":
	default:
		problems = append(problems, fmt.Sprintf("ui.theme must be one of dark, light, system (got %q)", c.UI.Theme))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
