package config

import "strings"

// normalize expands paths and fills blank values from defaults so downstream
// code never has to re-check for empty settings.
func (c *Config) normalize() error {
	def := Default()

	fill := func(value *string, fallback string) {
		if strings.TrimSpace(*value) == "" {
			*value = fallback
		}
	}

	fill(&c.Paths.WorkDir, def.Paths.WorkDir)
	fill(&c.Paths.OutputDir, def.Paths.OutputDir)
	fill(&c.Paths.CacheDir, def.Paths.CacheDir)
	fill(&c.Paths.APIBind, def.Paths.APIBind)
	fill(&c.Output.Suffix, def.Output.Suffix)
	fill(&c.Tools.FFmpeg, def.Tools.FFmpeg)
	fill(&c.Tools.FFprobe, def.Tools.FFprobe)
	fill(&c.Tools.YtDlp, def.Tools.YtDlp)
	fill(&c.Encoding.HardwareAccel, def.Encoding.HardwareAccel)
	fill(&c.Encoding.WorkPriority, def.Encoding.WorkPriority)
	fill(&c.Encoding.DefaultPreset, def.Encoding.DefaultPreset)
	fill(&c.Download.Dir, def.Download.Dir)
	fill(&c.Preview.WaveformPalette, def.Preview.WaveformPalette)
	fill(&c.UI.Theme, def.UI.Theme)
	fill(&c.UI.AccentColor, def.UI.AccentColor)
	fill(&c.Logging.Format, def.Logging.Format)
	fill(&c.Logging.Level, def.Logging.Level)

	c.Encoding.HardwareAccel = strings.ToLower(strings.TrimSpace(c.Encoding.HardwareAccel))
	c.Encoding.WorkPriority = strings.ToLower(strings.TrimSpace(c.Encoding.WorkPriority))
	c.Preview.WaveformPalette = strings.ToLower(strings.TrimSpace(c.Preview.WaveformPalette))
	c.UI.Theme = strings.ToLower(strings.TrimSpace(c.UI.Theme))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	if c.Queue.MaxItems <= 0 {
		c.Queue.MaxItems = def.Queue.MaxItems
	}
	if c.Queue.PollIntervalSeconds <= 0 {
		c.Queue.PollIntervalSeconds = def.Queue.PollIntervalSeconds
	}
	if c.Queue.ErrorRetrySeconds <= 0 {
		c.Queue.ErrorRetrySeconds = def.Queue.ErrorRetrySeconds
	}
	if c.Queue.HeartbeatSeconds <= 0 {
		c.Queue.HeartbeatSeconds = def.Queue.HeartbeatSeconds
	}
	if c.Queue.HeartbeatTimeoutSeconds <= 0 {
		c.Queue.HeartbeatTimeoutSeconds = def.Queue.HeartbeatTimeoutSeconds
	}
	if c.Encoding.Threads < 0 {
		c.Encoding.Threads = 0
	}
	if c.Preview.ThumbnailColumns <= 0 {
		c.Preview.ThumbnailColumns = def.Preview.ThumbnailColumns
	}
	if c.Preview.WaveformWidth <= 0 {
		c.Preview.WaveformWidth = def.Preview.WaveformWidth
	}
	if c.Preview.WaveformHeight <= 0 {
		c.Preview.WaveformHeight = def.Preview.WaveformHeight
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = def.Logging.RetentionDays
	}
	if c.Cleanup.StaleWorkHours <= 0 {
		c.Cleanup.StaleWorkHours = def.Cleanup.StaleWorkHours
	}
	if c.Notify.RequestTimeoutSeconds <= 0 {
		c.Notify.RequestTimeoutSeconds = def.Notify.RequestTimeoutSeconds
	}
	c.Notify.NtfyTopic = strings.TrimSpace(c.Notify.NtfyTopic)

	for _, path := range []*string{
		&c.Paths.WorkDir,
		&c.Paths.OutputDir,
		&c.Paths.CacheDir,
		&c.Download.Dir,
	} {
		expanded, err := expandPath(*path)
		if err != nil {
			return err
		}
		*path = expanded
	}
	return nil
}
