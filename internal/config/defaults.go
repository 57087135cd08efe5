package config

// Default returns a configuration populated with working defaults.
func Default() *Config {
	return &Config{
		Paths: Paths{
			WorkDir:   "~/.local/share/mediabox",
			OutputDir: "~/Videos/mediabox",
			CacheDir:  "~/.cache/mediabox",
			APIBind:   "127.0.0.1:7489",
		},
		Output: Output{
			Suffix:            "_converted",
			OverwriteExisting: false,
		},
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
			YtDlp:   "yt-dlp",
		},
		Encoding: Encoding{
			HardwareAccel: "none",
			WorkPriority:  "normal",
			Threads:       0,
			DefaultPreset: "medium",
			DefaultCRF:    23,
		},
		Queue: Queue{
			MaxItems:                500,
			PollIntervalSeconds:     2,
			ErrorRetrySeconds:       10,
			HeartbeatSeconds:        15,
			HeartbeatTimeoutSeconds: 120,
		},
		Download: Download{
			Dir:       "~/Downloads/mediabox",
			UserAgent: "",
			ForceIPv4: false,
		},
		Preview: Preview{
			ThumbnailColumns: 10,
			WaveformWidth:    1000,
			WaveformHeight:   200,
			WaveformPalette:  "heatmap",
		},
		UI: UI{
			Theme:       "dark",
			AccentColor: "#7c5cff",
			PinnedTools: []string{"encode", "trim", "gif"},
		},
		Logging: Logging{
			Format:        "console",
			Level:         "info",
			RetentionDays: 14,
		},
		Cleanup: Cleanup{
			StaleWorkHours: 24,
		},
		Notify: Notify{
			NtfyTopic:             "",
			RequestTimeoutSeconds: 10,
		},
	}
}
