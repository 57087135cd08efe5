package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Config is the root configuration shared by mediaboxd and the CLI.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Output   Output   `toml:"output"`
	Tools    Tools    `toml:"tools"`
	Encoding Encoding `toml:"encoding"`
	Queue    Queue    `toml:"queue"`
	Download Download `toml:"download"`
	Preview  Preview  `toml:"preview"`
	UI       UI       `toml:"ui"`
	Logging  Logging  `toml:"logging"`
	Cleanup  Cleanup  `toml:"cleanup"`
	Notify   Notify   `toml:"notifications"`
}

// Paths holds filesystem locations and the API bind address.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	CacheDir  string `toml:"cache_dir"`
	APIBind   string `toml:"api_bind"`
}

// Output controls how finished files are named and written.
type Output struct {
	Suffix            string `toml:"suffix"`
	OverwriteExisting bool   `toml:"overwrite_existing"`
}

// Tools holds the external binaries the daemon shells out to.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	YtDlp   string `toml:"yt_dlp"`
}

// Encoding holds defaults applied to encode tasks.
type Encoding struct {
	HardwareAccel string `toml:"hardware_accel"`
	WorkPriority  string `toml:"work_priority"`
	Threads       int    `toml:"threads"`
	DefaultPreset string `toml:"default_preset"`
	DefaultCRF    int    `toml:"default_crf"`
}

// Queue tunes queue capacity and the workflow poll loop.
type Queue struct {
	MaxItems                int `toml:"max_items"`
	PollIntervalSeconds     int `toml:"poll_interval_seconds"`
	ErrorRetrySeconds       int `toml:"error_retry_seconds"`
	HeartbeatSeconds        int `toml:"heartbeat_seconds"`
	HeartbeatTimeoutSeconds int `toml:"heartbeat_timeout_seconds"`
}

// Download holds yt-dlp defaults.
type Download struct {
	Dir       string `toml:"dir"`
	UserAgent string `toml:"user_agent"`
	ForceIPv4 bool   `toml:"force_ipv4"`
}

// Preview tunes thumbnail strips and waveform rendering.
type Preview struct {
	ThumbnailColumns int    `toml:"thumbnail_columns"`
	WaveformWidth    int    `toml:"waveform_width"`
	WaveformHeight   int    `toml:"waveform_height"`
	WaveformPalette  string `toml:"waveform_palette"`
}

// UI holds presentation preferences persisted for clients.
type UI struct {
	Theme       string   `toml:"theme"`
	AccentColor string   `toml:"accent_color"`
	PinnedTools []string `toml:"pinned_tools"`
}

// Logging controls log output format and verbosity.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Cleanup controls the startup sweep of scratch files and abandoned
// partial downloads.
type Cleanup struct {
	StaleWorkHours int `toml:"stale_work_hours"`
}

// Notify configures push notifications for finished and failed tasks.
// An empty topic disables them.
type Notify struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Load reads the configuration from path. An empty path selects the default
// location, and a missing file yields defaults without error.
func Load(path string) (*Config, string, error) {
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, resolved, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case os.IsNotExist(err):
		// Defaults apply when no config file exists yet.
	default:
		return nil, resolved, fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, resolved, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, resolved, err
	}
	return cfg, resolved, nil
}

// DefaultConfigPath returns the standard config file location.
func DefaultConfigPath() string {
	return filepath.Join("~", ".config", "mediabox", "config.toml")
}

func resolveConfigPath(path string) (string, error) {
	candidate := strings.TrimSpace(path)
	if candidate == "" {
		if env := strings.TrimSpace(os.Getenv("MEDIABOX_CONFIG")); env != "" {
			candidate = env
		} else {
			candidate = DefaultConfigPath()
		}
	}
	return expandPath(candidate)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", trimmed, err)
	}
	return abs, nil
}

// EnsureDirectories creates the work, output, cache, and download directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.CacheDir, c.Download.Dir}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SocketPath returns the daemon control socket path inside the work directory.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.WorkDir, "mediaboxd.sock")
}

// LockPath returns the single-instance lock file path.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.WorkDir, "mediaboxd.lock")
}

// QueueDBPath returns the SQLite database path for the job queue.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.WorkDir, "queue.db")
}

// LogPath returns the daemon log file path.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.WorkDir, "mediaboxd.log")
}

// PresetsPath returns the JSON file holding saved tool presets.
func (c *Config) PresetsPath() string {
	return filepath.Join(c.Paths.WorkDir, "presets.json")
}

// PollInterval returns the workflow poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Queue.PollIntervalSeconds) * time.Second
}

// ErrorRetryInterval returns the backoff applied after queue errors.
func (c *Config) ErrorRetryInterval() time.Duration {
	return time.Duration(c.Queue.ErrorRetrySeconds) * time.Second
}

// HeartbeatInterval returns how often a running task refreshes its heartbeat.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Queue.HeartbeatSeconds) * time.Second
}

// HeartbeatTimeout returns the staleness cutoff for reclaiming dead tasks.
func (c *Config) HeartbeatTimeout() time.Duration {
	return time.Duration(c.Queue.HeartbeatTimeoutSeconds) * time.Second
}

// StaleWorkAge returns how old scratch files must be before the startup
// sweep removes them.
func (c *Config) StaleWorkAge() time.Duration {
	return time.Duration(c.Cleanup.StaleWorkHours) * time.Hour
}

// NotifyTimeout returns the HTTP timeout for push notification requests.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notify.RequestTimeoutSeconds) * time.Second
}

// CreateSample writes the annotated sample config to path. It refuses to
// overwrite an existing file unless force is set.
func CreateSample(path string, force bool) (string, error) {
	resolved, err := expandPath(path)
	if err != nil {
		return "", err
	}
	if resolved == "" {
		resolved, err = expandPath(DefaultConfigPath())
		if err != nil {
			return "", err
		}
	}
	if !force {
		if _, err := os.Stat(resolved); err == nil {
			return resolved, fmt.Errorf("config file already exists at %s", resolved)
		}
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(resolved, []byte(sampleConfig), 0o644); err != nil {
		return "", fmt.Errorf("write sample config: %w", err)
	}
	return resolved, nil
}
