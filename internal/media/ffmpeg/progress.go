package ffmpeg

import (
	"regexp"
	"strconv"
)

var (
	durationPattern = regexp.MustCompile(`Duration:\s*(\d{2}):(\d{2}):(\d{2})\.(\d{2})`)
	timePattern     = regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2})\.(\d{2})`)
	speedPattern    = regexp.MustCompile(`speed=\s*(\d+\.?\d*)x`)
)

// Progress is one parsed progress sample from ffmpeg stderr.
type Progress struct {
	Percent float64
	Speed   float64
}

// progressParser accumulates ffmpeg stderr lines and emits progress.
// Percent is capped at 99 until the process exits, since ffmpeg's last
// time= line can land short of the full duration.
type progressParser struct {
	totalSeconds float64
	lastSpeed    float64
}

// newProgressParser creates a parser. totalSeconds may be zero when the
// duration is unknown; ffmpeg's own Duration banner will fill it in.
func newProgressParser(totalSeconds float64) *progressParser {
	return &progressParser{totalSeconds: totalSeconds}
}

// parseLine consumes one stderr line and reports a sample when the line
// contained a time= stamp.
func (p *progressParser) parseLine(line string) (Progress, bool) {
	if p.totalSeconds == 0 {
		if m := durationPattern.FindStringSubmatch(line); m != nil {
			p.totalSeconds = clockToSeconds(m)
		}
	}
	if m := speedPattern.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.lastSpeed = v
		}
	}

	m := timePattern.FindStringSubmatch(line)
	if m == nil || p.totalSeconds == 0 {
		return Progress{}, false
	}

	percent := clockToSeconds(m) / p.totalSeconds * 100
	if percent > 99 {
		percent = 99
	}
	if percent < 0 {
		percent = 0
	}
	return Progress{Percent: percent, Speed: p.lastSpeed}, true
}

func clockToSeconds(m []string) float64 {
	hours, _ := strconv.ParseFloat(m[1], 64)
	minutes, _ := strconv.ParseFloat(m[2], 64)
	seconds, _ := strconv.ParseFloat(m[3], 64)
	centis, _ := strconv.ParseFloat(m[4], 64)
	return hours*3600 + minutes*60 + seconds + centis/100
}
