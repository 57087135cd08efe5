package ffmpeg

import "testing"

func TestProgressParser(t *testing.T) {
	parser := newProgressParser(0)

	if _, ok := parser.parseLine("frame=  1 time=00:00:01.00"); ok {
		t.Error("emitted progress before duration known")
	}

	if _, ok := parser.parseLine("  Duration: 00:01:40.00, start: 0.000000"); ok {
		t.Error("duration banner is not a progress sample")
	}

	sample, ok := parser.parseLine("frame= 300 fps= 60 time=00:00:50.00 bitrate=1000k speed=2.1x")
	if !ok {
		t.Fatal("no sample from time= line")
	}
	if sample.Percent != 50 {
		t.Errorf("percent = %f, want 50", sample.Percent)
	}
	if sample.Speed != 2.1 {
		t.Errorf("speed = %f, want 2.1", sample.Speed)
	}
}

func TestProgressParserCapsAt99(t *testing.T) {
	parser := newProgressParser(10)
	sample, ok := parser.parseLine("time=00:00:10.00 speed=1.0x")
	if !ok {
		t.Fatal("no sample")
	}
	if sample.Percent != 99 {
		t.Errorf("percent = %f, want cap at 99", sample.Percent)
	}
}

func TestProgressParserKnownDuration(t *testing.T) {
	parser := newProgressParser(200)
	sample, ok := parser.parseLine("time=00:00:30.00")
	if !ok {
		t.Fatal("no sample")
	}
	if sample.Percent != 15 {
		t.Errorf("percent = %f, want 15", sample.Percent)
	}
}

func TestScanCRLines(t *testing.T) {
	advance, token, err := scanCRLines([]byte("abc\rdef\n"), false)
	if err != nil || advance != 4 || string(token) != "abc" {
		t.Errorf("scanCRLines = %d, %q, %v", advance, token, err)
	}
	advance, token, err = scanCRLines([]byte("tail"), true)
	if err != nil || advance != 4 || string(token) != "tail" {
		t.Errorf("scanCRLines tail = %d, %q, %v", advance, token, err)
	}
}
