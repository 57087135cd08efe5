package services

import (
	"context"
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrExternalTool, "ytdlp", "download", "yt-dlp failed", cause)
	if !errors.Is(err, ErrExternalTool) {
		t.Error("marker lost")
	}
	if !errors.Is(err, cause) {
		t.Error("cause lost")
	}
	want := "external tool error: ytdlp: download: yt-dlp failed: exit status 1"
	if err.Error() != want {
		t.Errorf("message = %q\nwant %q", err.Error(), want)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrExternalTool) {
		t.Error("nil marker should default to ErrExternalTool")
	}
}

func TestContextAnnotations(t *testing.T) {
	ctx := WithItemID(context.Background(), 42)
	ctx = WithTaskType(ctx, "encode")
	ctx = WithRequestID(ctx, "req-1")

	if id, ok := ItemIDFromContext(ctx); !ok || id != 42 {
		t.Errorf("item id = %d, %v", id, ok)
	}
	if task, ok := TaskTypeFromContext(ctx); !ok || task != "encode" {
		t.Errorf("task = %q, %v", task, ok)
	}
	if req, ok := RequestIDFromContext(ctx); !ok || req != "req-1" {
		t.Errorf("request id = %q, %v", req, ok)
	}

	if _, ok := ItemIDFromContext(context.Background()); ok {
		t.Error("empty context reported an item id")
	}
}
