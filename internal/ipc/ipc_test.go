package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mediabox/internal/daemon"
	"mediabox/internal/ipc"
	"mediabox/internal/logging"
	"mediabox/internal/queue"
	"mediabox/internal/testsupport"
	"mediabox/internal/workflow"
)

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutAPI())
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger, nil)
	d, err := daemon.New(cfg, store, logger, mgr, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socket, d, logger, nil)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status.Running {
		t.Fatal("daemon should not be running before Start")
	}

	source := filepath.Join(cfg.Paths.WorkDir, "clip.mp4")
	testsupport.WriteFile(t, source, 128)

	added, err := client.QueueAdd(ipc.QueueAddRequest{
		TaskType:   "encode",
		SourcePath: source,
		Options:    []byte(`{"videoCodec":"h265"}`),
	})
	if err != nil {
		t.Fatalf("QueueAdd failed: %v", err)
	}
	if added.Item.Status != string(queue.StatusPending) {
		t.Fatalf("expected pending item, got %s", added.Item.Status)
	}

	list, err := client.QueueList(ipc.QueueListRequest{})
	if err != nil {
		t.Fatalf("QueueList failed: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != added.Item.ID {
		t.Fatalf("unexpected list: %#v", list.Items)
	}

	described, err := client.QueueDescribe(added.Item.ID)
	if err != nil {
		t.Fatalf("QueueDescribe failed: %v", err)
	}
	if described.Item.Title != "clip.mp4" {
		t.Fatalf("unexpected title %q", described.Item.Title)
	}

	updated, err := client.QueueUpdateOptions(ipc.QueueUpdateOptionsRequest{
		ID:      added.Item.ID,
		Options: []byte(`{"videoCodec":"vp9"}`),
	})
	if err != nil {
		t.Fatalf("QueueUpdateOptions failed: %v", err)
	}
	if !strings.Contains(string(updated.Item.Options), "vp9") {
		t.Fatalf("options not updated: %s", updated.Item.Options)
	}

	preset, err := client.PresetSave(ipc.PresetSaveRequest{
		Name:     "archive",
		TaskType: "encode",
		Options:  []byte(`{"videoCodec":"h265","crf":20}`),
	})
	if err != nil {
		t.Fatalf("PresetSave failed: %v", err)
	}
	if preset.Preset.Name != "archive" {
		t.Fatalf("unexpected preset name %q", preset.Preset.Name)
	}
	presetList, err := client.PresetList("encode")
	if err != nil {
		t.Fatalf("PresetList failed: %v", err)
	}
	if len(presetList.Presets) != 1 {
		t.Fatalf("expected one preset, got %d", len(presetList.Presets))
	}
	if _, err := client.PresetDelete("archive"); err != nil {
		t.Fatalf("PresetDelete failed: %v", err)
	}

	if err := os.WriteFile(d.LogPath(), []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log file: %v", err)
	}
	logResp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("LogTail failed: %v", err)
	}
	if len(logResp.Lines) != 2 || logResp.Lines[0] != "second" || logResp.Lines[1] != "third" {
		t.Fatalf("unexpected log tail: %#v", logResp.Lines)
	}

	if _, err := client.QueuePause("testing"); err != nil {
		t.Fatalf("QueuePause failed: %v", err)
	}
	status, err = client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Halted || status.HaltReason != "testing" {
		t.Fatalf("expected halted status, got %+v", status)
	}
	if _, err := client.QueueResume(); err != nil {
		t.Fatalf("QueueResume failed: %v", err)
	}

	removed, err := client.QueueRemove(added.Item.ID)
	if err != nil {
		t.Fatalf("QueueRemove failed: %v", err)
	}
	if !removed.Removed {
		t.Fatal("expected item to be removed")
	}

	deps, err := client.DepsStatus()
	if err != nil {
		t.Fatalf("DepsStatus failed: %v", err)
	}
	if len(deps.Dependencies) == 0 {
		t.Fatal("expected dependency entries")
	}
}

func TestStopInvokesShutdownHook(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutAPI())
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger, nil)
	d, err := daemon.New(cfg, store, logger, mgr, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	shutdown := make(chan struct{})
	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger, func() { close(shutdown) })
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() { srv.Close() })

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	resp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !resp.Stopped {
		t.Fatal("stop not acknowledged")
	}

	select {
	case <-shutdown:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not trigger the shutdown hook")
	}
}

func TestDialFailsWithoutSocket(t *testing.T) {
	if _, err := ipc.Dial(filepath.Join(t.TempDir(), "missing.sock")); err == nil {
		t.Fatal("expected dial error for missing socket")
	}
}
