// Command mediaboxd runs the media conversion daemon: it owns the queue
// database, processes tasks, and serves the control socket and local API.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"mediabox/internal/config"
	"mediabox/internal/daemon"
	"mediabox/internal/ipc"
	"mediabox/internal/logging"
	"mediabox/internal/media/ffmpeg"
	"mediabox/internal/media/ffprobe"
	"mediabox/internal/notifications"
	"mediabox/internal/preflight"
	"mediabox/internal/preview"
	"mediabox/internal/queue"
	"mediabox/internal/workflow"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, resolvedPath, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	logger.Info("configuration loaded", logging.String("path", resolvedPath))

	for _, result := range preflight.RunAll(ctx, cfg) {
		if !result.Passed {
			logger.Warn("preflight check failed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
		}
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return
	}

	hub := daemon.NewHub(logger)
	notifier := notifications.NewService(cfg)
	events := func(event string, item *queue.Item) {
		hub.Publish(event, item)
		if item == nil {
			return
		}
		// Push failures only get logged; processing never blocks on ntfy.
		switch event {
		case "item_completed":
			if err := notifier.NotifyTaskCompleted(ctx, string(item.TaskType), item.Title, item.OutputPath); err != nil {
				logger.Warn("completion notification failed", logging.Error(err))
			}
		case "item_failed":
			if err := notifier.NotifyTaskFailed(ctx, string(item.TaskType), item.Title, item.ErrorMessage); err != nil {
				logger.Warn("failure notification failed", logging.Error(err))
			}
		}
	}
	manager := workflow.NewManager(cfg, store, logger, events)
	registerHandlers(manager, cfg, store, logger, hub.PublishProgress)

	probe := ffprobe.New(cfg.Tools.FFprobe)
	previews := preview.NewGenerator(cfg, probe)
	runner := ffmpeg.NewRunner(cfg.Tools.FFmpeg, cfg.Encoding.WorkPriority, logger)

	d, err := daemon.New(cfg, store, logger, manager, probe, previews,
		daemon.WithHub(hub), daemon.WithRunner(runner))
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	// cancel doubles as the IPC stop hook: `mediabox stop` must end this
	// process so the socket disappears and a later start is not fooled.
	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger, cancel)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("mediaboxd shutting down")
}
