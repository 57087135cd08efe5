// Package ipc exposes daemon control via JSON-RPC over a Unix domain socket.
package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"mediabox/internal/api"
	"mediabox/internal/daemon"
	"mediabox/internal/deps"
	"mediabox/internal/logging"
	"mediabox/internal/logs"
	"mediabox/internal/queue"
)

// Server accepts RPC connections on the daemon control socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. shutdown
// is invoked after a Stop call so the owning process can exit and release
// the socket; it may be nil.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger, shutdown func()) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx, shutdown: shutdown}
	if err := rpcServer.RegisterName("Mediabox", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually before the next start"))
	}
}

type service struct {
	daemon   *daemon.Daemon
	logger   *slog.Logger
	ctx      context.Context
	shutdown func()
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	if s.shutdown != nil {
		// Deferred so the RPC response reaches the client before the
		// process tears the socket down.
		go s.shutdown()
	}
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.Halted = status.Workflow.Halted
	resp.HaltReason = status.Workflow.HaltReason
	resp.LastError = status.Workflow.LastError
	resp.LockPath = status.LockFilePath
	resp.QueueDBPath = status.QueueDBPath
	resp.DBHealthy = status.Database.Healthy
	resp.DBDetail = status.Database.Detail

	if stats, err := s.daemon.QueueStats(s.ctx); err == nil {
		resp.QueueStats = map[string]int{
			"total":     stats.Total,
			"pending":   stats.Pending,
			"running":   stats.Running,
			"completed": stats.Completed,
			"failed":    stats.Failed,
		}
	}
	if status.Workflow.ActiveItem != nil {
		item := api.FromQueueItem(status.Workflow.ActiveItem)
		resp.ActiveItem = &item
	}
	for _, health := range s.daemon.HandlerHealth(s.ctx) {
		resp.HandlerHealth = append(resp.HandlerHealth, HandlerHealth{
			Name:   health.Name,
			Ready:  health.Ready,
			Detail: health.Detail,
		})
	}
	resp.Dependencies = convertDeps(status.Dependencies)
	return nil
}

func convertDeps(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Version:     dep.Version,
			Detail:      dep.Detail,
		}
	}
	return out
}

func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	statuses := make([]queue.Status, 0, len(req.Statuses))
	for _, raw := range req.Statuses {
		status, err := queue.ParseStatus(raw)
		if err != nil {
			return err
		}
		statuses = append(statuses, status)
	}
	items, err := s.daemon.ListQueue(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Items = make([]QueueItem, 0, len(items))
	for _, item := range items {
		resp.Items = append(resp.Items, api.FromQueueItem(item))
	}
	return nil
}

func (s *service) QueueDescribe(req QueueDescribeRequest, resp *QueueDescribeResponse) error {
	item, err := s.daemon.DescribeItem(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Item = api.FromQueueItem(item)
	return nil
}

func (s *service) QueueAdd(req QueueAddRequest, resp *QueueAddResponse) error {
	task, err := queue.ParseTaskType(req.TaskType)
	if err != nil {
		return err
	}
	item, err := s.daemon.Enqueue(s.ctx, task, req.SourcePath, req.SourceURL, req.Options)
	if err != nil {
		return err
	}
	resp.Item = api.FromQueueItem(item)
	s.log().Info("task queued via IPC",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldTaskType, string(task)))
	return nil
}

func (s *service) QueueUpdateOptions(req QueueUpdateOptionsRequest, resp *QueueUpdateOptionsResponse) error {
	item, err := s.daemon.UpdateItemOptions(s.ctx, req.ID, req.Options)
	if err != nil {
		return err
	}
	resp.Item = api.FromQueueItem(item)
	return nil
}

func (s *service) QueueRemove(req QueueRemoveRequest, resp *QueueRemoveResponse) error {
	if err := s.daemon.RemoveItem(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Removed = true
	return nil
}

func (s *service) QueueClear(_ QueueClearRequest, resp *QueueClearResponse) error {
	removed, err := s.daemon.ClearQueue(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) QueueClearCompleted(_ QueueClearCompletedRequest, resp *QueueClearCompletedResponse) error {
	removed, err := s.daemon.ClearCompleted(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) QueueClearFailed(_ QueueClearFailedRequest, resp *QueueClearFailedResponse) error {
	removed, err := s.daemon.ClearFailed(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) QueueRetry(_ QueueRetryRequest, resp *QueueRetryResponse) error {
	updated, err := s.daemon.RetryFailed(s.ctx)
	if err != nil {
		return err
	}
	resp.Updated = updated
	return nil
}

func (s *service) QueueCancel(_ QueueCancelRequest, resp *QueueCancelResponse) error {
	resp.Cancelled = s.daemon.CancelActive(s.ctx)
	return nil
}

func (s *service) QueuePause(req QueuePauseRequest, resp *QueuePauseResponse) error {
	s.daemon.PauseQueue(req.Reason)
	resp.Paused = true
	return nil
}

func (s *service) QueueResume(_ QueueResumeRequest, resp *QueueResumeResponse) error {
	s.daemon.ResumeQueue()
	resp.Resumed = true
	return nil
}

func (s *service) Inspect(req InspectRequest, resp *InspectResponse) error {
	meta, err := s.daemon.InspectMedia(s.ctx, req.Path)
	if err != nil {
		return err
	}
	resp.Metadata = *meta
	return nil
}

func (s *service) MetadataSave(req MetadataSaveRequest, resp *MetadataSaveResponse) error {
	if err := s.daemon.SaveMetadata(s.ctx, req.Path, req.Tags); err != nil {
		return err
	}
	resp.Saved = true
	return nil
}

func (s *service) PDFExport(req PDFExportRequest, resp *PDFExportResponse) error {
	folder, err := s.daemon.ExportPDFPages(s.ctx, req.Path, req.OutputDir, req.Format)
	if err != nil {
		return err
	}
	resp.Folder = folder
	return nil
}

func (s *service) PresetList(req PresetListRequest, resp *PresetListResponse) error {
	list, err := s.daemon.Presets().List(req.TaskType)
	if err != nil {
		return err
	}
	resp.Presets = list
	return nil
}

func (s *service) PresetSave(req PresetSaveRequest, resp *PresetSaveResponse) error {
	preset, err := s.daemon.Presets().Save(req.Name, req.TaskType, req.Options)
	if err != nil {
		return err
	}
	resp.Preset = *preset
	return nil
}

func (s *service) PresetDelete(req PresetDeleteRequest, resp *PresetDeleteResponse) error {
	if err := s.daemon.Presets().Delete(req.Name); err != nil {
		return err
	}
	resp.Deleted = true
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait+time.Second)
		defer cancel()
	}
	result, err := logs.Tail(ctx, s.daemon.LogPath(), logs.Options{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	})
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.NextOffset
	return nil
}

func (s *service) DepsStatus(_ DepsStatusRequest, resp *DepsStatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Dependencies = convertDeps(status.Dependencies)
	return nil
}
