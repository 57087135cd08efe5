package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"mediabox/internal/media/ffmpeg"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Stop requests the daemon to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Mediabox.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Mediabox.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList retrieves queue items, optionally filtered by status.
func (c *Client) QueueList(req QueueListRequest) (*QueueListResponse, error) {
	var resp QueueListResponse
	if err := c.client.Call("Mediabox.QueueList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueDescribe retrieves a single queue item.
func (c *Client) QueueDescribe(id int64) (*QueueDescribeResponse, error) {
	var resp QueueDescribeResponse
	if err := c.client.Call("Mediabox.QueueDescribe", QueueDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueAdd enqueues a new conversion task.
func (c *Client) QueueAdd(req QueueAddRequest) (*QueueAddResponse, error) {
	var resp QueueAddResponse
	if err := c.client.Call("Mediabox.QueueAdd", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueUpdateOptions replaces the options of a pending item.
func (c *Client) QueueUpdateOptions(req QueueUpdateOptionsRequest) (*QueueUpdateOptionsResponse, error) {
	var resp QueueUpdateOptionsResponse
	if err := c.client.Call("Mediabox.QueueUpdateOptions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRemove deletes a queue item.
func (c *Client) QueueRemove(id int64) (*QueueRemoveResponse, error) {
	var resp QueueRemoveResponse
	if err := c.client.Call("Mediabox.QueueRemove", QueueRemoveRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClear removes all non-running items.
func (c *Client) QueueClear() (*QueueClearResponse, error) {
	var resp QueueClearResponse
	if err := c.client.Call("Mediabox.QueueClear", QueueClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClearCompleted removes completed items.
func (c *Client) QueueClearCompleted() (*QueueClearCompletedResponse, error) {
	var resp QueueClearCompletedResponse
	if err := c.client.Call("Mediabox.QueueClearCompleted", QueueClearCompletedRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClearFailed removes failed items.
func (c *Client) QueueClearFailed() (*QueueClearFailedResponse, error) {
	var resp QueueClearFailedResponse
	if err := c.client.Call("Mediabox.QueueClearFailed", QueueClearFailedRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRetry resets failed items back to pending.
func (c *Client) QueueRetry() (*QueueRetryResponse, error) {
	var resp QueueRetryResponse
	if err := c.client.Call("Mediabox.QueueRetry", QueueRetryRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueCancel aborts the running task.
func (c *Client) QueueCancel() (*QueueCancelResponse, error) {
	var resp QueueCancelResponse
	if err := c.client.Call("Mediabox.QueueCancel", QueueCancelRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueuePause halts automatic queue advancement.
func (c *Client) QueuePause(reason string) (*QueuePauseResponse, error) {
	var resp QueuePauseResponse
	if err := c.client.Call("Mediabox.QueuePause", QueuePauseRequest{Reason: reason}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueResume restarts automatic queue advancement.
func (c *Client) QueueResume() (*QueueResumeResponse, error) {
	var resp QueueResumeResponse
	if err := c.client.Call("Mediabox.QueueResume", QueueResumeRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Inspect probes a media file through the daemon.
func (c *Client) Inspect(path string) (*InspectResponse, error) {
	var resp InspectResponse
	if err := c.client.Call("Mediabox.Inspect", InspectRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MetadataSave rewrites a media file's tags through the daemon.
func (c *Client) MetadataSave(path string, tags ffmpeg.MetadataTags) (*MetadataSaveResponse, error) {
	var resp MetadataSaveResponse
	if err := c.client.Call("Mediabox.MetadataSave", MetadataSaveRequest{Path: path, Tags: tags}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PDFExport renders a PDF's pages as images through the daemon.
func (c *Client) PDFExport(path, outputDir, format string) (*PDFExportResponse, error) {
	var resp PDFExportResponse
	if err := c.client.Call("Mediabox.PDFExport", PDFExportRequest{Path: path, OutputDir: outputDir, Format: format}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PresetList retrieves saved presets.
func (c *Client) PresetList(taskType string) (*PresetListResponse, error) {
	var resp PresetListResponse
	if err := c.client.Call("Mediabox.PresetList", PresetListRequest{TaskType: taskType}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PresetSave creates or replaces a named preset.
func (c *Client) PresetSave(req PresetSaveRequest) (*PresetSaveResponse, error) {
	var resp PresetSaveResponse
	if err := c.client.Call("Mediabox.PresetSave", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PresetDelete removes a named preset.
func (c *Client) PresetDelete(name string) (*PresetDeleteResponse, error) {
	var resp PresetDeleteResponse
	if err := c.client.Call("Mediabox.PresetDelete", PresetDeleteRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Mediabox.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DepsStatus checks external binary availability.
func (c *Client) DepsStatus() (*DepsStatusResponse, error) {
	var resp DepsStatusResponse
	if err := c.client.Call("Mediabox.DepsStatus", DepsStatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
