package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"streamkeeper/internal/logs"
)

// DialTimeout bounds how long Dial waits for the daemon socket.
const DialTimeout = 2 * time.Second

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, DialTimeout)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, client: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))}, nil
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

func call[Req, Resp any](c *Client, method string, req Req) (*Resp, error) {
	var resp Resp
	if err := c.client.Call(ServiceName+"."+method, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the streamer overview.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusRequest, StatusResponse](c, "Status", StatusRequest{})
}

// Add registers a streamer and persists it to the watchlist.
func (c *Client) Add(username, site string) (*ActionResponse, error) {
	return call[ActionRequest, ActionResponse](c, "Add", ActionRequest{Username: username, Site: site})
}

// Remove unregisters streamers and deletes them from the watchlist.
func (c *Client) Remove(username, site string) (*ActionResponse, error) {
	return call[ActionRequest, ActionResponse](c, "Remove", ActionRequest{Username: username, Site: site})
}

// Start enables monitoring.
func (c *Client) Start(username, site string) (*ActionResponse, error) {
	return call[ActionRequest, ActionResponse](c, "Start", ActionRequest{Username: username, Site: site})
}

// Stop disables monitoring and ends any active recording.
func (c *Client) Stop(username, site string) (*ActionResponse, error) {
	return call[ActionRequest, ActionResponse](c, "Stop", ActionRequest{Username: username, Site: site})
}

// Recordings lists the recordings library.
func (c *Client) Recordings(probe bool) (*RecordingsResponse, error) {
	return call[RecordingsRequest, RecordingsResponse](c, "Recordings", RecordingsRequest{Probe: probe})
}

// Delete removes a recording by library-relative path.
func (c *Client) Delete(path string) (*ActionResponse, error) {
	return call[DeleteRequest, ActionResponse](c, "Delete", DeleteRequest{Path: path})
}

// Shutdown asks the daemon process to exit.
func (c *Client) Shutdown() (*ShutdownResponse, error) {
	return call[ShutdownRequest, ShutdownResponse](c, "Shutdown", ShutdownRequest{})
}

// Daemon retrieves daemon runtime details.
func (c *Client) Daemon() (*DaemonResponse, error) {
	return call[DaemonRequest, DaemonResponse](c, "Daemon", DaemonRequest{})
}

// LogTail returns daemon log file lines.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	return call[LogTailRequest, LogTailResponse](c, "LogTail", req)
}

// Tail adapts LogTail to the logs.TailClient contract.
func (c *Client) Tail(opts logs.TailOptions) (logs.TailResult, error) {
	resp, err := c.LogTail(LogTailRequest{
		Offset:     opts.Offset,
		Limit:      opts.Limit,
		Follow:     opts.Follow,
		WaitMillis: int(opts.Wait / time.Millisecond),
	})
	if err != nil {
		return logs.TailResult{}, err
	}
	return logs.TailResult{Lines: resp.Lines, Offset: resp.Offset}, nil
}
