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

	"streamkeeper/internal/api"
	"streamkeeper/internal/daemon"
	"streamkeeper/internal/deps"
	"streamkeeper/internal/logging"
	"streamkeeper/internal/logs"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
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

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	svc := &service{daemon: d, logger: logger.With(logging.String(logging.FieldComponent, "ipc")), ctx: serverCtx}
	if err := rpcServer.RegisterName(ServiceName, svc); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until Close is called.
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
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "CLI commands may fail to reach the daemon"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
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
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	*resp = s.daemon.Service().Status(s.ctx)
	return nil
}

func (s *service) Add(req ActionRequest, resp *ActionResponse) error {
	*resp, _ = s.daemon.Service().Add(s.ctx, req)
	return nil
}

func (s *service) Remove(req ActionRequest, resp *ActionResponse) error {
	*resp, _ = s.daemon.Service().Remove(s.ctx, req)
	return nil
}

func (s *service) Start(req ActionRequest, resp *ActionResponse) error {
	*resp, _ = s.daemon.Service().Start(s.ctx, req)
	return nil
}

func (s *service) Stop(req ActionRequest, resp *ActionResponse) error {
	*resp, _ = s.daemon.Service().Stop(s.ctx, req)
	return nil
}

func (s *service) Recordings(req RecordingsRequest, resp *RecordingsResponse) error {
	result, err := s.daemon.Service().Recordings(s.ctx, req.Probe)
	if err != nil {
		return err
	}
	*resp = result
	return nil
}

func (s *service) Delete(req DeleteRequest, resp *ActionResponse) error {
	*resp, _ = s.daemon.Service().Delete(s.ctx, req)
	return nil
}

func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	s.logger.Info("daemon shutdown requested", logging.String(logging.FieldEventType, "shutdown_requested"))
	s.daemon.RequestShutdown()
	resp.Accepted = true
	return nil
}

func (s *service) Daemon(_ DaemonRequest, resp *DaemonResponse) error {
	st := s.daemon.Status(s.ctx)
	*resp = DaemonResponse{
		Running:      st.Running,
		PID:          st.PID,
		DatabasePath: st.DatabasePath,
		LockFilePath: st.LockFilePath,
		SocketPath:   st.SocketPath,
		APIAddress:   st.APIAddress,
		LogPath:      st.LogPath,
		Streamers:    st.Streamers,
		Monitoring:   st.Monitoring,
		Recording:    st.Recording,
		Dependencies: convertDependencies(st.Dependencies),
	}
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	ctx := s.ctx
	if req.Follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func convertDependencies(statuses []deps.Status) []api.DependencyStatus {
	out := make([]api.DependencyStatus, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, api.DependencyStatus{
			Name:        st.Name,
			Command:     st.Command,
			Description: st.Description,
			Optional:    st.Optional,
			Available:   st.Available,
			Detail:      st.Detail,
		})
	}
	return out
}
