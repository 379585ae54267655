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

	"remoteaccessd/internal/action"
	"remoteaccessd/internal/daemon"
	"remoteaccessd/internal/logging"
)

const serviceName = "RemoteAccess"

// Controller is the daemon surface reachable over the socket.
// *daemon.Daemon satisfies it.
type Controller interface {
	Status(ctx context.Context) daemon.Status
	Trigger(req action.Request) bool
	TestNotification(ctx context.Context) (bool, string, error)
	Shutdown()
}

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

// NewServer configures the IPC server at the given socket path. The socket
// is created with owner-only permissions.
func NewServer(ctx context.Context, path string, c Controller, logger *slog.Logger) (*Server, error) {
	if c == nil {
		return nil, errors.New("ipc server requires a controller")
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
	if err := os.Chmod(path, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("restrict socket permissions: %w", err)
	}

	logger = logging.NewComponentLogger(logger, "ipc")
	rpcServer := rpc.NewServer()
	srv := &service{controller: c, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName(serviceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
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
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
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
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket is replaced on next start"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually"))
	}
}

type service struct {
	controller Controller
	logger     *slog.Logger
	ctx        context.Context
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("daemon stop requested via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	s.controller.Shutdown()
	resp.Stopped = true
	return nil
}

func (s *service) Trigger(req TriggerRequest, resp *TriggerResponse) error {
	kind, ok := action.ParseKind(req.Action)
	if !ok {
		return fmt.Errorf("unknown action %q (want toggle or provision)", req.Action)
	}
	if !s.controller.Trigger(action.Request{Kind: kind, Origin: action.OriginControl}) {
		resp.Message = "daemon busy; request dropped"
		return nil
	}
	resp.Accepted = true
	resp.Message = kind.String() + " queued"
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.controller.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	if err != nil {
		resp.Message = fmt.Sprintf("%s: %v", message, err)
	}
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.controller.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.State = status.State
	resp.Mode = status.Mode
	resp.InputDevice = status.InputDevice
	resp.InputName = status.InputName
	resp.WatchDir = status.WatchDir
	resp.MediaPresent = status.MediaPresent
	resp.LastOutcome = status.LastOutcome
	resp.LockPath = status.LockFilePath
	resp.LogPath = status.LogPath
	if !status.StartedAt.IsZero() {
		resp.StartedAt = status.StartedAt.Format(time.RFC3339)
	}
	if len(status.Dependencies) > 0 {
		resp.Dependencies = make([]DependencyStatus, 0, len(status.Dependencies))
		for _, dep := range status.Dependencies {
			resp.Dependencies = append(resp.Dependencies, DependencyStatus{
				Name:        dep.Name,
				Command:     dep.Command,
				Description: dep.Description,
				Optional:    dep.Optional,
				Available:   dep.Available,
				Path:        dep.Path,
				Detail:      dep.Detail,
			})
		}
	}
	return nil
}
