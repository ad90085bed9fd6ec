// Package server implements the easy-fs file service
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"

	"github.com/example/easyfs/pkg/api"
	"github.com/example/easyfs/pkg/fs"
	"github.com/example/easyfs/pkg/kernel"
	"github.com/example/easyfs/pkg/rpc"
)

// session is one client's view of the image: its own descriptor table.
type session struct {
	id       string
	client   string
	proc     *kernel.Process
	lastUsed time.Time
}

// FileServer implements the file service over one image
type FileServer struct {
	api.UnimplementedFileServiceServer

	// Configuration
	config *Config

	// Root directory resolver of the served image
	resolver *kernel.Resolver

	// Open sessions by id
	sessions   map[string]*session
	sessionsMu sync.Mutex

	// Worker pool for limiting concurrent requests
	workerPool chan struct{}

	// now is replaced in tests
	now func() time.Time
}

// NewFileServer creates a new file server
func NewFileServer(config *Config, resolver *kernel.Resolver) (*FileServer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &FileServer{
		config:     config,
		resolver:   resolver,
		sessions:   make(map[string]*session),
		workerPool: make(chan struct{}, config.MaxConcurrent),
		now:        time.Now,
	}, nil
}

// Start listens on the configured address and serves until ctx is done
func (s *FileServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	if s.config.MaxConnections > 0 {
		lis = netutil.LimitListener(lis, s.config.MaxConnections)
	}
	log.Printf("File server starting on %s", lis.Addr())
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is done, then stops gracefully
func (s *FileServer) Serve(ctx context.Context, lis net.Listener) error {
	grpcServer := grpc.NewServer()
	api.RegisterFileServiceServer(grpcServer, s)

	go s.expireLoop(ctx)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(lis)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Printf("File server shutting down")
		grpcServer.GracefulStop()
		return nil
	}
}

func (s *FileServer) expireLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.SessionTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.expireSessions(); n > 0 {
				log.Printf("Expired %d idle sessions", n)
			}
		}
	}
}

// expireSessions closes every session idle for longer than SessionTTL
func (s *FileServer) expireSessions() int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	cutoff := s.now().Add(-s.config.SessionTTL)
	n := 0
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			sess.proc.CloseAll()
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// SessionCount returns the number of open sessions
func (s *FileServer) SessionCount() int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	return len(s.sessions)
}

// process returns the descriptor table of session id and marks it used
func (s *FileServer) process(id string) (*kernel.Process, error) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, rpc.ErrBadSession)
	}
	sess.lastUsed = s.now()
	return sess.proc, nil
}

// acquireWorker gets a worker from the pool or times out
func (s *FileServer) acquireWorker(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	select {
	case s.workerPool <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// releaseWorker returns a worker to the pool
func (s *FileServer) releaseWorker() {
	<-s.workerPool
}

type statusResponse interface {
	GetStatus() api.Status
}

// processRequest handles common request processing logic
func (s *FileServer) processRequest(ctx context.Context, op string,
	process func() (statusResponse, error)) (statusResponse, error) {

	reqID := uuid.NewString()
	clientAddr := "unknown"
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		clientAddr = p.Addr.String()
	}

	// Log request
	rpc.LogRequest(op, reqID, clientAddr)
	startTime := time.Now()

	// Acquire worker
	if err := s.acquireWorker(ctx); err != nil {
		rpc.LogError(op, reqID, err)
		return nil, err
	}
	defer s.releaseWorker()

	// Execute the operation
	result, err := process()

	// Log the result
	duration := time.Since(startTime)
	var status api.Status
	if err != nil {
		rpc.LogError(op, reqID, err)
		status = rpc.MapErrorToStatus(err)
	} else {
		status = result.GetStatus()
	}

	rpc.LogResponse(op, reqID, status, duration.String())
	return result, err
}

// OpenSession implements the OpenSession RPC method
func (s *FileServer) OpenSession(ctx context.Context, req *api.OpenSessionRequest) (*api.OpenSessionResponse, error) {
	result, err := s.processRequest(ctx, "OpenSession", func() (statusResponse, error) {
		sess := &session{
			id:       uuid.NewString(),
			client:   req.ClientName,
			proc:     kernel.NewProcess(s.resolver),
			lastUsed: s.now(),
		}

		s.sessionsMu.Lock()
		s.sessions[sess.id] = sess
		s.sessionsMu.Unlock()

		log.Printf("Opened session %s for %q", sess.id, sess.client)
		return &api.OpenSessionResponse{
			Status:    api.Status_OK,
			SessionId: sess.id,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*api.OpenSessionResponse), nil
}

// CloseSession implements the CloseSession RPC method
func (s *FileServer) CloseSession(ctx context.Context, req *api.CloseSessionRequest) (*api.CloseSessionResponse, error) {
	result, err := s.processRequest(ctx, "CloseSession", func() (statusResponse, error) {
		s.sessionsMu.Lock()
		sess, ok := s.sessions[req.SessionId]
		delete(s.sessions, req.SessionId)
		s.sessionsMu.Unlock()

		if !ok {
			return &api.CloseSessionResponse{Status: api.Status_ERR_BADSESSION}, nil
		}
		return &api.CloseSessionResponse{
			Status:    api.Status_OK,
			ClosedFds: uint32(sess.proc.CloseAll()),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*api.CloseSessionResponse), nil
}

// Open implements the Open RPC method
func (s *FileServer) Open(ctx context.Context, req *api.OpenRequest) (*api.OpenResponse, error) {
	result, err := s.processRequest(ctx, "Open", func() (statusResponse, error) {
		proc, err := s.process(req.SessionId)
		if err != nil {
			return &api.OpenResponse{Status: rpc.MapErrorToStatus(err)}, nil
		}

		fd, err := proc.Open(req.Name, fs.OpenFlags(req.Flags))
		if err != nil {
			return &api.OpenResponse{Status: rpc.MapErrorToStatus(err)}, nil
		}
		return &api.OpenResponse{Status: api.Status_OK, Fd: uint32(fd)}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*api.OpenResponse), nil
}

// Close implements the Close RPC method
func (s *FileServer) Close(ctx context.Context, req *api.CloseRequest) (*api.CloseResponse, error) {
	result, err := s.processRequest(ctx, "Close", func() (statusResponse, error) {
		proc, err := s.process(req.SessionId)
		if err != nil {
			return &api.CloseResponse{Status: rpc.MapErrorToStatus(err)}, nil
		}
		return &api.CloseResponse{Status: rpc.MapErrorToStatus(proc.Close(int(req.Fd)))}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*api.CloseResponse), nil
}

// Read implements the Read RPC method
func (s *FileServer) Read(ctx context.Context, req *api.ReadRequest) (*api.ReadResponse, error) {
	result, err := s.processRequest(ctx, "Read", func() (statusResponse, error) {
		proc, err := s.process(req.SessionId)
		if err != nil {
			return &api.ReadResponse{Status: rpc.MapErrorToStatus(err)}, nil
		}

		// Limit read size
		count := int(req.Count)
		if count > s.config.MaxReadSize {
			count = s.config.MaxReadSize
		}

		buf := make([]byte, count)
		n, err := proc.Read(int(req.Fd), buf)
		if err != nil {
			return &api.ReadResponse{Status: rpc.MapErrorToStatus(err)}, nil
		}
		return &api.ReadResponse{
			Status: api.Status_OK,
			Data:   buf[:n],
			Eof:    n < count || count == 0,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*api.ReadResponse), nil
}

// Write implements the Write RPC method
func (s *FileServer) Write(ctx context.Context, req *api.WriteRequest) (*api.WriteResponse, error) {
	result, err := s.processRequest(ctx, "Write", func() (statusResponse, error) {
		proc, err := s.process(req.SessionId)
		if err != nil {
			return &api.WriteResponse{Status: rpc.MapErrorToStatus(err)}, nil
		}

		// Limit write size
		if len(req.Data) > s.config.MaxWriteSize {
			return &api.WriteResponse{Status: api.Status_ERR_FBIG}, nil
		}

		n, err := proc.Write(int(req.Fd), req.Data)
		if err != nil {
			return &api.WriteResponse{Status: rpc.MapErrorToStatus(err)}, nil
		}
		return &api.WriteResponse{Status: api.Status_OK, Count: uint32(n)}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*api.WriteResponse), nil
}

// Fstat implements the Fstat RPC method
func (s *FileServer) Fstat(ctx context.Context, req *api.FstatRequest) (*api.FstatResponse, error) {
	result, err := s.processRequest(ctx, "Fstat", func() (statusResponse, error) {
		proc, err := s.process(req.SessionId)
		if err != nil {
			return &api.FstatResponse{Status: rpc.MapErrorToStatus(err)}, nil
		}

		st, err := proc.Fstat(int(req.Fd))
		if err != nil {
			return &api.FstatResponse{Status: rpc.MapErrorToStatus(err)}, nil
		}
		return &api.FstatResponse{Status: api.Status_OK, Stat: rpc.StatToProto(st)}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*api.FstatResponse), nil
}

// Link implements the Link RPC method
func (s *FileServer) Link(ctx context.Context, req *api.LinkRequest) (*api.LinkResponse, error) {
	result, err := s.processRequest(ctx, "Link", func() (statusResponse, error) {
		proc, err := s.process(req.SessionId)
		if err != nil {
			return &api.LinkResponse{Status: rpc.MapErrorToStatus(err)}, nil
		}
		return &api.LinkResponse{Status: rpc.MapErrorToStatus(proc.Linkat(req.OldName, req.NewName))}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*api.LinkResponse), nil
}

// Unlink implements the Unlink RPC method
func (s *FileServer) Unlink(ctx context.Context, req *api.UnlinkRequest) (*api.UnlinkResponse, error) {
	result, err := s.processRequest(ctx, "Unlink", func() (statusResponse, error) {
		proc, err := s.process(req.SessionId)
		if err != nil {
			return &api.UnlinkResponse{Status: rpc.MapErrorToStatus(err)}, nil
		}
		return &api.UnlinkResponse{Status: rpc.MapErrorToStatus(proc.Unlinkat(req.Name))}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*api.UnlinkResponse), nil
}

// List implements the List RPC method. Deleted slots come back as empty
// names.
func (s *FileServer) List(ctx context.Context, req *api.ListRequest) (*api.ListResponse, error) {
	result, err := s.processRequest(ctx, "List", func() (statusResponse, error) {
		if _, err := s.process(req.SessionId); err != nil {
			return &api.ListResponse{Status: rpc.MapErrorToStatus(err)}, nil
		}

		names, err := s.resolver.List()
		if err != nil {
			return &api.ListResponse{Status: rpc.MapErrorToStatus(err)}, nil
		}
		return &api.ListResponse{
			Status:    api.Status_OK,
			Names:     names,
			HardLinks: rpc.HardLinksToProto(s.resolver.HardLinks()),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*api.ListResponse), nil
}

// StatFS implements the StatFS RPC method
func (s *FileServer) StatFS(ctx context.Context, req *api.StatFSRequest) (*api.StatFSResponse, error) {
	result, err := s.processRequest(ctx, "StatFS", func() (statusResponse, error) {
		if _, err := s.process(req.SessionId); err != nil {
			return &api.StatFSResponse{Status: rpc.MapErrorToStatus(err)}, nil
		}

		st, err := s.resolver.StatFS()
		if err != nil {
			return &api.StatFSResponse{Status: rpc.MapErrorToStatus(err)}, nil
		}
		return &api.StatFSResponse{Status: api.Status_OK, Stat: rpc.FSStatToProto(st)}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*api.StatFSResponse), nil
}
