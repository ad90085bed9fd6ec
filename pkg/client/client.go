// Package client implements the easy-fs file service client
package client

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/example/easyfs/pkg/api"
)

// Config contains the client configuration options
type Config struct {
	// ServerAddress is the address of the file server (e.g., "localhost:7070")
	ServerAddress string

	// ClientName is reported to the server when the session opens
	ClientName string

	// Timeout is the default timeout for RPC operations
	Timeout time.Duration

	// MaxRetries is the maximum number of retries for operations
	MaxRetries int

	// RetryDelay is the initial delay between retries (will be multiplied by backoff factor)
	RetryDelay time.Duration

	// BackoffFactor is the multiplier for retry delay after each attempt
	BackoffFactor float64

	// DialOptions are appended to the options the client dials with
	DialOptions []grpc.DialOption
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	name, _ := os.Hostname()
	return &Config{
		ServerAddress: "localhost:7070",
		ClientName:    name,
		Timeout:       30 * time.Second,
		MaxRetries:    3,
		RetryDelay:    500 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

// Client holds one session on a file server
type Client struct {
	// gRPC connection to the server
	conn *grpc.ClientConn

	// File service stub
	efsClient api.FileServiceClient

	// Client configuration
	config *Config

	// Session opened by NewClient
	sessionID string

	statsMu sync.Mutex
	stats   ClientStats
}

var _ EFSClient = (*Client)(nil)

// NewClient connects to the server and opens a session
func NewClient(ctx context.Context, config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, config.DialOptions...)
	conn, err := grpc.NewClient(config.ServerAddress, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}

	c := &Client{
		conn:      conn,
		efsClient: api.NewFileServiceClient(conn),
		config:    config,
	}

	var resp *api.OpenSessionResponse
	err = c.callWithRetry(ctx, "OpenSession", func(ctx context.Context) error {
		var err error
		resp, err = c.efsClient.OpenSession(ctx, &api.OpenSessionRequest{ClientName: config.ClientName})
		return err
	})
	if err == nil {
		err = StatusToError("OpenSession", resp.Status)
	}
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.sessionID = resp.SessionId
	return c, nil
}

// SessionID returns the id of the client's session
func (c *Client) SessionID() string {
	return c.sessionID
}

// Close ends the session and closes the connection
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()
	resp, err := c.efsClient.CloseSession(ctx, &api.CloseSessionRequest{SessionId: c.sessionID})
	if err == nil {
		err = StatusToError("CloseSession", resp.Status)
	}

	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	c.conn = nil
	return err
}

// GetStatistics returns client operation statistics
func (c *Client) GetStatistics() ClientStats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

func (c *Client) record(start time.Time, read, written int, err error) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	c.stats.Operations++
	if err != nil {
		c.stats.Errors++
	}
	c.stats.BytesRead += uint64(read)
	c.stats.BytesWritten += uint64(written)
	c.stats.totalTime += time.Since(start)
	c.stats.AvgResponseTime = c.stats.totalTime / time.Duration(c.stats.Operations)
}
