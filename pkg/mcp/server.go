// Package mcp exposes counterexample minimization as an MCP (Model Context
// Protocol) tool.
package mcp

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nomagicln/propshrink/internal/logging"
)

// ServerFactory creates and manages MCP servers.
type ServerFactory struct {
	Impl *mcp.Implementation
}

// NewServerFactory creates a new server factory.
func NewServerFactory(name, version string) *ServerFactory {
	return &ServerFactory{
		Impl: &mcp.Implementation{
			Name:    name,
			Version: version,
		},
	}
}

// CreateServer creates a new MCP server instance with the minimization tool
// registered.
func (f *ServerFactory) CreateServer(h *MinimizeHandler) *mcp.Server {
	server := mcp.NewServer(f.Impl, &mcp.ServerOptions{})
	h.Register(server)
	return server
}

// RunServer runs the server with the specified transport. Stdio carries the
// protocol, so status messages go to status.
func (f *ServerFactory) RunServer(ctx context.Context, server *mcp.Server, transport string, port string, status io.Writer) error {
	log := logging.Logger(ctx).WithField("transport", transport)
	switch transport {
	case "stdio":
		log.Info("serving MCP")
		return server.Run(ctx, &mcp.StdioTransport{})
	case "sse":
		sseHandler := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server {
			return server
		}, nil)

		addr := ":" + port
		_, _ = fmt.Fprintf(status, "Starting SSE server on %s\n", addr)
		log.WithField("addr", addr).Info("serving MCP")
		srv := &http.Server{Addr: addr, Handler: sseHandler}
		go func() {
			<-ctx.Done()
			_ = srv.Close()
		}()
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unsupported transport: %s", transport)
	}
}
