// Package mcp exposes context extraction and finding search over the Model
// Context Protocol, so coding assistants can call into a scanned project
// from their own sessions.
package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	codectx "github.com/relvet/revet/internal/context"
	"github.com/relvet/revet/internal/storage"
)

// Server wires the tools onto a stdio MCP server.
type Server struct {
	resolver *codectx.Resolver
	mcp      *server.MCPServer
}

// NewServer builds the MCP server with both tools registered. The scan
// database may not exist yet; search_findings opens it per call so the
// server still starts on a fresh machine.
func NewServer(resolver *codectx.Resolver, dbPath string, version string) *Server {
	mcpServer := server.NewMCPServer(
		"revet",
		version,
		server.WithToolCapabilities(true),
	)

	AddExtractContextTool(mcpServer, resolver)
	AddSearchFindingsTool(mcpServer, func() (FindingSearcher, error) {
		return storage.NewReader(dbPath)
	})

	return &Server{resolver: resolver, mcp: mcpServer}
}

// Serve runs the server on stdio until the client disconnects or a shutdown
// signal arrives.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Serving MCP on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("mcp server: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
