package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sindlinger/operpdf-align-sub001/internal/config"
	"github.com/sindlinger/operpdf-align-sub001/internal/descriptions"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *Service
	mcpServer *server.MCPServer
	toolNames []string
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *Service) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// Register finalize tool
	finalizeTool := mcp.NewTool(
		"pdf_finalize",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_finalize")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF bundle, absolute or relative to the configured directory"),
		),
	)
	s.mcpServer.AddTool(finalizeTool, s.handleFinalize)
	s.toolNames = append(s.toolNames, "pdf_finalize")

	// Register segment tool
	segmentTool := mcp.NewTool(
		"pdf_segment",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_segment")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF bundle, absolute or relative to the configured directory"),
		),
	)
	s.mcpServer.AddTool(segmentTool, s.handleSegment)
	s.toolNames = append(s.toolNames, "pdf_segment")

	// Register PDF validate file tool
	validateTool := mcp.NewTool(
		"pdf_validate_file",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_validate_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(validateTool, s.handleValidateFile)
	s.toolNames = append(s.toolNames, "pdf_validate_file")

	// Register server info tool
	serverInfoTool := mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_server_info")),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
	s.toolNames = append(s.toolNames, "pdf_server_info")
}

// Handler functions
func (s *Server) handleFinalize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.FinalizeFile(FinalizeFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonToolResult(result)
}

func (s *Server) handleSegment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.SegmentFile(SegmentFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonToolResult(result)
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ValidateFile(ValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable", result.Path)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.service.ServerInfo(s.toolNames)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonToolResult(result)
}

// jsonToolResult marshals a result payload as indented JSON tool output.
func jsonToolResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting finalize server in stdio mode")
		log.Printf("PDF directory: %s", s.config.PDFDirectory)
	}

	// Use the mark3labs/mcp-go server.ServeStdio function
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	// For now, we'll just use stdio mode since the mark3labs library
	// handles the transport differently
	log.Printf("Server mode not yet implemented with mark3labs/mcp-go")
	log.Printf("Falling back to stdio mode")
	return s.runStdioMode(ctx)
}
