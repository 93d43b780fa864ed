package mcp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sindlinger/operpdf-align-sub001/internal/catalog"
	"github.com/sindlinger/operpdf-align-sub001/internal/config"
	"github.com/sindlinger/operpdf-align-sub001/internal/descriptions"
	"github.com/sindlinger/operpdf-align-sub001/internal/honorarios"
	"github.com/sindlinger/operpdf-align-sub001/internal/pdfio"
	"github.com/sindlinger/operpdf-align-sub001/internal/pipeline"
	"github.com/sindlinger/operpdf-align-sub001/internal/signature"
)

// FinalizeFileRequest asks for the full segmentation and field resolution of
// one PDF bundle.
type FinalizeFileRequest struct {
	Path string
}

// SegmentFileRequest asks only for the document map of one PDF bundle.
type SegmentFileRequest struct {
	Path string
}

// SegmentFileResult is the segmentation-only view of a bundle.
type SegmentFileResult struct {
	Path       string                  `json:"path"`
	Name       string                  `json:"name"`
	TotalPages int                     `json:"total_pages"`
	Documents  []*pipeline.DocSegment  `json:"documents"`
	Errors     []pipeline.PipelineError `json:"errors,omitempty"`
}

// ValidateFileRequest asks whether a file is a readable PDF.
type ValidateFileRequest struct {
	Path string
}

// ValidateFileResult reports the validation outcome.
type ValidateFileResult struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// ServerInfoResult summarizes the running server for clients.
type ServerInfoResult struct {
	ServerName       string     `json:"server_name"`
	Version          string     `json:"version"`
	DefaultDirectory string     `json:"default_directory"`
	CatalogDirectory string     `json:"catalog_directory,omitempty"`
	MaxFileSize      int64      `json:"max_file_size"`
	Strict           bool       `json:"strict"`
	AvailableTools   []ToolInfo `json:"available_tools"`
	PDFFiles         []FileInfo `json:"pdf_files,omitempty"`
}

// ToolInfo describes one registered tool.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FileInfo is one PDF file in the configured directory.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Service wires the PDF loader and the finalize pipeline behind the tool
// surface. It is stateless between calls.
type Service struct {
	cfg    *config.Config
	loader *pdfio.Loader
	pipe   *pipeline.Pipeline
}

// NewService builds the tool service.
func NewService(cfg *config.Config, loader *pdfio.Loader, pipe *pipeline.Pipeline) *Service {
	return &Service{cfg: cfg, loader: loader, pipe: pipe}
}

// NewDefaultService assembles the service with the standard collaborator
// stack: loader-backed signature probing and textops, catalog files from the
// configured catalog directory (built-in defaults when absent) and the fee
// workbook.
func NewDefaultService(cfg *config.Config) (*Service, error) {
	loader := pdfio.NewLoader(cfg.MaxFileSize)

	patterns, err := signature.LoadPatterns(cfg.SignaturePatternsPath())
	if err != nil {
		return nil, fmt.Errorf("signature catalog: %w", err)
	}
	experts, err := catalog.LoadExperts(cfg.ExpertCatalogPath())
	if err != nil {
		return nil, fmt.Errorf("expert catalog: %w", err)
	}
	templates, err := catalog.LoadTemplates(cfg.TemplatesPath())
	if err != nil {
		return nil, fmt.Errorf("template catalog: %w", err)
	}
	strategies, err := catalog.LoadStrategies(cfg.StrategiesPath())
	if err != nil {
		return nil, fmt.Errorf("strategy catalog: %w", err)
	}
	fees, err := honorarios.LoadTable(cfg.FeeTablePath())
	if err != nil {
		return nil, fmt.Errorf("fee table: %w", err)
	}

	collab := pipeline.Collaborators{
		Signature:   signature.NewFinder(patterns, loader),
		Aligner:     catalog.DefaultModels(),
		Templates:   templates,
		TextOps:     catalog.NewTextOps(loader),
		Strategies:  strategies,
		Specialties: fees,
		Experts:     experts,
		Fees:        fees,
	}
	return NewService(cfg, loader, pipeline.New(collab, cfg.Strict)), nil
}

// FinalizeFile runs the full pipeline for one bundle.
func (s *Service) FinalizeFile(req FinalizeFileRequest) (*pipeline.FinalizeOutput, error) {
	path, err := s.resolvePath(req.Path)
	if err != nil {
		return nil, err
	}
	pages, hits, err := s.loader.LoadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return s.pipe.Run(path, pages, hits), nil
}

// SegmentFile runs page resolution and segmentation only.
func (s *Service) SegmentFile(req SegmentFileRequest) (*SegmentFileResult, error) {
	path, err := s.resolvePath(req.Path)
	if err != nil {
		return nil, err
	}
	pages, hits, err := s.loader.LoadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	segments, errs := s.pipe.Segment(path, pages, hits)
	return &SegmentFileResult{
		Path:       path,
		Name:       filepath.Base(path),
		TotalPages: len(pages),
		Documents:  segments,
		Errors:     errs,
	}, nil
}

// ValidateFile checks that the file exists and parses as a PDF.
func (s *Service) ValidateFile(req ValidateFileRequest) (*ValidateFileResult, error) {
	path, err := s.resolvePath(req.Path)
	if err != nil {
		return nil, err
	}
	if err := s.loader.Validate(path); err != nil {
		return &ValidateFileResult{Path: path, Valid: false, Message: err.Error()}, nil
	}
	return &ValidateFileResult{Path: path, Valid: true}, nil
}

// ServerInfo reports server configuration, the registered tools and the PDFs
// visible in the configured directory.
func (s *Service) ServerInfo(toolNames []string) (*ServerInfoResult, error) {
	result := &ServerInfoResult{
		ServerName:       s.cfg.ServerName,
		Version:          s.cfg.Version,
		DefaultDirectory: s.cfg.PDFDirectory,
		CatalogDirectory: s.cfg.CatalogDir,
		MaxFileSize:      s.cfg.MaxFileSize,
		Strict:           s.cfg.Strict,
	}
	for _, name := range toolNames {
		result.AvailableTools = append(result.AvailableTools, ToolInfo{
			Name:        name,
			Description: descriptions.GetToolDescription(name),
		})
	}

	entries, err := os.ReadDir(s.cfg.PDFDirectory)
	if err != nil {
		// The directory listing is informational; report what we have.
		return result, nil
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		result.PDFFiles = append(result.PDFFiles, FileInfo{Name: entry.Name(), Size: info.Size()})
	}
	return result, nil
}

// resolvePath makes a request path absolute, anchoring relative paths at the
// configured PDF directory.
func (s *Service) resolvePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.cfg.PDFDirectory, path)
	}
	return filepath.Clean(path), nil
}
