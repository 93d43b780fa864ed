package mcp

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceResolvePath(t *testing.T) {
	cfg := testConfig(t)
	service, err := NewDefaultService(cfg)
	require.NoError(t, err)

	t.Run("relative path anchors at the PDF directory", func(t *testing.T) {
		got, err := service.resolvePath("bundle.pdf")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cfg.PDFDirectory, "bundle.pdf"), got)
	})

	t.Run("absolute path passes through", func(t *testing.T) {
		got, err := service.resolvePath("/data/bundle.pdf")
		require.NoError(t, err)
		assert.Equal(t, filepath.Clean("/data/bundle.pdf"), got)
	})

	t.Run("empty path is rejected", func(t *testing.T) {
		_, err := service.resolvePath("")
		require.Error(t, err)
	})
}

func TestServiceValidateFileMissing(t *testing.T) {
	cfg := testConfig(t)
	service, err := NewDefaultService(cfg)
	require.NoError(t, err)

	result, err := service.ValidateFile(ValidateFileRequest{Path: "missing.pdf"})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Message)
}

func TestServiceFinalizeFileMissing(t *testing.T) {
	cfg := testConfig(t)
	service, err := NewDefaultService(cfg)
	require.NoError(t, err)

	_, err = service.FinalizeFile(FinalizeFileRequest{Path: "missing.pdf"})
	require.Error(t, err)
}

func TestServiceServerInfo(t *testing.T) {
	cfg := testConfig(t)
	cfg.Strict = true
	service, err := NewDefaultService(cfg)
	require.NoError(t, err)

	info, err := service.ServerInfo([]string{"pdf_finalize", "pdf_server_info"})
	require.NoError(t, err)
	assert.Equal(t, cfg.ServerName, info.ServerName)
	assert.Equal(t, cfg.PDFDirectory, info.DefaultDirectory)
	assert.True(t, info.Strict)
	require.Len(t, info.AvailableTools, 2)
	assert.Equal(t, "pdf_finalize", info.AvailableTools[0].Name)
	assert.NotEmpty(t, info.AvailableTools[0].Description)
}
