package descriptions

// Comprehensive tool descriptions with practical examples and use cases

const (
	PDFFinalizeDescription = `Segment a court administrative PDF bundle into its component documents and resolve the declared field set.

**When to use:** You have a multi-document PDF bundle (despacho, requerimento de honorários, certidão) and need the final consolidated field values with full provenance.

**Why it's useful:** Runs the whole pipeline in one call: page evidence collection, document-type resolution, segmentation, validation, multi-strategy field extraction and cross-document aggregation. The result is a single JSON report with per-document audit data, final fields and accumulated diagnostics.

**Examples:**
• Process one bundle: "Finalize processo-0801234.pdf and return the resolved fields"
• Batch extraction: "Finalize every PDF in the configured directory and collect VALOR_ARBITRADO_FINAL"

**Best practices:** Validate the file first with pdf_validate_file; inspect the errors array of the result, diagnostics never abort the run.`

	PDFSegmentDescription = `Return only the document map of a PDF bundle: which page ranges form which documents, with scores and validator verdicts.

**When to use:** You need to see how a bundle splits into documents before (or instead of) running full field extraction.

**Why it's useful:** Much cheaper than a full finalize, and the evidence attached to each segment shows why every boundary was drawn.

**Examples:**
• Boundary check: "Segment bundle.pdf and show which pages form the despacho"
• Duplicate detection: "Segment bundle.pdf and list competing segments of the same type with their scores"

**Best practices:** Selected=false segments are kept for audit; only selected segments would feed extraction.`

	PDFValidateFileDescription = `Verify PDF file integrity and readability before processing.

**When to use:** Before attempting to finalize or segment any PDF file, especially in automated workflows or when handling user uploads.

**Why it's useful:** Prevents processing errors, identifies corrupted files early, and enforces the configured file size ceiling.

**Examples:**
• Batch processing safety: "Validate all PDFs in /bundles/ before bulk finalization"
• Upload verification: "Check user-uploaded processo.pdf is valid before processing"

**Best practices:** Always run this first in automated workflows.`

	PDFServerInfoDescription = `Get real-time server status, available tools, and system capabilities.

**When to use:** Starting work with the server, troubleshooting issues, or checking available functionality.

**Why it's useful:** Reports the configured PDF and catalog directories, strict mode, file size ceiling, the registered tools and the PDFs currently visible.

**Examples:**
• System check: "Verify server is ready and all tools are available before batch processing"
• Troubleshooting: "Check server info to diagnose why files aren't being found"

**Best practices:** Run at start of sessions to confirm the directory and strict-mode configuration.`
)

// ToolDescriptions maps tool names to their comprehensive descriptions
var ToolDescriptions = map[string]string{
	"pdf_finalize":      PDFFinalizeDescription,
	"pdf_segment":       PDFSegmentDescription,
	"pdf_validate_file": PDFValidateFileDescription,
	"pdf_server_info":   PDFServerInfoDescription,
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a list of all available tool names
func GetAllToolNames() []string {
	var names []string
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	return names
}
