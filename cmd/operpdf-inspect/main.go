// operpdf-inspect runs the finalize pipeline on one PDF bundle and prints a
// human-readable report. Intended for catalog tuning and boundary debugging;
// the MCP server is the machine-facing surface.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/sindlinger/operpdf-align-sub001/internal/config"
	"github.com/sindlinger/operpdf-align-sub001/internal/mcp"
	"github.com/sindlinger/operpdf-align-sub001/internal/pipeline"
)

func main() {
	strict := pflag.Bool("strict", false, "Null ambiguous or colliding values instead of keeping the best ranked one")
	catalogDir := pflag.String("catalogdir", "", "Directory holding the reference catalogs")
	asJSON := pflag.Bool("json", false, "Emit the raw JSON report instead of the formatted view")
	segmentOnly := pflag.Bool("segments", false, "Show the document map only, skip field extraction")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <bundle.pdf>\n\nFlags:\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}
	path := pflag.Arg(0)

	cfg := config.DefaultConfig()
	cfg.Strict = *strict
	cfg.CatalogDir = *catalogDir

	service, err := mcp.NewDefaultService(cfg)
	if err != nil {
		fatalf("setup failed: %v", err)
	}

	if *segmentOnly {
		result, err := service.SegmentFile(mcp.SegmentFileRequest{Path: path})
		if err != nil {
			fatalf("segment failed: %v", err)
		}
		if *asJSON {
			printJSON(result)
			return
		}
		printSegments(result)
		return
	}

	result, err := service.FinalizeFile(mcp.FinalizeFileRequest{Path: path})
	if err != nil {
		fatalf("finalize failed: %v", err)
	}
	if *asJSON {
		printJSON(result)
		return
	}
	printReport(result)
}

func fatalf(format string, args ...any) {
	color.New(color.FgRed).Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("encode report: %v", err)
	}
	fmt.Println(string(data))
}

func printSegments(result *mcp.SegmentFileResult) {
	header := color.New(color.FgCyan, color.Bold)
	header.Printf("%s (%d pages)\n\n", result.Name, result.TotalPages)
	for _, seg := range result.Documents {
		printSegmentLine(seg.DocType, seg.PageStart, seg.PageEnd, seg.Selected, seg.ValidatorPass, seg.ValidatorReason, seg.Score)
	}
	printErrors(result.Errors)
}

func printReport(result *pipeline.FinalizeOutput) {
	header := color.New(color.FgCyan, color.Bold)
	header.Printf("%s (%d pages, strict=%t)\n\n", result.Name, result.TotalPages, result.Strict)

	header.Println("Documents")
	for _, doc := range result.Documents {
		printSegmentLine(doc.DocType, doc.PageStart, doc.PageEnd, doc.Selected, doc.ValidatorPass, doc.ValidatorReason, doc.Score)
	}

	header.Println("\nFinal fields")
	names := make([]string, 0, len(result.FinalFields))
	for name := range result.FinalFields {
		names = append(names, name)
	}
	sort.Strings(names)

	resolved := color.New(color.FgGreen)
	missing := color.New(color.FgRed)
	for _, name := range names {
		value := result.FinalFields[name]
		if value.Empty() {
			missing.Printf("  %-28s <not resolved>\n", name)
			continue
		}
		resolved.Printf("  %-28s %s", name, value.Value)
		if value.DocType != "" {
			fmt.Printf("  [%s", value.DocType)
			if value.Method != "" {
				fmt.Printf("/%s", value.Method)
			}
			fmt.Print("]")
		}
		fmt.Println()
	}

	printErrors(result.Errors)
}

func printSegmentLine(docType pipeline.DocType, start, end int, selected, pass bool, reason string, score float64) {
	mark := color.New(color.FgGreen).Sprint("selected")
	if !selected {
		mark = color.New(color.Faint).Sprint("audit")
	}
	verdict := color.New(color.FgGreen).Sprint("pass")
	if !pass {
		verdict = color.New(color.FgYellow).Sprintf("fail(%s)", reason)
	}
	fmt.Printf("  %-24s pages %d-%d  %s  %s  score=%.0f\n", docType, start, end, mark, verdict, score)
}

func printErrors(errs []pipeline.PipelineError) {
	if len(errs) == 0 {
		return
	}
	warn := color.New(color.FgYellow)
	warn.Printf("\nDiagnostics (%d)\n", len(errs))
	for _, e := range errs {
		if e.Field != "" {
			warn.Printf("  %s [%s]: %s\n", e.Code, e.Field, e.Message)
		} else {
			warn.Printf("  %s: %s\n", e.Code, e.Message)
		}
	}
}
