package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// Converter transforms HTML content to PDF.
type Converter interface {
	// Convert transforms HTML content and writes the result to w.
	Convert(ctx context.Context, html []byte, w io.Writer) error
}

// =============================================================================
// WeasyPrint Converter (HTML → PDF)
// =============================================================================

// WeasyPrintConverter converts HTML to PDF using WeasyPrint.
// Requires weasyprint to be installed: pip install weasyprint
type WeasyPrintConverter struct {
	// Command is the weasyprint command to execute. Defaults to "weasyprint".
	Command string
}

// NewWeasyPrintConverter creates a new WeasyPrint converter.
func NewWeasyPrintConverter() *WeasyPrintConverter {
	return &WeasyPrintConverter{
		Command: "weasyprint",
	}
}

// Convert transforms HTML to PDF using WeasyPrint.
func (c *WeasyPrintConverter) Convert(ctx context.Context, html []byte, w io.Writer) error {
	// WeasyPrint wants file paths, not stdin.
	tmpDir, err := os.MkdirTemp("", "itinerary-pdf-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inputPath := filepath.Join(tmpDir, "input.html")
	outputPath := filepath.Join(tmpDir, "output.pdf")

	if err := os.WriteFile(inputPath, html, 0644); err != nil {
		return fmt.Errorf("write input file: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.Command, inputPath, outputPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("weasyprint failed: %w, stderr: %s", err, stderr.String())
	}

	pdfData, err := os.ReadFile(outputPath)
	if err != nil {
		return fmt.Errorf("read output file: %w", err)
	}

	if _, err := w.Write(pdfData); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

// IsWeasyPrintAvailable checks if weasyprint is installed and accessible.
func IsWeasyPrintAvailable() bool {
	_, err := exec.LookPath("weasyprint")
	return err == nil
}
