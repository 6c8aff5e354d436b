package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTemplateNotFound = errors.New("template or CSS not found")
	ErrPDFGeneration    = errors.New("failed to generate PDF file")
)

// DefaultTemplateName is used when a request does not name a template.
const DefaultTemplateName = "default"

// Converter turns rendered HTML into PDF bytes. The production converter
// drives headless Chrome; tests substitute a stub.
type Converter interface {
	HTMLToPDF(ctx context.Context, html string, assetDir string) ([]byte, error)
}

// Renderer merges structured CV content into an HTML template and converts
// the result to a PDF under the media root, partitioned by date.
type Renderer struct {
	templatesDir string
	converter    Converter
}

func NewRenderer(templatesDir string, converter Converter) *Renderer {
	return &Renderer{templatesDir: templatesDir, converter: converter}
}

// ValidateTemplate checks that the named template directory exists with the
// required template.html and style.css files. Handlers call this before the
// pipeline runs.
func (r *Renderer) ValidateTemplate(name string) error {
	dir := filepath.Join(r.templatesDir, name)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return ErrTemplateNotFound
	}
	for _, f := range []string{"template.html", "style.css"} {
		if info, err := os.Stat(filepath.Join(dir, f)); err != nil || info.IsDir() {
			return ErrTemplateNotFound
		}
	}
	return nil
}

// RenderHTML executes the named template with the CV content bound as .Cv.
func (r *Renderer) RenderHTML(cvData map[string]any, templateName string) (string, error) {
	dir := filepath.Join(r.templatesDir, templateName)
	tpl, err := template.ParseFiles(filepath.Join(dir, "template.html"))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPDFGeneration, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, map[string]any{"Cv": cvData}); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPDFGeneration, err)
	}
	return buf.String(), nil
}

// GeneratePDF renders the template with the CV content and converts the
// result to PDF bytes. Where the bytes end up is the storage layer's concern.
func (r *Renderer) GeneratePDF(ctx context.Context, cvData map[string]any, templateName string) ([]byte, error) {
	html, err := r.RenderHTML(cvData, templateName)
	if err != nil {
		return nil, err
	}

	assetDir := filepath.Join(r.templatesDir, templateName)
	pdfBytes, err := r.converter.HTMLToPDF(ctx, html, assetDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPDFGeneration, err)
	}
	return pdfBytes, nil
}

// OutputKey builds the dated storage key for a new PDF with a random unique
// filename, e.g. cvs/2026/09/01/cv_<uuid>.pdf. Keys use forward slashes on
// every backend.
func OutputKey(now time.Time) string {
	return path.Join(
		"cvs",
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", int(now.Month())),
		fmt.Sprintf("%02d", now.Day()),
		fmt.Sprintf("cv_%s.pdf", uuid.New()),
	)
}
