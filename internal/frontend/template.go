package frontend

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/analysis"
)

var (
	scriptTagRegex = regexp.MustCompile(`<script([^>]*)>`)
	styleTagRegex  = regexp.MustCompile(`<link([^>]*rel=["']stylesheet["'][^>]*)>`)
)

// WeightRow is one line of the scoring table on the dashboard
type WeightRow struct {
	Dimension analysis.Dimension
	Percent   float64
}

// PageData is what index.html is rendered with. Everything except the
// nonce is fixed at startup.
type PageData struct {
	Nonce             string
	Weights           []WeightRow
	StrengthThreshold float64
	WeaknessThreshold float64
	WindowDays        int
}

// NewPageData describes the scoring policy for the dashboard footer
func NewPageData(p analysis.Policy) PageData {
	rows := make([]WeightRow, 0, len(analysis.Dimensions()))
	for _, d := range analysis.Dimensions() {
		rows = append(rows, WeightRow{Dimension: d, Percent: p.Weights.Of(d) * 100})
	}
	return PageData{
		Weights:           rows,
		StrengthThreshold: p.StrengthThreshold,
		WeaknessThreshold: p.WeaknessThreshold,
		WindowDays:        p.WindowDays,
	}
}

// LoadIndexTemplate loads index.html from distFS and adds nonce placeholders
// to its script and stylesheet tags
func LoadIndexTemplate(distFS fs.FS) (*template.Template, error) {
	indexFile, err := distFS.Open("index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to open index.html: %w", err)
	}
	defer indexFile.Close()

	htmlContent, err := io.ReadAll(indexFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read index.html: %w", err)
	}

	tmpl, err := template.New("index").Parse(processHTMLForNonce(string(htmlContent)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return tmpl, nil
}

func processHTMLForNonce(html string) string {
	html = scriptTagRegex.ReplaceAllString(html, `<script nonce="{{.Nonce}}"$1>`)
	return styleTagRegex.ReplaceAllString(html, `<link nonce="{{.Nonce}}"$1>`)
}

// RenderIndex renders the dashboard page; it is never cached since the
// nonce changes on every response
func RenderIndex(c *gin.Context, tmpl *template.Template, data PageData) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	return nil
}
