package frontend

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/analysis"
	apperrors "github.com/Measum-Shah/Github-Profile-Analyzer/internal/errors"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/security"
)

// Dashboard serves the embedded single page dashboard
type Dashboard struct {
	files fs.FS
	index *template.Template
	page  PageData
}

// NewDashboard loads the embedded files and the index template
func NewDashboard(policy analysis.Policy) (*Dashboard, error) {
	files, err := GetDistFS()
	if err != nil {
		return nil, err
	}
	return newDashboard(files, policy)
}

func newDashboard(files fs.FS, policy analysis.Policy) (*Dashboard, error) {
	index, err := LoadIndexTemplate(files)
	if err != nil {
		return nil, err
	}
	return &Dashboard{files: files, index: index, page: NewPageData(policy)}, nil
}

// Handler serves /assets/* from the embedded files and renders index.html
// for every other path
func (d *Dashboard) Handler() gin.HandlerFunc {
	fileServer := http.FileServer(http.FS(d.files))

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if strings.HasPrefix(path, "/assets/") {
			if _, err := fs.Stat(d.files, strings.TrimPrefix(path, "/")); err != nil {
				c.AbortWithStatus(http.StatusNotFound)
				return
			}
			c.Header("Cache-Control", "public, max-age=3600")
			fileServer.ServeHTTP(c.Writer, c.Request)
			return
		}

		nonce := security.GetNonce(c)
		if nonce == "" {
			slog.Warn("CSP nonce not found in context, generating new one")
			var err error
			nonce, err = security.GenerateNonce()
			if err != nil {
				apperrors.Respond(c, apperrors.NewInternalError("failed to generate nonce", err))
				return
			}
		}

		page := d.page
		page.Nonce = nonce
		if err := RenderIndex(c, d.index, page); err != nil {
			slog.Error("Failed to render index.html", "error", err, "path", path)
			apperrors.Respond(c, apperrors.NewInternalError("failed to render page", err))
		}
	}
}
