// Package web serves the three static files of the leaderboard page.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"os"

	"go.uber.org/zap"
)

//go:embed static
var embedded embed.FS

// Asset is one of the fixed files served by the page.
type Asset struct {
	Name        string // path inside the content source
	ContentType string
	ErrorPrefix string
}

var (
	IndexPage  = Asset{Name: "index.html", ContentType: "text/html; charset=utf-8", ErrorPrefix: "Error loading page"}
	Stylesheet = Asset{Name: "styles.css", ContentType: "text/css; charset=utf-8", ErrorPrefix: "Error loading CSS"}
	Script     = Asset{Name: "script.js", ContentType: "application/javascript; charset=utf-8", ErrorPrefix: "Error loading JS"}
)

// Assets reads files from a content source on every request. No caching.
type Assets struct {
	fsys fs.FS
}

// NewAssets serves from dir when set, otherwise from the files embedded in the binary.
func NewAssets(dir string) *Assets {
	if dir != "" {
		return &Assets{fsys: os.DirFS(dir)}
	}
	sub, err := fs.Sub(embedded, "static")
	if err != nil {
		// static is a compile-time directory; Sub only fails on an invalid name
		panic(err)
	}
	return &Assets{fsys: sub}
}

// NewAssetsFS serves from an arbitrary file system.
func NewAssetsFS(fsys fs.FS) *Assets {
	return &Assets{fsys: fsys}
}

// Handler returns a handler writing the full contents of a.
func (s *Assets) Handler(a Asset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(s.fsys, a.Name)
		if err != nil {
			zap.L().Error("failed to serve static file", zap.String("file", a.Name), zap.Error(err))
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(a.ErrorPrefix + ": " + err.Error()))
			return
		}
		w.Header().Set("Content-Type", a.ContentType)
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}
