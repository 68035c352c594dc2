package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SPAHandler serves the built front-end from a directory, falling back to
// index.html for page routes so client-side routing works after refresh.
type SPAHandler struct {
	root  string
	index string
}

// NewSPAHandler constructs a handler serving files beneath root.
func NewSPAHandler(root string) *SPAHandler {
	return &SPAHandler{
		root:  filepath.Clean(root),
		index: "index.html",
	}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	// Reject traversal attempts before touching the filesystem.
	cleaned := path.Clean("/" + r.URL.Path)
	if strings.Contains(cleaned, "..") {
		http.NotFound(w, r)
		return
	}

	target := filepath.Join(h.root, filepath.FromSlash(cleaned))
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		http.ServeFile(w, r, target)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.root, h.index))
}
