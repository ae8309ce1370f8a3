package handlers

import (
	"net/http"
)

// IndexHandler serves the single-page question box.
type IndexHandler struct {
	html []byte
}

// NewIndexHandler creates a new IndexHandler serving html.
func NewIndexHandler(html string) *IndexHandler {
	return &IndexHandler{html: []byte(html)}
}

func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.html)
}
