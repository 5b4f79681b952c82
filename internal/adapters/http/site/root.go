// Package site serves the embedded leaderboard page.
package site

import (
	"context"
	"net/http"
)

// Register attaches the page and its assets to mux. Only GET / and the
// files under static/ are served; other paths stay 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	files := http.FileServer(FS())
	mux.Handle("GET /{$}", files)
	mux.Handle("GET /style.css", files)
}
