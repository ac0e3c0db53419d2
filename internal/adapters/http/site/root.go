// Package site serves the embedded single-page UI.
package site

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
)

// Register attaches the UI to mux at /. Paths other than the embedded
// files answer a JSON 404, like the API routes.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", handler(FS()))
}

func handler(root http.FileSystem) http.Handler {
	files := http.FileServer(root)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, err := root.Open(path.Clean("/" + r.URL.Path))
		if err != nil {
			notFound(w, r.URL.Path)
			return
		}
		_ = f.Close()
		files.ServeHTTP(w, r)
	})
}

func notFound(w http.ResponseWriter, p string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "not found: " + p})
}
