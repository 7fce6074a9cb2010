package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/camden-git/checkinkiosk/media"
)

// PhotoServer serves participant photos mounted at "/<subDir>/*". Only the
// last path element is used, so requests cannot leave the photo directory.
//
//	r.Get("/foto_peserta/*", PhotoServer(store, "foto_peserta"))
func PhotoServer(store media.Store, subDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "*")
		if name == "" || strings.Contains(name, "..") || strings.Contains(name, "/") {
			http.Error(w, "Invalid asset path", http.StatusBadRequest)
			return
		}

		fullPath, err := store.FullPath(subDir + "/" + name)
		if err != nil {
			http.Error(w, "Invalid asset path", http.StatusBadRequest)
			return
		}
		if _, err := os.Stat(fullPath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		} else if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			log.Printf("Error stating asset file %s: %v", fullPath, err)
			return
		}

		// photo names carry their timestamp, so a replaced photo gets a new URL
		cacheDuration := 24 * time.Hour
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(cacheDuration.Seconds())))
		w.Header().Set("Expires", time.Now().Add(cacheDuration).Format(http.TimeFormat))

		http.ServeFile(w, r, fullPath)
	}
}

// StaticSPA serves a built frontend from dir and falls back to index.html
// for unknown paths so client-side routes survive a reload.
func StaticSPA(dir string) http.HandlerFunc {
	root, err := filepath.Abs(dir)
	if err != nil {
		root = dir
	}
	log.Printf("Serving UI bundle from directory: %s", root)
	fileServer := http.FileServer(http.Dir(root))

	return func(w http.ResponseWriter, r *http.Request) {
		cleaned := filepath.Clean("/" + r.URL.Path)
		target := filepath.Join(root, filepath.FromSlash(cleaned))
		if info, err := os.Stat(target); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		index := filepath.Join(root, "index.html")
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, index)
	}
}
