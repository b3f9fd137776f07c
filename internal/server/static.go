package server

import (
	"net/http"
	"strings"
)

// staticFileServer serves uploaded assets from dir under the given URL
// prefix. Directory listings are refused; only direct file paths resolve.
func staticFileServer(prefix, dir string) http.Handler {
	fileServer := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}
