package storage

import (
	"context"
	"net/http"
)

// Storage persists generated PDF artifacts and serves them back on download.
// Keys are slash-separated relative paths (cvs/YYYY/MM/DD/cv_<uuid>.pdf);
// Save returns the full path recorded on the Cv row.
type Storage interface {
	Save(ctx context.Context, key string, data []byte) (fullPath string, err error)
	// ServeFile writes the stored artifact to the response as an
	// attachment with the given filename.
	ServeFile(w http.ResponseWriter, r *http.Request, fullPath, filename string) error
}
