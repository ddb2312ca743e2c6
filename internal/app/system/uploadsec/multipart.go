// internal/app/system/uploadsec/multipart.go
package uploadsec

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNoFile is returned when the form has no file under the requested field.
var ErrNoFile = errors.New("no file in request")

// FromRequest reads the multipart file in field. At most MaxSize+1 bytes
// are read so oversize uploads still reach the allow-list stage and are
// reported there.
func FromRequest(r *http.Request, field string) (File, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxSize+1<<20)
	if err := r.ParseMultipartForm(MaxSize + 1<<20); err != nil {
		return File{}, fmt.Errorf("parse multipart form: %w", err)
	}
	fh, hdr, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return File{}, ErrNoFile
		}
		return File{}, fmt.Errorf("read form file: %w", err)
	}
	defer fh.Close()

	data, err := io.ReadAll(io.LimitReader(fh, MaxSize+1))
	if err != nil {
		return File{}, fmt.Errorf("read upload: %w", err)
	}
	return File{
		Filename:     hdr.Filename,
		DeclaredMIME: hdr.Header.Get("Content-Type"),
		Data:         data,
	}, nil
}
