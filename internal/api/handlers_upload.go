package api

import (
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"

	"repoviz/internal/errors"
)

// multipartSlack covers multipart boundaries and part headers on top of
// the archive itself.
const multipartSlack = 1 << 20

// handleUpload scans an uploaded archive. The archive is either the
// "archive" field of a multipart form or the raw request body, named by
// the X-Filename header or the name query parameter.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.opts.Archives == nil {
		WriteError(w, errors.New(errors.UnsupportedArchive, "archive uploads are not enabled on this server", nil))
		return
	}

	maxSize := s.cfg.MaxUploadBytes
	if r.ContentLength > maxSize+multipartSlack {
		WriteError(w, tooLarge(maxSize))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartSlack)

	body, name, err := uploadPart(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	tempPath, size, err := streamUploadToFile(body, maxSize)
	if err != nil {
		WriteError(w, err)
		return
	}
	defer os.Remove(tempPath)

	s.logger.Info("Received upload",
		"name", name,
		"size", size,
		"request_id", GetRequestID(r.Context()),
	)

	inputs, snap, err := s.opts.Archives.LoadFile(r.Context(), tempPath, name)
	if err != nil {
		WriteError(w, err)
		return
	}
	s.runScan(w, r, inputs, snap)
}

// uploadPart returns the archive stream and its file name.
func uploadPart(r *http.Request) (io.Reader, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		name := r.Header.Get("X-Filename")
		if name == "" {
			name = r.URL.Query().Get("name")
		}
		return r.Body, uploadName(name), nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", errors.New(errors.InvalidInput, "invalid multipart body", err)
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, "", errors.New(errors.InvalidInput, `multipart body has no "archive" field`, nil)
		}
		if err != nil {
			return nil, "", uploadReadError(err)
		}
		if part.FormName() == "archive" {
			return part, uploadName(part.FileName()), nil
		}
	}
}

// uploadName keeps only the base name of a client-supplied file name.
func uploadName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		return "upload"
	}
	return name
}

// streamUploadToFile streams src to a temp file, failing once more than
// maxSize bytes arrive.
func streamUploadToFile(src io.Reader, maxSize int64) (string, int64, error) {
	file, err := os.CreateTemp("", "repoviz-upload-*")
	if err != nil {
		return "", 0, errors.New(errors.InternalError, "create upload file", err)
	}
	defer file.Close()

	written, err := io.Copy(file, io.LimitReader(src, maxSize+1))
	if err != nil {
		os.Remove(file.Name())
		return "", 0, uploadReadError(err)
	}
	if written > maxSize {
		os.Remove(file.Name())
		return "", 0, tooLarge(maxSize)
	}
	if written == 0 {
		os.Remove(file.Name())
		return "", 0, errors.New(errors.InvalidInput, "upload is empty", nil)
	}
	return file.Name(), written, nil
}

func uploadReadError(err error) error {
	var mbe *http.MaxBytesError
	if stderrors.As(err, &mbe) {
		return tooLarge(mbe.Limit - multipartSlack)
	}
	return errors.New(errors.InvalidInput, "failed to read upload", err)
}

func tooLarge(maxSize int64) error {
	return errors.New(errors.UploadTooLarge, fmt.Sprintf("upload exceeds max size of %d bytes", maxSize), nil).
		WithDetails(map[string]int64{"maxBytes": maxSize})
}
