package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"galleria/internal/config"
	"galleria/internal/services"
	"galleria/internal/storage"
)

const multipartMemory = 32 << 20

// form is a parsed request body: text values plus accepted image files.
type form struct {
	values  map[string][]string
	files   []storage.File
	closers []io.Closer
	mf      *multipart.Form
}

func (f *form) has(key string) bool {
	_, ok := f.values[key]
	return ok
}

func (f *form) get(key string) string {
	if v := f.values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (f *form) optional(key string) *string {
	if !f.has(key) {
		return nil
	}
	v := f.get(key)
	return &v
}

// list reads a repeated field. A single value holding a JSON array is expanded.
func (f *form) list(key string) []string {
	var out []string
	for _, v := range f.values[key] {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(v), &arr); err == nil {
				out = append(out, arr...)
				continue
			}
		}
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (f *form) Close() {
	for _, c := range f.closers {
		_ = c.Close()
	}
	if f.mf != nil {
		_ = f.mf.RemoveAll()
	}
}

// readForm parses a multipart or urlencoded body and collects image files from fileFields.
// Files are sniffed, so only real jpg, png, webp and gif content is accepted.
func readForm(w http.ResponseWriter, r *http.Request, limits config.UploadConfig, fileFields ...string) (*form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFileBytes*int64(limits.MaxFiles)+multipartMemory)

	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		if err := r.ParseForm(); err != nil {
			return nil, &services.Error{Kind: services.ErrValidation, Message: "invalid form body"}
		}
		return &form{values: r.PostForm}, nil
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, fmt.Errorf("%w: request body is too large", storage.ErrFileTooLarge)
		}
		return nil, &services.Error{Kind: services.ErrValidation, Message: "invalid multipart body"}
	}

	f := &form{values: r.MultipartForm.Value, mf: r.MultipartForm}
	var headers []*multipart.FileHeader
	for _, field := range fileFields {
		headers = append(headers, r.MultipartForm.File[field]...)
	}
	if len(headers) > limits.MaxFiles {
		f.Close()
		return nil, &services.Error{Kind: services.ErrValidation, Message: fmt.Sprintf("at most %d files can be uploaded at once", limits.MaxFiles)}
	}

	for _, h := range headers {
		file, err := openImage(h, limits.MaxFileBytes)
		if err != nil {
			f.Close()
			return nil, err
		}
		f.closers = append(f.closers, file.Reader.(io.Closer))
		f.files = append(f.files, file)
	}
	return f, nil
}

func openImage(h *multipart.FileHeader, maxBytes int64) (storage.File, error) {
	if h.Size > maxBytes {
		return storage.File{}, fmt.Errorf("%w: %s is larger than %d bytes", storage.ErrFileTooLarge, h.Filename, maxBytes)
	}

	file, err := h.Open()
	if err != nil {
		log.Error().Err(err).Str("file", h.Filename).Msg("Failed to open uploaded file")
		return storage.File{}, &services.Error{Kind: services.ErrValidation, Message: "could not read uploaded file " + h.Filename}
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		_ = file.Close()
		return storage.File{}, &services.Error{Kind: services.ErrValidation, Message: "could not read uploaded file " + h.Filename}
	}
	contentType := http.DetectContentType(head[:n])
	if _, err := storage.ExtensionFor(contentType); err != nil {
		_ = file.Close()
		return storage.File{}, err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		_ = file.Close()
		return storage.File{}, fmt.Errorf("failed to rewind uploaded file: %w", err)
	}

	return storage.File{Name: h.Filename, ContentType: contentType, Size: h.Size, Reader: file}, nil
}
