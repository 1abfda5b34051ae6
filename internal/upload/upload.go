// Package upload implements the GraphQL multipart request convention.
// The middleware drains each uploaded file fully, replaces the mapped
// variables with lookup tokens, and rewrites the request into a plain
// JSON GraphQL request so the downstream handler needs no multipart
// awareness. Resolvers recover the bytes through Resolve.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const tokenPrefix = "__upload:"

// ErrEmptyFile is returned when an uploaded part contains no bytes.
var ErrEmptyFile = errors.New("uploaded file is empty")

// File is one fully drained upload part.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IsImage reports whether the file content sniffs as an image format.
func (f *File) IsImage() bool {
	return strings.HasPrefix(http.DetectContentType(f.Data), "image/")
}

type contextKey struct{}

// FromContext returns the upload set attached by the middleware.
func FromContext(ctx context.Context) map[string]*File {
	files, _ := ctx.Value(contextKey{}).(map[string]*File)
	return files
}

// Resolve maps a tokenized argument value back to its file. Non-upload
// values resolve to nil.
func Resolve(ctx context.Context, value interface{}) *File {
	token, ok := value.(string)
	if !ok || !strings.HasPrefix(token, tokenPrefix) {
		return nil
	}
	return FromContext(ctx)[token]
}

// Middleware rewrites multipart GraphQL requests into JSON ones.
// Non-multipart requests pass through untouched.
func Middleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			contentType := r.Header.Get("Content-Type")
			if r.Method != http.MethodPost || !strings.HasPrefix(contentType, "multipart/form-data") {
				next.ServeHTTP(w, r)
				return
			}

			rewritten, files, err := parseMultipartRequest(r, maxBytes)
			if err != nil {
				status := http.StatusBadRequest
				if errors.Is(err, errTooLarge) {
					status = http.StatusRequestEntityTooLarge
				}
				http.Error(w, err.Error(), status)
				return
			}

			ctx := context.WithValue(r.Context(), contextKey{}, files)
			r = r.WithContext(ctx)
			r.Body = io.NopCloser(bytes.NewReader(rewritten))
			r.ContentLength = int64(len(rewritten))
			r.Header.Set("Content-Type", "application/json")

			next.ServeHTTP(w, r)
		})
	}
}

var errTooLarge = errors.New("upload exceeds size limit")

func parseMultipartRequest(r *http.Request, maxBytes int64) ([]byte, map[string]*File, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		if strings.Contains(err.Error(), "too large") {
			return nil, nil, errTooLarge
		}
		return nil, nil, fmt.Errorf("parse multipart form: %w", err)
	}

	operationsRaw := r.FormValue("operations")
	if operationsRaw == "" {
		return nil, nil, errors.New("missing operations field")
	}
	var operations map[string]interface{}
	if err := json.Unmarshal([]byte(operationsRaw), &operations); err != nil {
		return nil, nil, fmt.Errorf("decode operations: %w", err)
	}

	mapRaw := r.FormValue("map")
	if mapRaw == "" {
		return nil, nil, errors.New("missing map field")
	}
	var fileMap map[string][]string
	if err := json.Unmarshal([]byte(mapRaw), &fileMap); err != nil {
		return nil, nil, fmt.Errorf("decode map: %w", err)
	}

	files := make(map[string]*File, len(fileMap))
	for key, paths := range fileMap {
		file, header, err := r.FormFile(key)
		if err != nil {
			return nil, nil, fmt.Errorf("missing file part %q: %w", key, err)
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("read file part %q: %w", key, err)
		}
		if len(data) == 0 {
			return nil, nil, ErrEmptyFile
		}
		if maxBytes > 0 && int64(len(data)) > maxBytes {
			return nil, nil, errTooLarge
		}

		token := tokenPrefix + key
		files[token] = &File{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
		for _, path := range paths {
			if err := setPath(operations, path, token); err != nil {
				return nil, nil, err
			}
		}
	}

	rewritten, err := json.Marshal(operations)
	if err != nil {
		return nil, nil, fmt.Errorf("encode rewritten operations: %w", err)
	}
	return rewritten, files, nil
}

// setPath writes a value at a dotted path ("variables.image" or
// "variables.files.0") inside the decoded operations document.
func setPath(doc map[string]interface{}, path, value string) error {
	segments := strings.Split(path, ".")
	if len(segments) < 2 {
		return fmt.Errorf("invalid file map path %q", path)
	}

	var current interface{} = doc
	for i, segment := range segments {
		last := i == len(segments)-1
		switch node := current.(type) {
		case map[string]interface{}:
			if last {
				node[segment] = value
				return nil
			}
			next, ok := node[segment]
			if !ok {
				return fmt.Errorf("file map path %q not present in operations", path)
			}
			current = next
		case []interface{}:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return fmt.Errorf("invalid list index in file map path %q", path)
			}
			if last {
				node[idx] = value
				return nil
			}
			current = node[idx]
		default:
			return fmt.Errorf("file map path %q traverses a scalar", path)
		}
	}
	return fmt.Errorf("file map path %q not settable", path)
}
