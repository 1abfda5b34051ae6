package upload

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, operations, fileMap string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("operations", operations))
	require.NoError(t, w.WriteField("map", fileMap))
	for key, data := range files {
		part, err := w.CreateFormFile(key, key+".png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestMiddlewareRewritesMultipartRequest(t *testing.T) {
	operations := `{"query":"mutation($image: Upload) { createBlog(image: $image) { id } }","variables":{"image":null}}`
	fileMap := `{"0":["variables.image"]}`
	body, contentType := multipartBody(t, operations, fileMap, map[string][]byte{
		"0": {0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a},
	})

	var captured struct {
		body  []byte
		files map[string]*File
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured.body = data
		captured.files = FromContext(r.Context())
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	})

	req := httptest.NewRequest(http.MethodPost, "/graphql", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	Middleware(1<<20)(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var rewritten map[string]interface{}
	require.NoError(t, json.Unmarshal(captured.body, &rewritten))
	variables := rewritten["variables"].(map[string]interface{})
	token, ok := variables["image"].(string)
	require.True(t, ok)

	require.Len(t, captured.files, 1)
	file := captured.files[token]
	require.NotNil(t, file)
	assert.Equal(t, "0.png", file.Filename)
	assert.True(t, file.IsImage())
}

func TestMiddlewareRejectsEmptyFile(t *testing.T) {
	operations := `{"query":"mutation($image: Upload) { x }","variables":{"image":null}}`
	fileMap := `{"0":["variables.image"]}`
	body, contentType := multipartBody(t, operations, fileMap, map[string][]byte{"0": {}})

	req := httptest.NewRequest(http.MethodPost, "/graphql", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	called := false
	Middleware(1<<20)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}

func TestMiddlewarePassesThroughJSONRequests(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(`{"query":"{ blogs { id } }"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	called := false
	Middleware(1<<20)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		data, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(data), "blogs")
	})).ServeHTTP(rec, req)

	assert.True(t, called)
}

func TestResolveIgnoresNonUploadValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.Nil(t, Resolve(req.Context(), "just a string"))
	assert.Nil(t, Resolve(req.Context(), 42))
	assert.Nil(t, Resolve(req.Context(), nil))
}

func TestSetPathListIndex(t *testing.T) {
	doc := map[string]interface{}{
		"variables": map[string]interface{}{
			"files": []interface{}{nil, nil},
		},
	}
	require.NoError(t, setPath(doc, "variables.files.1", "__upload:0"))
	files := doc["variables"].(map[string]interface{})["files"].([]interface{})
	assert.Equal(t, "__upload:0", files[1])

	assert.Error(t, setPath(doc, "variables.files.9", "__upload:0"))
	assert.Error(t, setPath(doc, "variables.missing.x", "__upload:0"))
}
