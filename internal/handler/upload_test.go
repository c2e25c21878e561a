package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multichat/internal/model"
	"multichat/internal/service"
	"multichat/internal/storage"
)

func newUploadRouter(t *testing.T) (*gin.Engine, *storage.MemoryStorage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStorage()
	h := NewUploadHandler(store, service.NewImageService(), service.NewCSVService(), service.NewDocumentService(), t.TempDir())

	router := gin.New()
	router.POST("/upload-image", h.UploadImage)
	router.DELETE("/upload-image/:session_id", h.DeleteImage)
	router.POST("/upload-csv", h.UploadCSV)
	router.POST("/upload-csv/url", h.UploadCSVFromURL)
	router.DELETE("/upload-csv/:session_id", h.DeleteCSV)
	router.POST("/upload-document", h.UploadDocument)
	router.GET("/upload-document/:session_id/info", h.DocumentInfo)
	router.DELETE("/upload-document/:session_id", h.DeleteDocument)

	return router, store
}

func doMultipart(t *testing.T, router *gin.Engine, path, sessionID, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if sessionID != "" {
		require.NoError(t, mw.WriteField("session_id", sessionID))
	}

	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestUploadCSVEndpoint(t *testing.T) {
	router, store := newUploadRouter(t)

	w := doMultipart(t, router, "/upload-csv", "s1", "data.csv", []byte("name,age\nalice,30\n"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp model.CSVUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "uploaded", resp.Status)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, 1, resp.Rows)
	assert.Equal(t, []string{"name", "age"}, resp.Columns)

	rec, err := store.GetFile("s1", model.FileCSV)
	require.NoError(t, err)
	assert.Equal(t, "data.csv", rec.Filename)
}

func TestUploadCSVReplacesSlot(t *testing.T) {
	router, store := newUploadRouter(t)

	w := doMultipart(t, router, "/upload-csv", "s1", "first.csv", []byte("a\n1\n"))
	require.Equal(t, http.StatusOK, w.Code)

	w = doMultipart(t, router, "/upload-csv", "s1", "second.csv", []byte("b\n2\n3\n"))
	require.Equal(t, http.StatusOK, w.Code)

	rec, err := store.GetFile("s1", model.FileCSV)
	require.NoError(t, err)
	assert.Equal(t, "second.csv", rec.Filename)
	assert.Equal(t, 2, rec.Rows)

	files, err := store.Files("s1")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestUploadCSVMintsSessionWhenMissing(t *testing.T) {
	router, _ := newUploadRouter(t)

	w := doMultipart(t, router, "/upload-csv", "", "data.csv", []byte("a\n1\n"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.CSVUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
}

func TestUploadCSVMissingFile(t *testing.T) {
	router, _ := newUploadRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/upload-csv", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadCSVFromURLEndpoint(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x,y\n1,2\n"))
	}))
	defer remote.Close()

	router, store := newUploadRouter(t)

	body, _ := json.Marshal(map[string]string{
		"session_id": "s1",
		"url":        remote.URL + "/points.csv",
	})
	req := httptest.NewRequest(http.MethodPost, "/upload-csv/url", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	rec, err := store.GetFile("s1", model.FileCSV)
	require.NoError(t, err)
	assert.Equal(t, "points.csv", rec.Filename)
}

func TestUploadImageRejectsInvalidBytes(t *testing.T) {
	router, store := newUploadRouter(t)

	w := doMultipart(t, router, "/upload-image", "s1", "fake.png", []byte("not an image"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	_, err := store.GetFile("s1", model.FileImage)
	assert.ErrorIs(t, err, storage.ErrFileNotFound)
}

func TestUploadDocumentEndpoint(t *testing.T) {
	router, store := newUploadRouter(t)

	w := doMultipart(t, router, "/upload-document", "s1", "notes.txt", []byte("hello world document"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp model.DocumentUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "uploaded", resp.Status)
	assert.Equal(t, 3, resp.Metadata.WordCount)
	assert.Equal(t, "hello world document", resp.Metadata.Preview)

	rec, err := store.GetFile("s1", model.FileDocument)
	require.NoError(t, err)
	assert.Equal(t, "hello world document", rec.Text)
}

func TestUploadDocumentRejectsUnsupportedType(t *testing.T) {
	router, _ := newUploadRouter(t)

	w := doMultipart(t, router, "/upload-document", "s1", "song.mp3", []byte("audio"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unsupported document type", resp.Error)
}

func TestDocumentInfoEndpoint(t *testing.T) {
	router, _ := newUploadRouter(t)

	w := doMultipart(t, router, "/upload-document", "s1", "notes.txt", []byte("some words here"))
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/upload-document/s1/info", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.DocumentUploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "notes.txt", resp.Filename)
	assert.Equal(t, 3, resp.Metadata.WordCount)
}

func TestDocumentInfoNotFound(t *testing.T) {
	router, _ := newUploadRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/upload-document/empty/info", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteSlotEndpoint(t *testing.T) {
	router, store := newUploadRouter(t)

	w := doMultipart(t, router, "/upload-csv", "s1", "data.csv", []byte("a\n1\n"))
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodDelete, "/upload-csv/s1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.DeleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "deleted", resp.Status)

	_, err := store.GetFile("s1", model.FileCSV)
	assert.ErrorIs(t, err, storage.ErrFileNotFound)

	// 再删一次返回 not_found
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/upload-csv/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Status)
}

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/health", NewHealthHandler("memory", true).Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "memory", resp.Components["storage"])
	assert.Equal(t, "configured", resp.Components["model"])
}
