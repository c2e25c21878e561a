package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"multichat/internal/model"
	"multichat/internal/service"
	"multichat/internal/storage"
	"multichat/pkg/logger"
)

// UploadHandler 处理三类文件的上传与删除；每类每会话一个槽位，
// 重复上传覆盖旧槽位
type UploadHandler struct {
	store     storage.Store
	images    *service.ImageService
	csvs      *service.CSVService
	documents *service.DocumentService
	uploadDir string
}

func NewUploadHandler(store storage.Store, images *service.ImageService, csvs *service.CSVService, documents *service.DocumentService, uploadDir string) *UploadHandler {
	return &UploadHandler{
		store:     store,
		images:    images,
		csvs:      csvs,
		documents: documents,
		uploadDir: uploadDir,
	}
}

// saveUpload 把 multipart 文件保存到上传目录并返回落盘路径
func (h *UploadHandler) saveUpload(file *multipart.FileHeader, subdir, sessionID string) (string, error) {
	dir := filepath.Join(h.uploadDir, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	fileID := uuid.NewString()[:8]
	path := filepath.Join(dir, fmt.Sprintf("%s_%s_%s", sessionID, fileID, filepath.Base(file.Filename)))

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := dst.ReadFrom(src); err != nil {
		os.Remove(path)
		return "", err
	}

	return path, nil
}

// formSession 读取表单里的 session_id，缺省时生成新会话
func formSession(c *gin.Context) string {
	if id := c.PostForm("session_id"); id != "" {
		return id
	}
	return uuid.NewString()
}

// replaceSlot 覆盖会话槽位，并清理被替换文件的落盘副本
func (h *UploadHandler) replaceSlot(sessionID string, rec *model.FileRecord) error {
	old, err := h.store.DeleteFile(sessionID, rec.Kind)
	if err != nil {
		return err
	}
	if old != nil && old.Path != "" && old.Path != rec.Path {
		if err := os.Remove(old.Path); err != nil && !os.IsNotExist(err) {
			logger.Warnf("旧文件清理失败 %s: %v", old.Path, err)
		}
	}

	return h.store.PutFile(sessionID, rec)
}

// UploadImage 处理 POST /upload-image
func (h *UploadHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewError("file is required", err.Error()))
		return
	}
	sessionID := formSession(c)

	path, err := h.saveUpload(file, "images", sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.NewError("failed to save file", err.Error()))
		return
	}

	rec, err := h.images.Validate(path, file.Filename)
	if err != nil {
		os.Remove(path)
		c.JSON(http.StatusBadRequest, model.NewError("image validation failed", err.Error()))
		return
	}

	if err := h.replaceSlot(sessionID, rec); err != nil {
		os.Remove(path)
		c.JSON(http.StatusInternalServerError, model.NewError("failed to store file", err.Error()))
		return
	}

	c.JSON(http.StatusOK, model.ImageUploadResponse{
		Status:    "uploaded",
		SessionID: sessionID,
		Filename:  rec.Filename,
		Format:    rec.Format,
		Dimensions: model.Dimensions{
			Width:  rec.Width,
			Height: rec.Height,
		},
		SizeBytes:  rec.SizeBytes,
		PreviewURL: "/uploads/images/" + filepath.Base(rec.Path),
	})
}

// DeleteImage 处理 DELETE /upload-image/:session_id
func (h *UploadHandler) DeleteImage(c *gin.Context) {
	h.deleteSlot(c, model.FileImage)
}

// UploadCSV 处理 POST /upload-csv
func (h *UploadHandler) UploadCSV(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewError("file is required", err.Error()))
		return
	}
	sessionID := formSession(c)

	path, err := h.saveUpload(file, "csv", sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.NewError("failed to save file", err.Error()))
		return
	}

	rec, err := h.csvs.Parse(path, file.Filename)
	if err != nil {
		os.Remove(path)
		c.JSON(http.StatusBadRequest, model.NewError("csv parsing failed", err.Error()))
		return
	}

	if err := h.replaceSlot(sessionID, rec); err != nil {
		os.Remove(path)
		c.JSON(http.StatusInternalServerError, model.NewError("failed to store file", err.Error()))
		return
	}

	c.JSON(http.StatusOK, csvResponse(sessionID, rec))
}

// UploadCSVFromURL 处理 POST /upload-csv/url
func (h *UploadHandler) UploadCSVFromURL(c *gin.Context) {
	var req model.CSVURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewError("invalid request", err.Error()))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	rec, err := h.csvs.LoadFromURL(req.URL)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewError("failed to load csv from url", err.Error()))
		return
	}

	if err := h.replaceSlot(sessionID, rec); err != nil {
		c.JSON(http.StatusInternalServerError, model.NewError("failed to store file", err.Error()))
		return
	}

	c.JSON(http.StatusOK, csvResponse(sessionID, rec))
}

func csvResponse(sessionID string, rec *model.FileRecord) model.CSVUploadResponse {
	return model.CSVUploadResponse{
		Status:    "uploaded",
		SessionID: sessionID,
		Filename:  rec.Filename,
		Rows:      rec.Rows,
		Columns:   rec.Columns,
		Sample:    rec.Sample,
	}
}

// DeleteCSV 处理 DELETE /upload-csv/:session_id
func (h *UploadHandler) DeleteCSV(c *gin.Context) {
	h.deleteSlot(c, model.FileCSV)
}

// UploadDocument 处理 POST /upload-document
func (h *UploadHandler) UploadDocument(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewError("file is required", err.Error()))
		return
	}

	if !h.documents.AllowedExt(file.Filename) {
		c.JSON(http.StatusBadRequest, model.NewError("unsupported document type",
			"allowed: .pdf .docx .txt .md"))
		return
	}

	sessionID := formSession(c)

	path, err := h.saveUpload(file, "documents", sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.NewError("failed to save file", err.Error()))
		return
	}

	rec, err := h.documents.Parse(path, file.Filename)
	if err != nil {
		os.Remove(path)
		c.JSON(http.StatusBadRequest, model.NewError("document parsing failed", err.Error()))
		return
	}

	if err := h.replaceSlot(sessionID, rec); err != nil {
		os.Remove(path)
		c.JSON(http.StatusInternalServerError, model.NewError("failed to store file", err.Error()))
		return
	}

	c.JSON(http.StatusOK, model.DocumentUploadResponse{
		Status:    "uploaded",
		SessionID: sessionID,
		Filename:  rec.Filename,
		FileType:  "document",
		SizeBytes: rec.SizeBytes,
		Metadata: model.DocumentMetadata{
			CharCount: rec.CharCount,
			WordCount: rec.WordCount,
			Preview:   rec.Preview,
		},
	})
}

// DocumentInfo 处理 GET /upload-document/:session_id/info
func (h *UploadHandler) DocumentInfo(c *gin.Context) {
	sessionID := c.Param("session_id")

	rec, err := h.store.GetFile(sessionID, model.FileDocument)
	if err == storage.ErrFileNotFound {
		c.JSON(http.StatusNotFound, model.NewError("no document uploaded", ""))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.NewError("failed to load document info", err.Error()))
		return
	}

	c.JSON(http.StatusOK, model.DocumentUploadResponse{
		Status:    "uploaded",
		SessionID: sessionID,
		Filename:  rec.Filename,
		FileType:  "document",
		SizeBytes: rec.SizeBytes,
		Metadata: model.DocumentMetadata{
			CharCount: rec.CharCount,
			WordCount: rec.WordCount,
			Preview:   rec.Preview,
		},
	})
}

// DeleteDocument 处理 DELETE /upload-document/:session_id
func (h *UploadHandler) DeleteDocument(c *gin.Context) {
	h.deleteSlot(c, model.FileDocument)
}

func (h *UploadHandler) deleteSlot(c *gin.Context, kind model.FileKind) {
	sessionID := c.Param("session_id")

	rec, err := h.store.DeleteFile(sessionID, kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.NewError("failed to delete file", err.Error()))
		return
	}

	status := "deleted"
	if rec == nil {
		status = "not_found"
	} else if rec.Path != "" {
		if err := os.Remove(rec.Path); err != nil && !os.IsNotExist(err) {
			logger.Warnf("文件清理失败 %s: %v", rec.Path, err)
		}
	}

	c.JSON(http.StatusOK, model.DeleteResponse{
		Status:    status,
		SessionID: sessionID,
	})
}
