package handlers

import (
	"io"
	"net/http"
	"strconv"

	"furniture-miniapp/api/middleware"
	"furniture-miniapp/internal/common"
	"furniture-miniapp/internal/storage"
	"furniture-miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
)

// MaxImageSize bounds uploaded product images.
const MaxImageSize = 10 << 20

// StorageHandler exposes product image management to administrators.
type StorageHandler struct {
	storage storage.Service
	logger  *logger.Logger
}

func NewStorageHandler(svc storage.Service, logger *logger.Logger) *StorageHandler {
	return &StorageHandler{storage: svc, logger: logger}
}

// UploadProductImage stores the multipart "file" field under the
// product's folder.
func (h *StorageHandler) UploadProductImage(c *gin.Context) {
	log := middleware.LoggerFrom(c, h.logger)

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || productID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImageSize+1<<20)
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > MaxImageSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is unreadable"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is unreadable"})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	img, err := h.storage.UploadProductImage(c.Request.Context(), productID, file.Filename, data, contentType)
	if err != nil {
		if common.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Errorw("Image upload failed", "product_id", productID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}

	log.Infow("Product image uploaded", "product_id", productID, "path", img.Path, "size", len(data))
	c.JSON(http.StatusCreated, img)
}

// DeleteObjects removes the objects listed in {"paths": [...]}.
func (h *StorageHandler) DeleteObjects(c *gin.Context) {
	var request struct {
		Paths []string `json:"paths" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	deleted, err := h.storage.DeleteImages(c.Request.Context(), request.Paths)
	if err != nil {
		middleware.LoggerFrom(c, h.logger).Errorw("Object removal failed", "paths", request.Paths, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// ListObjects lists objects in the "folder" query parameter.
func (h *StorageHandler) ListObjects(c *gin.Context) {
	folder := c.Query("folder")
	objects, err := h.storage.ListFiles(c.Request.Context(), folder)
	if err != nil {
		middleware.LoggerFrom(c, h.logger).Errorw("Object listing failed", "folder", folder, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "list failed"})
		return
	}

	items := make([]gin.H, 0, len(objects))
	for _, obj := range objects {
		items = append(items, gin.H{
			"object": obj,
			"url":    h.storage.ImageURL(joinFolder(folder, obj.Name)),
		})
	}
	c.JSON(http.StatusOK, gin.H{"folder": folder, "objects": items})
}

func joinFolder(folder, name string) string {
	if folder == "" {
		return name
	}
	if folder[len(folder)-1] == '/' {
		return folder + name
	}
	return folder + "/" + name
}
