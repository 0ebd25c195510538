package main

import (
	"bytes"
	"image/jpeg"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/activity_backend/config"
	"bitbucket.org/mmdatafocus/activity_backend/models"
	"bitbucket.org/mmdatafocus/activity_backend/utils"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadSizeBytes int64 = 5 * 1024 * 1024

const thumbnailSize = 200

var imageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

var attachmentMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"image/jpeg": true,
	"image/png":  true,
}

// uploadReportDocumentHandler accepts a multipart "file", stores it in GCS
// and records it against the draft report. Images also get a thumbnail.
func uploadReportDocumentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		reportId, ok := idParam(c)
		if !ok {
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if fileHeader.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 5MB limit"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			writeError(c, utils.NewInternalError(err))
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			writeError(c, utils.NewInternalError(err))
			return
		}

		mimeType := fileHeader.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = http.DetectContentType(content)
		}
		if !attachmentMimeTypes[mimeType] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
			return
		}

		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		objectKey := path.Join("reports", strconv.Itoa(reportId), uuid.NewString()+ext)

		ctx := c.Request.Context()
		fileUrl, err := utils.UploadFileToGCS(ctx, objectKey, content, mimeType)
		if err != nil {
			config.LogError(logger, "uploads.go", "uploadReportDocumentHandler", "upload failed", objectKey, err)
			writeError(c, utils.NewInternalError(err))
			return
		}

		thumbnailUrl := ""
		if imageMimeTypes[mimeType] {
			thumbnailUrl, err = uploadThumbnail(c, content, objectKey)
			if err != nil {
				// the original upload succeeded; a missing thumbnail is tolerable
				config.LogError(logger, "uploads.go", "uploadReportDocumentHandler", "thumbnail failed", objectKey, err)
			}
		}

		document, err := models.AddReportDocument(ctx, &models.NewDocument{
			ReportId:     reportId,
			Name:         fileHeader.Filename,
			FileUrl:      fileUrl,
			ThumbnailUrl: thumbnailUrl,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, document)
	}
}

func uploadThumbnail(c *gin.Context, content []byte, objectKey string) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	thumb := imaging.Thumbnail(img, thumbnailSize, thumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return "", err
	}

	thumbKey := strings.TrimSuffix(objectKey, filepath.Ext(objectKey)) + "_thumb.jpg"
	return utils.UploadFileToGCS(c.Request.Context(), thumbKey, buf.Bytes(), "image/jpeg")
}
