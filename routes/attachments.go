package routes

import (
	"errors"
	"net/http"
	"strings"

	"taskdeck/storage"

	"github.com/gin-gonic/gin"
)

// RegisterAttachmentRoutes serves stored attachment blobs. Keys are owner
// scoped (tasks/{userID}/...), so ownership falls out of a prefix check.
func RegisterAttachmentRoutes(group *gin.RouterGroup, store storage.AttachmentStore) {
	group.GET("/attachments/*key", func(c *gin.Context) { DownloadAttachment(c, store) })
}

func DownloadAttachment(c *gin.Context, store storage.AttachmentStore) {
	userID, ok := authenticatedUser(c)
	if !ok {
		return
	}

	key := strings.TrimPrefix(c.Param("key"), "/")
	if !strings.HasPrefix(key, "tasks/"+userID.String()+"/") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to access this attachment"})
		return
	}

	data, contentType, err := store.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Attachment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, contentType, data)
}
