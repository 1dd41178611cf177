package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned when a key does not resolve to a stored blob.
var ErrObjectNotFound = errors.New("object not found")

// AttachmentURLPrefix is the API path attachments are served under. Put
// returns URLs below this prefix so a stored record always points at a
// retrievable location.
const AttachmentURLPrefix = "/api/v1/attachments"

// AttachmentStore is the blob store behind task attachments. Records keep
// only the key and the URL; the bytes live here, out of band.
type AttachmentStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
}

// AttachmentKey builds the store key for a task's file, scoped by owner so
// ownership can be checked from the key alone.
func AttachmentKey(userID, taskID uuid.UUID, filename string) string {
	return fmt.Sprintf("tasks/%s/%s/%s", userID, taskID, filename)
}

// AttachmentURL maps a store key to the API path it is served from.
func AttachmentURL(key string) string {
	return AttachmentURLPrefix + "/" + key
}
