package chat

import (
	"fmt"
	"strings"

	"nebulachat/infrastructure"
)

type AttachmentKind int

const (
	AttachmentImage AttachmentKind = iota + 1
	AttachmentFile
)

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var fileTypes = map[string]bool{
	"application/pdf":    true,
	"text/plain":         true,
	"application/zip":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// AttachmentPolicy bounds what may be referenced from a message.
type AttachmentPolicy struct {
	MaxImageBytes int64
	MaxFileBytes  int64
}

// ValidateAttachment reports whether a is an allowed image or file.
func (p AttachmentPolicy) ValidateAttachment(a Attachment) (AttachmentKind, error) {
	if strings.TrimSpace(a.Ref) == "" {
		return 0, fmt.Errorf("%w: attachment reference is required", infrastructure.ErrInvalidInput)
	}
	if a.Size <= 0 {
		return 0, fmt.Errorf("%w: attachment size must be positive", infrastructure.ErrInvalidInput)
	}

	contentType := strings.ToLower(strings.TrimSpace(a.ContentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}

	switch {
	case imageTypes[contentType]:
		if a.Size > p.MaxImageBytes {
			return 0, fmt.Errorf("%w: images may be at most %d bytes", infrastructure.ErrInvalidInput, p.MaxImageBytes)
		}
		return AttachmentImage, nil
	case fileTypes[contentType]:
		if a.Size > p.MaxFileBytes {
			return 0, fmt.Errorf("%w: files may be at most %d bytes", infrastructure.ErrInvalidInput, p.MaxFileBytes)
		}
		return AttachmentFile, nil
	}
	return 0, fmt.Errorf("%w: attachment type %q is not allowed", infrastructure.ErrInvalidInput, a.ContentType)
}
