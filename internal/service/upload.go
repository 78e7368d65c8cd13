package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/parentingo/parentingo/internal/logging"
)

// MaxUploadSize is the largest image accepted for posts and avatars.
const MaxUploadSize = 10 << 20

// MsgFileTooLarge is reported for uploads over MaxUploadSize.
const MsgFileTooLarge = "File too large (10MB max)"

// sniffLen is how much of a body http.DetectContentType looks at.
const sniffLen = 512

// Upload is an image attached to a request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// checkUpload enforces the size limit and sniffs the leading bytes of the
// body; the declared content type is replaced by the detected one.
func checkUpload(up *Upload, field string) error {
	if up.Size > MaxUploadSize {
		return apperror.TooLarge(MsgFileTooLarge)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(up.Body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("reading upload: %w", err)
	}
	head = head[:n]
	up.Body = io.MultiReader(bytes.NewReader(head), up.Body)

	detected := http.DetectContentType(head)
	if !strings.HasPrefix(detected, "image/") {
		return apperror.ValidationFields(msgInvalidInput, map[string]string{field: "Only image files are allowed"})
	}
	up.ContentType = detected
	return nil
}

// storeImage uploads up under prefix and returns its URL.
func (b base) storeImage(ctx context.Context, prefix string, up *Upload) (string, error) {
	key := prefix + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(up.Filename))
	url, err := b.blobs.Put(ctx, key, io.LimitReader(up.Body, MaxUploadSize+1), up.ContentType)
	if err != nil {
		return "", fmt.Errorf("storing image: %w", err)
	}
	return url, nil
}

// dropImage removes a stored image. The owning document is already gone or
// updated, so a failure leaves an orphan blob and is only logged.
func (b base) dropImage(ctx context.Context, url string) {
	if err := b.blobs.Delete(ctx, url); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("url", url).Warn("failed to delete image")
	}
}
