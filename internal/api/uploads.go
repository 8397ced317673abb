package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tastefeed/server/internal/errs"
	"github.com/tastefeed/server/internal/storage"
)

// multipartOverhead leaves room for the form envelope around the file
const multipartOverhead = 64 << 10

// receiveImage stores the "image" form file and returns its key and URL.
// The content type is sniffed from the bytes, not taken from the client.
func (r *Router) receiveImage(c *gin.Context, op, prefix string) (key, url string, err error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, r.opts.MaxUploadBytes+multipartOverhead)

	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", "", errs.Validation(op, "image exceeds %d bytes", r.opts.MaxUploadBytes)
		}
		return "", "", errs.Validation(op, "image file is required")
	}
	if fh.Size > r.opts.MaxUploadBytes {
		return "", "", errs.Validation(op, "image exceeds %d bytes", r.opts.MaxUploadBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return "", "", errs.Internal(op, err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", "", errs.Internal(op, err)
	}
	contentType := http.DetectContentType(head[:n])
	ext, ok := storage.Extension(contentType)
	if !ok {
		return "", "", errs.Validation(op, "unsupported image type %s", contentType)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", "", errs.Internal(op, err)
	}

	key = storage.ObjectKey(prefix, ext, time.Now())
	url, err = r.images.Upload(c.Request.Context(), key, f, fh.Size, contentType)
	if err != nil {
		return "", "", errs.Internal(op, err)
	}
	return key, url, nil
}

// discardImage removes an upload whose owner update failed
func (r *Router) discardImage(c *gin.Context, key string) {
	if err := r.images.Delete(c.Request.Context(), key); err != nil {
		r.logger.Warn("Failed to remove orphaned upload", zap.String("key", key), zap.Error(err))
	}
}

func (r *Router) uploadPostImage(c *gin.Context) {
	const op = "api.uploadPostImage"
	id, err := pathID(c, op, "id")
	if err != nil {
		fail(c, err)
		return
	}
	key, url, err := r.receiveImage(c, op, "posts")
	if err != nil {
		fail(c, err)
		return
	}
	if _, err := r.services.Posts.SetImage(c.Request.Context(), id, actorFrom(c).ID, url); err != nil {
		r.discardImage(c, key)
		fail(c, err)
		return
	}
	r.respondPost(c, http.StatusOK, id)
}

func (r *Router) uploadAvatar(c *gin.Context) {
	const op = "api.uploadAvatar"
	key, url, err := r.receiveImage(c, op, "avatars")
	if err != nil {
		fail(c, err)
		return
	}
	profile, err := r.services.Users.SetAvatar(c.Request.Context(), actorFrom(c).ID, url)
	if err != nil {
		r.discardImage(c, key)
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// serveMemory serves uploads kept by the in-memory image store
func serveMemory(mem *storage.Memory) gin.HandlerFunc {
	return func(c *gin.Context) {
		obj, ok := mem.Get(strings.TrimPrefix(c.Param("key"), "/"))
		if !ok {
			fail(c, errs.NotFound("api.serveUpload", "upload not found"))
			return
		}
		c.Header("Cache-Control", "public, max-age=86400")
		c.Data(http.StatusOK, obj.ContentType, obj.Data)
	}
}
