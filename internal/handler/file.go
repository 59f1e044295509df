package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/media-vault/internal/model"
	"github.com/iliyamo/media-vault/internal/queue"
	"github.com/iliyamo/media-vault/internal/repository"
	"github.com/iliyamo/media-vault/internal/service"
	"github.com/iliyamo/media-vault/internal/storage"
)

// Upload constraints, matching the service's contract: pictures only,
// at most 20 MiB.
const maxUploadSize = 20 << 20

var acceptedMimetypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// FileHandler bundles dependencies for the file CRUD endpoints. Events is
// optional; when nil no events are published.
type FileHandler struct {
	Files  repository.FileStore
	Blobs  storage.BlobStore
	Events service.EventPublisher
}

func NewFileHandler(files repository.FileStore, blobs storage.BlobStore, events service.EventPublisher) *FileHandler {
	return &FileHandler{Files: files, Blobs: blobs, Events: events}
}

// publish emits a file event, ignoring broker failures so they never fail
// the request.
func (h *FileHandler) publish(ctx context.Context, action string, f model.File) {
	if h.Events == nil {
		return
	}
	_ = h.Events.PublishFileEvent(ctx, queue.FileEvent{
		Action:     action,
		FileID:     f.ID,
		Name:       f.Name,
		Mimetype:   f.Mimetype,
		Size:       f.Size,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// List returns one page of file records plus the total count. Page size
// defaults to 10 and page number to 1.
func (h *FileHandler) List(c echo.Context) error {
	listSize, _ := strconv.Atoi(c.QueryParam("list_size"))
	if listSize <= 0 {
		listSize = 10
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	files, total, err := h.Files.List(ctx, listSize, (page-1)*listSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": files, "total": total})
}

// checkUpload validates the multipart file header against the upload
// constraints and returns the sanitized filename.
func checkUpload(fh *multipart.FileHeader) (name string, errMsg string) {
	if fh.Size > maxUploadSize {
		return "", "file is too large (max 20 MiB)"
	}
	if !acceptedMimetypes[fh.Header.Get("Content-Type")] {
		return "", "please upload a picture (PNG or JPEG)"
	}
	// Strip any directory components a client may have sent.
	name = fh.Filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "", "please upload a file"
	}
	return name, ""
}

// extension returns the substring after the last dot of a filename, empty
// when there is no dot.
func extension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return ""
}

// Upload stores the blob of the multipart "file" field on disk and inserts
// its metadata record. Nothing is written for rejected uploads, and the
// blob is removed again if the record insert fails.
func (h *FileHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "please upload a file"})
	}
	name, errMsg := checkUpload(fh)
	if errMsg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": errMsg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	if _, err := h.Files.GetByName(ctx, name); err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "file already exists"})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}

	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	defer src.Close()

	size, err := h.Blobs.Save(name, src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}

	f := model.File{
		Name:      name,
		Extension: extension(name),
		Mimetype:  fh.Header.Get("Content-Type"),
		Size:      size,
	}
	if err := h.Files.Create(ctx, &f); err != nil {
		// Keep blob and record in sync: a record that failed to insert
		// must not leave its blob behind.
		_ = h.Blobs.Remove(name)
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "file already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}

	h.publish(ctx, queue.FileUploaded, f)
	return c.JSON(http.StatusOK, echo.Map{"message": "successfully uploaded file"})
}

// Get returns a file's metadata record.
func (h *FileHandler) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid file id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	f, err := h.Files.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "file not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	return c.JSON(http.StatusOK, f)
}

// Download streams a file's blob as an attachment.
func (h *FileHandler) Download(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid file id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	f, err := h.Files.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "file not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	return c.Attachment(h.Blobs.Path(f.Name), f.Name)
}

// Delete removes a file's blob and then its record. The blob goes first:
// if that fails the record stays, so a record never points at a missing
// blob (an orphaned blob is the safer failure mode).
func (h *FileHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid file id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	f, err := h.Files.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "file not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}

	if err := h.Blobs.Remove(f.Name); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	if err := h.Files.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}

	h.publish(ctx, queue.FileDeleted, f)
	return c.JSON(http.StatusOK, echo.Map{"message": "successfully deleted file"})
}

// Update replaces a file's blob and overwrites its record. The old blob is
// deleted only when the incoming filename differs from the stored one; a
// record that does not exist leaves no new blob behind.
func (h *FileHandler) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid file id"})
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "please upload a file"})
	}
	name, errMsg := checkUpload(fh)
	if errMsg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": errMsg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	f, err := h.Files.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "file not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}

	if name != f.Name {
		if err := h.Blobs.Remove(f.Name); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
		}
	}

	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}
	defer src.Close()

	size, err := h.Blobs.Save(name, src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}

	f.Name = name
	f.Extension = extension(name)
	f.Mimetype = fh.Header.Get("Content-Type")
	f.Size = size
	if err := h.Files.Update(ctx, &f); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "file already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": err.Error()})
	}

	h.publish(ctx, queue.FileUpdated, f)
	return c.JSON(http.StatusOK, echo.Map{"message": "successfully updated file"})
}
