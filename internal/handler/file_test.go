package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/media-vault/internal/model"
	"github.com/iliyamo/media-vault/internal/queue"
	"github.com/iliyamo/media-vault/internal/repository"
	"github.com/iliyamo/media-vault/internal/storage"
)

// --- fakes ---

type fakeFileStore struct {
	byID       map[int64]model.File
	nextID     int64
	lastLimit  int
	lastOffset int
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{byID: map[int64]model.File{}}
}

func (f *fakeFileStore) Create(ctx context.Context, rec *model.File) error {
	for _, existing := range f.byID {
		if existing.Name == rec.Name {
			return repository.ErrDuplicate
		}
	}
	f.nextID++
	rec.ID = f.nextID
	f.byID[rec.ID] = *rec
	return nil
}

func (f *fakeFileStore) GetByID(ctx context.Context, id int64) (model.File, error) {
	rec, ok := f.byID[id]
	if !ok {
		return model.File{}, repository.ErrNotFound
	}
	return rec, nil
}

func (f *fakeFileStore) GetByName(ctx context.Context, name string) (model.File, error) {
	for _, rec := range f.byID {
		if rec.Name == name {
			return rec, nil
		}
	}
	return model.File{}, repository.ErrNotFound
}

func (f *fakeFileStore) List(ctx context.Context, limit, offset int) ([]model.File, int64, error) {
	f.lastLimit, f.lastOffset = limit, offset
	out := make([]model.File, 0, len(f.byID))
	for id := int64(1); id <= f.nextID; id++ {
		if rec, ok := f.byID[id]; ok {
			out = append(out, rec)
		}
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeFileStore) Update(ctx context.Context, rec *model.File) error {
	if _, ok := f.byID[rec.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range f.byID {
		if id != rec.ID && existing.Name == rec.Name {
			return repository.ErrDuplicate
		}
	}
	f.byID[rec.ID] = *rec
	return nil
}

func (f *fakeFileStore) Delete(ctx context.Context, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakePublisher struct {
	events []queue.FileEvent
}

func (f *fakePublisher) PublishFileEvent(ctx context.Context, ev queue.FileEvent) error {
	f.events = append(f.events, ev)
	return nil
}

// --- helpers ---

type fileTest struct {
	h      *FileHandler
	files  *fakeFileStore
	blobs  *storage.DiskStore
	events *fakePublisher
	root   string
}

func newFileTest(t *testing.T) *fileTest {
	t.Helper()
	root := t.TempDir()
	blobs, err := storage.NewDiskStore(root)
	require.NoError(t, err)
	files := newFakeFileStore()
	events := &fakePublisher{}
	return &fileTest{
		h:      NewFileHandler(files, blobs, events),
		files:  files,
		blobs:  blobs,
		events: events,
		root:   root,
	}
}

// multipartRequest builds a request whose "file" field carries the given
// filename, content type and payload.
func multipartRequest(t *testing.T, method, target, filename, contentType, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func callParam(req *http.Request, h echo.HandlerFunc, id string) *httptest.ResponseRecorder {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func (ft *fileTest) upload(t *testing.T, filename, contentType, content string) *httptest.ResponseRecorder {
	t.Helper()
	req := multipartRequest(t, http.MethodPost, "/file/upload", filename, contentType, content)
	return callParam(req, ft.h.Upload, "")
}

func dirEntries(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// --- tests ---

func TestUpload(t *testing.T) {
	ft := newFileTest(t)

	rec := ft.upload(t, "a.png", "image/png", "png bytes")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "successfully uploaded file")

	f, err := ft.files.GetByName(context.Background(), "a.png")
	require.NoError(t, err)
	assert.Equal(t, "png", f.Extension)
	assert.Equal(t, "image/png", f.Mimetype)
	assert.Equal(t, int64(len("png bytes")), f.Size)

	data, err := os.ReadFile(ft.blobs.Path("a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))

	require.Len(t, ft.events.events, 1)
	assert.Equal(t, queue.FileUploaded, ft.events.events[0].Action)
	assert.Equal(t, "a.png", ft.events.events[0].Name)
}

func TestUpload_MissingFile(t *testing.T) {
	ft := newFileTest(t)

	req := httptest.NewRequest(http.MethodPost, "/file/upload", strings.NewReader(""))
	rec := callParam(req, ft.h.Upload, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "please upload a file")
}

func TestUpload_RejectedMimetype(t *testing.T) {
	ft := newFileTest(t)

	rec := ft.upload(t, "notes.txt", "text/plain", "hello")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "PNG or JPEG")

	// Neither a record nor a blob may exist after a rejected upload.
	_, err := ft.files.GetByName(context.Background(), "notes.txt")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, dirEntries(t, ft.root))
	assert.Empty(t, ft.events.events)
}

func TestUpload_TooLarge(t *testing.T) {
	ft := newFileTest(t)

	rec := ft.upload(t, "big.png", "image/png", strings.Repeat("x", maxUploadSize+1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too large")
	assert.Empty(t, dirEntries(t, ft.root))
}

func TestUpload_DuplicateName(t *testing.T) {
	ft := newFileTest(t)

	rec := ft.upload(t, "a.png", "image/png", strings.Repeat("x", 100))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ft.upload(t, "a.png", "image/png", "other bytes")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file already exists")

	// The original blob is untouched.
	data, err := os.ReadFile(ft.blobs.Path("a.png"))
	require.NoError(t, err)
	assert.Len(t, data, 100)
}

func TestUpload_StripsDirectoryComponents(t *testing.T) {
	ft := newFileTest(t)

	rec := ft.upload(t, "../../evil.png", "image/png", "bytes")
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := ft.files.GetByName(context.Background(), "evil.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"evil.png"}, dirEntries(t, ft.root))
}

func TestGet(t *testing.T) {
	ft := newFileTest(t)
	require.Equal(t, http.StatusOK, ft.upload(t, "a.png", "image/png", "bytes").Code)

	rec := callParam(httptest.NewRequest(http.MethodGet, "/file/1", nil), ft.h.Get, "1")
	require.Equal(t, http.StatusOK, rec.Code)

	var f model.File
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, int64(1), f.ID)
	assert.Equal(t, "a.png", f.Name)
}

func TestGet_NotFound(t *testing.T) {
	ft := newFileTest(t)

	rec := callParam(httptest.NewRequest(http.MethodGet, "/file/42", nil), ft.h.Get, "42")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "file not found")
}

func TestGet_InvalidID(t *testing.T) {
	ft := newFileTest(t)

	rec := callParam(httptest.NewRequest(http.MethodGet, "/file/abc", nil), ft.h.Get, "abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownload(t *testing.T) {
	ft := newFileTest(t)
	require.Equal(t, http.StatusOK, ft.upload(t, "a.png", "image/png", "png bytes").Code)

	rec := callParam(httptest.NewRequest(http.MethodGet, "/file/download/1", nil), ft.h.Download, "1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png bytes", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "a.png")
}

func TestDownload_NotFound(t *testing.T) {
	ft := newFileTest(t)

	rec := callParam(httptest.NewRequest(http.MethodGet, "/file/download/9", nil), ft.h.Download, "9")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDelete(t *testing.T) {
	ft := newFileTest(t)
	require.Equal(t, http.StatusOK, ft.upload(t, "a.png", "image/png", "bytes").Code)

	rec := callParam(httptest.NewRequest(http.MethodDelete, "/file/delete/1", nil), ft.h.Delete, "1")
	require.Equal(t, http.StatusOK, rec.Code)

	// Both blob and record are gone.
	assert.Empty(t, dirEntries(t, ft.root))
	_, err := ft.files.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	getRec := callParam(httptest.NewRequest(http.MethodGet, "/file/1", nil), ft.h.Get, "1")
	assert.Equal(t, http.StatusNotFound, getRec.Code)

	require.Len(t, ft.events.events, 2)
	assert.Equal(t, queue.FileDeleted, ft.events.events[1].Action)
}

func TestDelete_BlobFailureKeepsRecord(t *testing.T) {
	ft := newFileTest(t)
	require.Equal(t, http.StatusOK, ft.upload(t, "a.png", "image/png", "bytes").Code)

	// Make blob removal fail by deleting the blob out of band.
	require.NoError(t, os.Remove(ft.blobs.Path("a.png")))

	rec := callParam(httptest.NewRequest(http.MethodDelete, "/file/delete/1", nil), ft.h.Delete, "1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// The record must survive a failed blob deletion.
	_, err := ft.files.GetByID(context.Background(), 1)
	assert.NoError(t, err)
}

func TestDelete_NotFound(t *testing.T) {
	ft := newFileTest(t)

	rec := callParam(httptest.NewRequest(http.MethodDelete, "/file/delete/9", nil), ft.h.Delete, "9")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdate_NewFilename(t *testing.T) {
	ft := newFileTest(t)
	require.Equal(t, http.StatusOK, ft.upload(t, "a.png", "image/png", "old bytes").Code)

	req := multipartRequest(t, http.MethodPut, "/file/update/1", "b.jpg", "image/jpeg", "new jpeg bytes")
	rec := callParam(req, ft.h.Update, "1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "successfully updated file")

	// Old blob gone, new blob present.
	assert.Equal(t, []string{"b.jpg"}, dirEntries(t, ft.root))
	data, err := os.ReadFile(ft.blobs.Path("b.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "new jpeg bytes", string(data))

	// Record reflects the new name, extension, mimetype and size.
	f, err := ft.files.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "b.jpg", f.Name)
	assert.Equal(t, "jpg", f.Extension)
	assert.Equal(t, "image/jpeg", f.Mimetype)
	assert.Equal(t, int64(len("new jpeg bytes")), f.Size)

	require.Len(t, ft.events.events, 2)
	assert.Equal(t, queue.FileUpdated, ft.events.events[1].Action)
}

func TestUpdate_SameFilename(t *testing.T) {
	ft := newFileTest(t)
	require.Equal(t, http.StatusOK, ft.upload(t, "a.png", "image/png", "old bytes").Code)

	req := multipartRequest(t, http.MethodPut, "/file/update/1", "a.png", "image/png", "new bytes")
	rec := callParam(req, ft.h.Update, "1")
	require.Equal(t, http.StatusOK, rec.Code)

	data, err := os.ReadFile(ft.blobs.Path("a.png"))
	require.NoError(t, err)
	assert.Equal(t, "new bytes", string(data))
}

func TestUpdate_NotFoundLeavesNoBlob(t *testing.T) {
	ft := newFileTest(t)

	req := multipartRequest(t, http.MethodPut, "/file/update/9", "b.jpg", "image/jpeg", "bytes")
	rec := callParam(req, ft.h.Update, "9")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The uploaded content must not leak to disk.
	assert.Empty(t, dirEntries(t, ft.root))
}

func TestUpdate_RejectedMimetype(t *testing.T) {
	ft := newFileTest(t)
	require.Equal(t, http.StatusOK, ft.upload(t, "a.png", "image/png", "old bytes").Code)

	req := multipartRequest(t, http.MethodPut, "/file/update/1", "notes.txt", "text/plain", "hello")
	rec := callParam(req, ft.h.Update, "1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Old blob and record untouched.
	assert.Equal(t, []string{"a.png"}, dirEntries(t, ft.root))
	f, err := ft.files.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "a.png", f.Name)
}

func TestList_Defaults(t *testing.T) {
	ft := newFileTest(t)

	rec := callParam(httptest.NewRequest(http.MethodGet, "/file/list", nil), ft.h.List, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, ft.files.lastLimit)
	assert.Equal(t, 0, ft.files.lastOffset)
}

func TestList_Pagination(t *testing.T) {
	ft := newFileTest(t)
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("f%d.png", i)
		require.Equal(t, http.StatusOK, ft.upload(t, name, "image/png", "bytes").Code)
	}

	rec := callParam(httptest.NewRequest(http.MethodGet, "/file/list?list_size=2&page=2", nil), ft.h.List, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []model.File `json:"items"`
		Total int64        `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// At most list_size items; total always covers the whole corpus.
	require.Len(t, resp.Items, 2)
	assert.Equal(t, int64(5), resp.Total)
	assert.Equal(t, "f2.png", resp.Items[0].Name)
	assert.Equal(t, "f3.png", resp.Items[1].Name)
}

func TestList_PageBeyondEnd(t *testing.T) {
	ft := newFileTest(t)
	require.Equal(t, http.StatusOK, ft.upload(t, "a.png", "image/png", "bytes").Code)

	rec := callParam(httptest.NewRequest(http.MethodGet, "/file/list?list_size=10&page=5", nil), ft.h.List, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []model.File `json:"items"`
		Total int64        `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Items)
	assert.Equal(t, int64(1), resp.Total)
}
