package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediasweep/internal/cleaner"
	"mediasweep/internal/detector"
	"mediasweep/internal/media"
	"mediasweep/internal/recyclebin"
	"mediasweep/internal/thumbnail"
)

var created = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type fakeProvider struct {
	mu        sync.Mutex
	assets    []media.AssetDescriptor
	deleteErr error
	deleted   []string
}

func (p *fakeProvider) ListAssets(context.Context) ([]media.AssetDescriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]media.AssetDescriptor(nil), p.assets...), nil
}

// DeleteAssets confirms only the first handle when deleteErr is set.
func (p *fakeProvider) DeleteAssets(_ context.Context, handles []string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deleteErr != nil {
		if len(handles) == 0 {
			return nil, p.deleteErr
		}
		p.deleted = append(p.deleted, handles[0])
		return handles[:1], p.deleteErr
	}
	p.deleted = append(p.deleted, handles...)
	return handles, nil
}

func (p *fakeProvider) RequestThumbnail(_ context.Context, _ string, size int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, size, size)), nil
}

func (p *fakeProvider) Resolve(context.Context, string) bool { return true }

func assets() []media.AssetDescriptor {
	return []media.AssetDescriptor{
		{Handle: "2024/a.jpg", Kind: media.KindPhoto, Width: 4000, Height: 3000, Size: 1_000_000, CreatedAt: created},
		{Handle: "2024/b.jpg", Kind: media.KindPhoto, Width: 4000, Height: 3000, Size: 1_050_000, CreatedAt: created.Add(5 * time.Second)},
		{Handle: "2024/c.mp4", Kind: media.KindVideo, Width: 1920, Height: 1080, Size: 9_000_000, Duration: 65 * time.Second, CreatedAt: created},
	}
}

type testServer struct {
	handler  http.Handler
	provider *fakeProvider
	cleaner  *cleaner.Cleaner
	bin      *recyclebin.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	provider := &fakeProvider{assets: assets()}
	bin := recyclebin.Open(context.Background(), provider, nil)
	c := cleaner.New(provider, detector.New(nil, detector.DefaultConfig()), bin, cleaner.Options{
		Thumbnails:    thumbnail.NewCache(time.Minute, time.Minute),
		ThumbnailSize: 32,
	})
	t.Cleanup(c.Close)

	return &testServer{
		handler:  NewRouter(New(c, bin), RouterConfig{}),
		provider: provider,
		cleaner:  c,
		bin:      bin,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) scan(t *testing.T) []media.Item {
	t.Helper()
	results, err := s.cleaner.Scan(context.Background())
	require.NoError(t, err)
	return results
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.False(t, resp.Scanning)
	assert.Equal(t, 0, resp.RecycleBinSize)

	rec = s.do(t, http.MethodHead, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestGetVersion(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), `"version"`)
}

func TestStartScanAndProgress(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/scan", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	assert.Eventually(t, func() bool {
		rec := s.do(t, http.MethodGet, "/api/scan/progress", "")
		status := decode[cleaner.Status](t, rec)
		return !status.Scanning && status.Progress == 1.0 && status.Duplicates == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestListDuplicates(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/duplicates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"count":0}`, rec.Body.String())

	s.scan(t)
	rec = s.do(t, http.MethodGet, "/api/duplicates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[itemsResponse](t, rec)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "2024/a.jpg", resp.Items[0].Handle)
}

func TestRecycleItems(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	results := s.scan(t)
	require.Len(t, results, 1)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "malformed body", body: `{"ids":`, status: http.StatusBadRequest},
		{name: "empty ids", body: `{"ids":[]}`, status: http.StatusBadRequest},
		{name: "unknown field", body: `{"id":"x"}`, status: http.StatusBadRequest},
		{name: "unknown item", body: `{"ids":["nope"]}`, status: http.StatusNotFound},
		{name: "recycled", body: `{"ids":["` + results[0].ID + `"]}`, status: http.StatusOK},
	}

	for _, tt := range tests {
		rec := s.do(t, http.MethodPost, "/api/duplicates/recycle", tt.body)
		assert.Equal(t, tt.status, rec.Code, tt.name)
	}

	assert.Equal(t, 1, s.bin.Count())
	assert.Empty(t, s.cleaner.Results())
}

func TestKeepItems(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	results := s.scan(t)
	require.Len(t, results, 1)

	rec := s.do(t, http.MethodPost, "/api/duplicates/keep", `{"ids":["`+results[0].ID+`"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp keepResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Kept)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, results[0].ID, resp.Items[0].ID)
	assert.True(t, resp.Items[0].MarkedForKeeping)
	assert.True(t, s.bin.IsKept(results[0].Ref()))
	assert.Empty(t, s.cleaner.Results())
}

func TestListFilesWithoutDirectory(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/files", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"count":0}`, rec.Body.String())
}

func recycleAll(t *testing.T, s *testServer) []media.Item {
	t.Helper()
	var items []media.Item
	for _, a := range assets() {
		items = append(items, media.NewFromAsset(a))
	}
	n, err := s.bin.RecycleMany(context.Background(), items)
	require.NoError(t, err)
	require.Equal(t, len(items), n)
	return items
}

func TestListBin(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	recycleAll(t, s)

	rec := s.do(t, http.MethodGet, "/api/bin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[binResponse](t, rec)
	assert.Equal(t, 3, resp.Count)
	assert.Len(t, resp.Items, 3)
	assert.Equal(t, int64(1_000_000+1_050_000+9_000_000), resp.TotalSize)
}

func TestRestoreItem(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	items := recycleAll(t, s)

	rec := s.do(t, http.MethodPost, "/api/bin/"+items[0].ID+"/restore", "")
	require.Equal(t, http.StatusOK, rec.Code)
	restored := decode[media.Item](t, rec)
	assert.Equal(t, items[0].ID, restored.ID)
	assert.False(t, restored.InRecycleBin)
	assert.Equal(t, 2, s.bin.Count())

	rec = s.do(t, http.MethodPost, "/api/bin/"+items[0].ID+"/restore", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestDeleteItem(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	items := recycleAll(t, s)

	rec := s.do(t, http.MethodDelete, "/api/bin/"+items[1].ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 2, s.bin.Count())
	assert.Equal(t, []string{items[1].Handle}, s.provider.deleted)

	rec = s.do(t, http.MethodDelete, "/api/bin/"+items[1].ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAll(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	recycleAll(t, s)

	rec := s.do(t, http.MethodDelete, "/api/bin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[deleteAllResponse](t, rec)
	assert.Equal(t, 3, resp.Attempted)
	assert.Equal(t, 3, resp.Deleted)
	assert.Equal(t, 0, resp.Remaining)
	assert.Empty(t, resp.Error)
	assert.Equal(t, 0, s.bin.Count())
}

func TestDeleteAllPartialFailure(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	recycleAll(t, s)
	s.provider.deleteErr = errors.New("catalog busy")

	rec := s.do(t, http.MethodDelete, "/api/bin", "")
	require.Equal(t, http.StatusMultiStatus, rec.Code)
	resp := decode[deleteAllResponse](t, rec)
	assert.Equal(t, 3, resp.Attempted)
	assert.Equal(t, 1, resp.Deleted)
	assert.Equal(t, 2, resp.Remaining)
	assert.Contains(t, resp.Error, "catalog busy")
	assert.Equal(t, 2, s.bin.Count())
}

func TestEmptyBin(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	recycleAll(t, s)

	rec := s.do(t, http.MethodPost, "/api/bin/empty", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, s.bin.Count())
	assert.Empty(t, s.provider.deleted, "emptying forgets entries without deleting")
}

func TestGetThumbnail(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/thumbnail/2024/a.jpg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("X-Duration"))
	assert.NotZero(t, rec.Body.Len())

	rec = s.do(t, http.MethodGet, "/api/thumbnail/docs/notes.txt", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetThumbnailVideoDuration(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	s.scan(t)

	rec := s.do(t, http.MethodGet, "/api/thumbnail/2024/c.mp4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1:05", rec.Header().Get("X-Duration"))
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/bin", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.False(t, strings.Contains(rec.Body.String(), "items"))
}
