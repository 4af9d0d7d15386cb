package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manhwawut/chapter-feed/app/feed"
	"github.com/manhwawut/chapter-feed/app/series"
	"github.com/manhwawut/chapter-feed/app/tasks"
)

const testAPIKey = "test-key"

var testNow = time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)

type fakeScheduler struct {
	imported []string
	err      error
}

var _ tasks.TaskSchedulerInterface = (*fakeScheduler)(nil)

func (s *fakeScheduler) Start() {}

func (s *fakeScheduler) Stop() {}

func (s *fakeScheduler) EnqueueTask(tasks.TaskInterface) error {
	return s.err
}

func (s *fakeScheduler) ImportSeries(seriesID string) (tasks.TaskInterface, error) {
	if !series.ValidID(seriesID) {
		return nil, tasks.ErrInvalidSeries
	}
	if s.err != nil {
		return nil, s.err
	}
	s.imported = append(s.imported, seriesID)
	return tasks.NewImportSeriesTask(seriesID, nil, nil), nil
}

func writeSeries(t *testing.T, dir, id, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, id), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, id, series.DescriptorFileName), []byte(content), 0o644))
}

type testServer struct {
	engine    http.Handler
	catalog   *series.Catalog
	scheduler *fakeScheduler
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	writeSeries(t, dir, "solo-leveling", `{
		"name": "solo leveling",
		"imagelogo": "backend/manwhaTitle/solo-leveling.webp",
		"updateChap": "backend/updateChap/update_solo-leveling.png",
		"chaptersAmount": 2,
		"uploadTime": [
			{"chapter": 1, "time": "10:00 01/01/2024"},
			{"chapter": 2, "time": "10:00 05/01/2024"}
		]
	}`)
	writeSeries(t, dir, "eleceed", `{"name": "eleceed", "uploadTime": [{"chapter": 300, "time": "08:00 06/01/2024"}]}`)
	writeSeries(t, dir, "broken", `{"name": `)
	writeSeries(t, dir, "disabled", `{"name": "disabled", "uploadTime": [{"chapter": 1, "time": "09:00 06/01/2024"}]}`)

	catalogPath := filepath.Join(dir, "catalog.yml")
	require.NoError(t, os.WriteFile(catalogPath, []byte("solo-leveling: {}\neleceed: {}\nbroken: {}\ndisabled:\n  enabled: false\n"), 0o644))
	catalog := series.NewCatalog(catalogPath)
	require.NoError(t, catalog.Reload())

	service := feed.NewService(series.NewFileStore(dir, catalog), feed.Options{
		ImageBaseURL: "https://img.example.com",
	})
	scheduler := &fakeScheduler{}

	handler := NewHandler(service, feed.NewGenerator("https://feeds.example.com", "8080", "test"), catalog, scheduler, 3)
	handler.now = func() time.Time { return testNow }

	return &testServer{
		engine:    NewServer(handler, testAPIKey),
		catalog:   catalog,
		scheduler: scheduler,
	}
}

func (s *testServer) do(t *testing.T, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func TestLatestUpdates(t *testing.T) {
	srv := setupTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/latest-updates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var entries []feed.LatestEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)

	assert.Equal(t, "eleceed", entries[0].SeriesID)
	assert.Equal(t, "2 hours ago", entries[0].RecentChapters[0].RelativeTimeLabel)
	assert.Equal(t, "solo-leveling", entries[1].SeriesID)
	assert.Equal(t, "Solo Leveling", entries[1].Title)
	require.Len(t, entries[1].RecentChapters, 2)
	assert.Equal(t, "Chapter 2", entries[1].RecentChapters[0].Label)
}

func TestFilteredManhwas(t *testing.T) {
	srv := setupTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/filtered-manwhas", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "Chapter 300", entries[0]["chapterLabel"])
	assert.Equal(t, "Chapter 2", entries[1]["chapterLabel"])
	assert.Equal(t, "10:00 05/01/2024", entries[1]["rawTime"])
	assert.Equal(t, "https://img.example.com/backend/updateChap/update_solo-leveling.png", entries[1]["updateImageRef"])

	rec = srv.do(t, http.MethodGet, "/api/filtered-manwhas?days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 3)

	rec = srv.do(t, http.MethodGet, "/api/filtered-manwhas?days=0.01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, days := range []string{"0", "-2", "abc", "Inf", "NaN"} {
		rec = srv.do(t, http.MethodGet, "/api/filtered-manwhas?days="+days, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "days=%s", days)
	}
}

func TestRecentFeed(t *testing.T) {
	srv := setupTestServer(t)

	rec := srv.do(t, http.MethodGet, "/feeds/recent.xml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "2", rec.Header().Get("X-Feed-Items"))

	parsed, err := gofeed.NewParser().ParseString(rec.Body.String())
	require.NoError(t, err)
	require.Len(t, parsed.Items, 2)
	assert.Equal(t, "eleceed/chapter-300", parsed.Items[0].GUID)
	assert.Equal(t, "Solo Leveling - Chapter 2", parsed.Items[1].Title)
	require.Len(t, parsed.Items[1].Enclosures, 1)
	assert.Equal(t, "image/png", parsed.Items[1].Enclosures[0].Type)

	rec = srv.do(t, http.MethodGet, "/feeds/recent.xml?days=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDescription(t *testing.T) {
	srv := setupTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/description/solo-leveling", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var details feed.SeriesDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	assert.Equal(t, "05/01/2024", details.UpdatedOn)
	assert.Equal(t, "https://img.example.com/backend/manwhaTitle/solo-leveling.webp", details.CoverImageRef)

	rec = srv.do(t, http.MethodGet, "/api/description/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/description/broken", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChapters(t *testing.T) {
	srv := setupTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/series/solo-leveling/chapters", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"chapters": ["chapter-2", "chapter-1"], "maxChapter": 2}`, rec.Body.String())

	rec = srv.do(t, http.MethodGet, "/api/series/missing/chapters", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := setupTestServer(t)

	rec := srv.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, testNow.Format(time.RFC3339), health["timestamp"])
	assert.Equal(t, float64(3), health["series"])
	assert.Equal(t, float64(4), health["catalog_entries"])
}

func TestAdminEndpointsRequireKey(t *testing.T) {
	srv := setupTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/series", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/series", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/series", map[string]string{"Authorization": "Bearer " + testAPIKey})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"series": [
			{"id": "broken", "enabled": true},
			{"id": "eleceed", "enabled": true},
			{"id": "solo-leveling", "enabled": true}
		],
		"total": 3
	}`, rec.Body.String())
}

func TestAdminCatalogReload(t *testing.T) {
	srv := setupTestServer(t)
	auth := map[string]string{"X-API-Key": testAPIKey}

	require.NoError(t, os.WriteFile(srv.catalog.Path(), []byte("solo-leveling: {}\n"), 0o644))

	rec := srv.do(t, http.MethodPost, "/api/catalog/reload", auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"series":1`)

	rec = srv.do(t, http.MethodGet, "/api/latest-updates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []feed.LatestEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "solo-leveling", entries[0].SeriesID)

	require.NoError(t, os.WriteFile(srv.catalog.Path(), []byte("solo-leveling: [\n"), 0o644))
	rec = srv.do(t, http.MethodPost, "/api/catalog/reload", auth)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAdminImportSeries(t *testing.T) {
	srv := setupTestServer(t)
	auth := map[string]string{"X-API-Key": testAPIKey}

	rec := srv.do(t, http.MethodPost, "/api/series/solo-leveling/import", auth)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"import_series"`)
	assert.Equal(t, []string{"solo-leveling"}, srv.scheduler.imported)

	rec = srv.do(t, http.MethodPost, "/api/series/..%2F..%2Fetc/import", auth)
	assert.NotEqual(t, http.StatusAccepted, rec.Code)

	srv.scheduler.err = tasks.ErrQueueFull
	rec = srv.do(t, http.MethodPost, "/api/series/eleceed/import", auth)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminEndpointsDisabledWithoutKey(t *testing.T) {
	handler := NewHandler(feed.NewService(series.NewFileStore(t.TempDir(), nil), feed.Options{}), feed.NewGenerator("", "8080", "test"), nil, nil, 3)
	engine := NewServer(handler, "")

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/series", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, strings.Contains(rec.Body.String(), "/api/series (requires"))
}

func TestImportWithoutScheduler(t *testing.T) {
	handler := NewHandler(feed.NewService(series.NewFileStore(t.TempDir(), nil), feed.Options{}), feed.NewGenerator("", "8080", "test"), nil, nil, 3)
	engine := NewServer(handler, testAPIKey)

	req := httptest.NewRequest(http.MethodPost, "/api/series/eleceed/import", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/catalog/reload", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := setupTestServer(t)

	rec := srv.do(t, http.MethodOptions, "/api/latest-updates", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
}
