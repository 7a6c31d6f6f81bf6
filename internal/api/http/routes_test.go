package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/reservoir-geojson/internal/reservoir"
	"github.com/i474232898/reservoir-geojson/internal/store"
)

type stubService struct {
	store    *store.MemoryStore
	buildErr error
	builds   int
}

func (s *stubService) Build(ctx context.Context) (reservoir.Snapshot, error) {
	s.builds++
	if s.buildErr != nil {
		return reservoir.Snapshot{}, s.buildErr
	}
	snap := testSnapshot(fmt.Sprintf("run-%d", s.builds))
	s.store.Save(snap)
	return snap, nil
}

func (s *stubService) GetLatest() (reservoir.Snapshot, error) { return s.store.GetLatest() }

func (s *stubService) History() []reservoir.Snapshot { return s.store.History() }

func testSnapshot(runID string) reservoir.Snapshot {
	return reservoir.Snapshot{
		RunID:   runID,
		BuiltAt: time.Date(2014, 10, 7, 0, 0, 0, 0, time.UTC),
		Source:  reservoir.SourceCache,
		Collection: reservoir.FeatureCollection{Features: []reservoir.Feature{{
			ID:     "01234567",
			Site:   &reservoir.Site{ID: "01234567", Name: "Lake Test", Latitude: 40, Longitude: -120.5},
			Months: reservoir.MonthlySeries{{Month: "2014-01", Value: 200}},
		}}},
	}
}

func newTestApp(svc Service) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, svc, time.Second)
	return app
}

func TestReservoirsNotBuiltYet(t *testing.T) {
	app := newTestApp(&stubService{store: store.NewMemoryStore(5)})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservoirs", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestReservoirsServesLatestCollection(t *testing.T) {
	svc := &stubService{store: store.NewMemoryStore(5)}
	svc.store.Save(testSnapshot("run-0"))
	app := newTestApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservoirs", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != geoJSONContentType {
		t.Errorf("unexpected content type %q", ct)
	}

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("decode: %v (%s)", err, body)
	}
	if doc.Type != "FeatureCollection" || len(doc.Features) != 1 {
		t.Fatalf("unexpected document %s", body)
	}
	if doc.Features[0].Properties["2014-01"] != float64(200) {
		t.Errorf("unexpected properties %v", doc.Features[0].Properties)
	}
}

func TestReservoirByID(t *testing.T) {
	svc := &stubService{store: store.NewMemoryStore(5)}
	svc.store.Save(testSnapshot("run-0"))
	app := newTestApp(svc)

	cases := map[string]int{
		"/api/v1/reservoirs/01234567": http.StatusOK,
		"/api/v1/reservoirs/99999999": http.StatusNotFound,
		"/api/v1/reservoirs/lake":     http.StatusBadRequest,
		"/api/v1/reservoirs/123":      http.StatusBadRequest,
	}
	for path, want := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", path, err)
		}
		if resp.StatusCode != want {
			t.Errorf("%s: expected status %d, got %d", path, want, resp.StatusCode)
		}
	}
}

func TestRunsRebuildAndHistory(t *testing.T) {
	svc := &stubService{store: store.NewMemoryStore(5)}
	app := newTestApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out struct {
		Runs []struct {
			RunID    string `json:"runId"`
			Source   string `json:"source"`
			Features int    `json:"features"`
		} `json:"runs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Runs) != 1 || out.Runs[0].RunID != "run-1" || out.Runs[0].Features != 1 || out.Runs[0].Source != "cache" {
		t.Errorf("unexpected runs %+v", out.Runs)
	}
}

func TestRunsRebuildTransportFailure(t *testing.T) {
	svc := &stubService{
		store:    store.NewMemoryStore(5),
		buildErr: fmt.Errorf("fetch time series: %w: %w", reservoir.ErrTransport, errors.New("timeout")),
	}
	app := newTestApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, resp.StatusCode)
	}
}
