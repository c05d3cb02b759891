package http_server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danthegoodman1/rowbind/datastore"
	"github.com/danthegoodman1/rowbind/events"
	"github.com/danthegoodman1/rowbind/metastore"
	"github.com/danthegoodman1/rowbind/part"
	"github.com/danthegoodman1/rowbind/part_writer"
	"github.com/danthegoodman1/rowbind/partitioner"
	"github.com/danthegoodman1/rowbind/registry"
	"github.com/google/go-cmp/cmp"
	"github.com/labstack/echo/v4"
)

func newTestServer(t *testing.T) *HTTPServer {
	t.Helper()
	partitioner.RegisterFunctions()
	r := registry.New()
	if err := events.RegisterAll(r); err != nil {
		t.Fatal(err)
	}
	ds, err := datastore.NewDiskDataStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewHTTPServer(part_writer.New(r, ds, metastore.NewMemoryMetaStore()))
}

func do(t *testing.T, s *HTTPServer, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("error decoding %s: %s", rec.Body.String(), err)
	}
	return v
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/hc", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestTypes(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/types", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var names []string
	for _, e := range decode[[]map[string]any](t, rec) {
		names = append(names, e["name"].(string))
	}
	if diff := cmp.Diff([]string{"events.Click", "events.PageView"}, names); diff != "" {
		t.Fatalf("types (-want +got):\n%s", diff)
	}

	rec = do(t, s, http.MethodGet, "/types/events.Click", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if id := decode[map[string]any](t, rec)["id"].(string); !strings.HasPrefix(id, "sch_") {
		t.Fatalf("unexpected id %s", id)
	}

	if rec := do(t, s, http.MethodGet, "/types/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCheck(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/types/events.PageView/check", `{"at":"2023-03-09T10:30:00Z","page":"/a","durationMS":1500,"bounced":true,"geo":{"country":"DE"},"ignored":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	expected := map[string]any{
		"at":         "2023-03-09T10:30:00Z",
		"bounced":    true,
		"durationMS": 1500.0,
		"geo":        map[string]any{"country": "DE", "region": ""},
		"page":       "/a",
		"referrer":   nil,
		"sessionID":  "",
	}
	if diff := cmp.Diff(expected, decode[map[string]any](t, rec)); diff != "" {
		t.Fatalf("row (-want +got):\n%s", diff)
	}

	rec = do(t, s, http.MethodPost, "/types/events.PageView/check", `{"durationMS":"long"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestInsertAndCatalog(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/types/events.Click/insert", `{
		"Rows": [
			{"at": "2023-03-09T10:30:00Z", "page": "/a", "tags": ["x"]},
			{"at": "2023-03-09T11:00:00Z", "page": "/b", "geo": {"country": "US", "region": "ny"}}
		],
		"Partitioner": [{"Func": "toDate", "Args": ["at"], "As": "d"}]
	}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	stats := decode[part_writer.InsertStats](t, rec)
	if stats.NumRows != 2 || stats.NumFiles != 1 || stats.Parts[0].Partition != "d=2023-03-09" {
		t.Fatalf("unexpected stats %+v", stats)
	}

	rec = do(t, s, http.MethodPost, "/types/events.Click/insert", `{
		"RowsString": "{\"at\": \"2023-03-09T12:00:00Z\", \"page\": \"/c\"}\n\n{\"at\": \"2023-03-10T12:00:00Z\", \"page\": \"/d\"}\n",
		"Partitioner": [{"Func": "toDate", "Args": ["at"], "As": "d"}]
	}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if stats := decode[part_writer.InsertStats](t, rec); stats.NumRows != 2 || stats.NumFiles != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	rec = do(t, s, http.MethodGet, "/catalog/schemas", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	schemas := decode[[]map[string]any](t, rec)
	if len(schemas) != 1 || schemas[0]["Name"] != "events.Click" {
		t.Fatalf("unexpected schemas %s", rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/catalog/schemas/events.Click/parts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if parts := decode[[]part.Part](t, rec); len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %s", rec.Body.String())
	}

	// merge the two parts of the 9th
	rec = do(t, s, http.MethodPost, "/types/events.Click/merge", `{"Partition": "d=2023-03-09"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if merged := decode[part_writer.MergeStats](t, rec); merged.FilesMerged != 2 || merged.RowsMerged != 3 {
		t.Fatalf("unexpected merge stats %+v", merged)
	}
	rec = do(t, s, http.MethodPost, "/types/events.Click/merge", `{"Partition": "d=2023-03-09"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/catalog/schemas/events.Click/parts?alive=true", "")
	if parts := decode[[]part.Part](t, rec); len(parts) != 2 {
		t.Fatalf("expected 2 alive parts, got %s", rec.Body.String())
	}

	if rec := do(t, s, http.MethodGet, "/catalog/schemas/nope/parts", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestInsertErrors(t *testing.T) {
	s := newTestServer(t)

	cases := map[string]string{
		"no rows":        `{"Rows": []}`,
		"bad plan":       `{"Rows": [{"page": "/a"}], "Partitioner": [{"Func": "toDate", "Args": ["at"]}]}`,
		"unknown func":   `{"Rows": [{"page": "/a"}], "Partitioner": [{"Func": "nope", "Args": ["at"], "As": "x"}]}`,
		"bad value":      `{"Rows": [{"page": 1}]}`,
		"bad ndjson":     `{"RowsString": "[1]"}`,
		"missing column": `{"Rows": [{"page": "/a"}], "Partitioner": [{"Func": "toDate", "Args": ["nope"], "As": "d"}]}`,
	}
	for name, body := range cases {
		rec := do(t, s, http.MethodPost, "/types/events.Click/insert", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d %s", name, rec.Code, rec.Body.String())
		}
	}

	if rec := do(t, s, http.MethodPost, "/types/nope/insert", `{"Rows": [{}]}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
