package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/curatord/curator/internal/selector"
	"github.com/curatord/curator/internal/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, selector.NewDefault(), "test", 0.8)
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func seedItem(t *testing.T, srv *Server, id, category, content string, importance int) {
	t.Helper()
	body := fmt.Sprintf(`{"id":%q,"category":%q,"source":"voice","content":%q,"occurred_at":%d,"importance":%d}`,
		id, category, content, time.Now().UnixMilli(), importance)
	w := doJSON(t, srv, "POST", "/api/items", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("seed item %s: status = %d; body: %s", id, w.Code, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	srv := testServer(t)

	w := doJSON(t, srv, "GET", "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["db"] != true {
		t.Errorf("db = %v, want true", resp["db"])
	}
}

func TestItemCRUD(t *testing.T) {
	srv := testServer(t)
	seedItem(t, srv, "i-1", "personal", "Grew up in Lisbon", 70)

	w := doJSON(t, srv, "GET", "/api/items/i-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: status = %d; body: %s", w.Code, w.Body.String())
	}
	var it store.Item
	json.Unmarshal(w.Body.Bytes(), &it)
	if it.Content != "Grew up in Lisbon" {
		t.Errorf("content = %q", it.Content)
	}

	w = doJSON(t, srv, "GET", "/api/items?category=personal", "")
	var list struct {
		Count int `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &list)
	if list.Count != 1 {
		t.Errorf("list count = %d, want 1", list.Count)
	}

	w = doJSON(t, srv, "DELETE", "/api/items/i-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", w.Code)
	}
	w = doJSON(t, srv, "GET", "/api/items/i-1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestSaveItemRejectsUnknownCategory(t *testing.T) {
	srv := testServer(t)

	body := `{"id":"x","category":"gossip","source":"voice","content":"hm"}`
	w := doJSON(t, srv, "POST", "/api/items", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusUnprocessableEntity, w.Body.String())
	}
}

func TestSaveItemRequiresID(t *testing.T) {
	srv := testServer(t)

	w := doJSON(t, srv, "POST", "/api/items", `{"category":"personal","source":"voice","content":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestFeedbackRoute(t *testing.T) {
	srv := testServer(t)
	seedItem(t, srv, "i-1", "tasks", "Water the plants", 60)

	w := doJSON(t, srv, "POST", "/api/items/i-1/feedback", `{"signal":"pinned"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("set: status = %d; body: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, "POST", "/api/items/i-1/feedback", `{"signal":"pinned","clear":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("clear: status = %d", w.Code)
	}

	w = doJSON(t, srv, "POST", "/api/items/i-1/feedback", `{"signal":"loved"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid signal: status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = doJSON(t, srv, "POST", "/api/items/nope/feedback", `{"signal":"pinned"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing item: status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestSelectRoute(t *testing.T) {
	srv := testServer(t)
	seedItem(t, srv, "h-1", "health", "Walked three kilometers this morning", 80)
	seedItem(t, srv, "p-1", "personal", "Retired schoolteacher from Porto", 70)

	body := `{"intent":"health","role":"owner","session_id":"s1","turn":1}`
	w := doJSON(t, srv, "POST", "/api/context/select", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		RunID  string                   `json:"run_id"`
		Result selector.SelectionResult `json:"result"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.RunID == "" {
		t.Error("missing run_id")
	}
	if len(resp.Result.Included) != 2 {
		t.Errorf("included %d items, want 2", len(resp.Result.Included))
	}

	// the run was persisted
	w = doJSON(t, srv, "GET", "/api/runs", "")
	var runs struct {
		Count int `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &runs)
	if runs.Count != 1 {
		t.Errorf("persisted runs = %d, want 1", runs.Count)
	}

	w = doJSON(t, srv, "GET", "/api/runs/"+resp.RunID, "")
	if w.Code != http.StatusOK {
		t.Errorf("get run: status = %d", w.Code)
	}

	w = doJSON(t, srv, "GET", "/api/runs/"+resp.RunID+"/debug", "")
	if w.Code != http.StatusOK {
		t.Fatalf("debug: status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Selection Debug") {
		t.Errorf("debug output missing header: %s", w.Body.String())
	}
}

func TestSelectRouteInvalidJSON(t *testing.T) {
	srv := testServer(t)

	w := doJSON(t, srv, "POST", "/api/context/select", "not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSelectRouteQualityOutOfRange(t *testing.T) {
	srv := testServer(t)

	w := doJSON(t, srv, "POST", "/api/context/select", `{"quality":1.5}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSelectDefaultsToRestrictedRole(t *testing.T) {
	srv := testServer(t)
	seedItem(t, srv, "h-1", "health", "New medication started after the diagnosis", 80)

	w := doJSON(t, srv, "POST", "/api/context/select", `{"intent":"health"}`)
	var resp struct {
		Result selector.SelectionResult `json:"result"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)

	if len(resp.Result.Included) != 0 {
		t.Fatalf("sensitive item visible without a role claim")
	}
	if len(resp.Result.Excluded) != 1 || resp.Result.Excluded[0].Reason != selector.ReasonRoleRestricted {
		t.Errorf("excluded = %+v, want role_restricted", resp.Result.Excluded)
	}
}

func TestGetContextRendered(t *testing.T) {
	srv := testServer(t)
	seedItem(t, srv, "h-1", "health", "Walked three kilometers this morning", 80)
	seedItem(t, srv, "t-1", "tasks", "Water the tomatoes before noon", 60)

	w := doJSON(t, srv, "GET", "/api/context?intent=health&role=owner", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	ctx := resp["context"]
	if !strings.Contains(ctx, "## Curator: Assembled Context") {
		t.Errorf("context missing header: %s", ctx)
	}
	if !strings.Contains(ctx, "### Health") {
		t.Errorf("context missing health section: %s", ctx)
	}
	if !strings.Contains(ctx, "Walked three kilometers") {
		t.Errorf("context missing item content: %s", ctx)
	}
}

func TestGetRunMissing(t *testing.T) {
	srv := testServer(t)

	w := doJSON(t, srv, "GET", "/api/runs/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	srv := testServer(t)

	w := doJSON(t, srv, "GET", "/api/config", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: status = %d", w.Code)
	}
	var cfg selector.BudgetConfig
	json.Unmarshal(w.Body.Bytes(), &cfg)
	if cfg.TotalItemLimit != 15 {
		t.Errorf("default total_item_limit = %d, want 15", cfg.TotalItemLimit)
	}

	cfg.TotalItemLimit = 9
	body, _ := json.Marshal(cfg)
	w = doJSON(t, srv, "PUT", "/api/config", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("put: status = %d; body: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, srv, "GET", "/api/config", "")
	json.Unmarshal(w.Body.Bytes(), &cfg)
	if cfg.TotalItemLimit != 9 {
		t.Errorf("updated total_item_limit = %d, want 9", cfg.TotalItemLimit)
	}
}

func TestPutConfigInvalid(t *testing.T) {
	srv := testServer(t)

	cfg := selector.DefaultBudget()
	cfg.TotalItemLimit = -1
	body, _ := json.Marshal(cfg)

	w := doJSON(t, srv, "PUT", "/api/config", string(body))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusUnprocessableEntity, w.Body.String())
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["field"] != "total_item_limit" {
		t.Errorf("field = %q, want total_item_limit", resp["field"])
	}
}

func TestContextRenderEmpty(t *testing.T) {
	out := renderContext(selector.SelectionResult{})
	if !strings.Contains(out, "no memories met the inclusion criteria") {
		t.Errorf("empty render = %s", out)
	}
	if !strings.HasPrefix(out, "<context>") || !strings.HasSuffix(out, "</context>") {
		t.Errorf("render missing wrapper: %s", out)
	}
}
