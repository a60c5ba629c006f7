package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sikilat/sikilat/internal/assistant"
	"github.com/sikilat/sikilat/internal/chat"
	"github.com/sikilat/sikilat/internal/intent"
	"github.com/sikilat/sikilat/internal/store"
)

const testToken = "test-token"

func newTestHandler(t *testing.T) (http.Handler, *store.Store) {
	t.Helper()
	kv, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	s := store.New(kv)
	t.Cleanup(func() { s.Close() })
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	delegate := assistant.New(assistant.NewClient(""), s, "chat-m", "reason-m")
	matcher := intent.New(s, delegate.Available())
	svc := chat.New(matcher, delegate, s)

	return NewAppHandler(AppDeps{Store: s, Chat: svc, Token: testToken}), s
}

func doRequest(t *testing.T, h http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthUnauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := doRequest(t, h, http.MethodGet, "/health", "", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var body map[string]string
	json.NewDecoder(rr.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("body = %v, want status=ok", body)
	}
}

func TestAuthRequired(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := doRequest(t, h, http.MethodGet, "/records/pengguna", "", false)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest(http.MethodGet, "/records/pengguna", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status with wrong token = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestListRecords(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := doRequest(t, h, http.MethodGet, "/records/inventaris", "", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	var records []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 7 {
		t.Errorf("records = %d, want 7 seeded items", len(records))
	}
}

func TestListRecordsUnknownEntity(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := doRequest(t, h, http.MethodGet, "/records/tabel_misterius", "", true)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetRecord(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := doRequest(t, h, http.MethodGet, "/records/laporan_kerusakan/LAP-001", "", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	var rec map[string]any
	json.NewDecoder(rr.Body).Decode(&rec)
	if rec["id"] != "LAP-001" {
		t.Errorf("record = %v", rec)
	}

	rr = doRequest(t, h, http.MethodGet, "/records/laporan_kerusakan/LAP-404", "", true)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status for missing record = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestUpsertRecord(t *testing.T) {
	h, s := newTestHandler(t)

	body := `{"id":"LAP-600","deskripsi":"keran bocor","status":"Pending","kategori_aset":"Facilities"}`
	rr := doRequest(t, h, http.MethodPost, "/records/laporan_kerusakan", body, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	var result map[string]string
	json.NewDecoder(rr.Body).Decode(&result)
	if result["id"] != "LAP-600" || result["status"] != "saved" {
		t.Errorf("result = %v", result)
	}

	if _, err := s.FindByKey(context.Background(), store.EntityReports, "LAP-600"); err != nil {
		t.Errorf("record not persisted: %v", err)
	}
}

func TestUpsertRecordEmptyBody(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := doRequest(t, h, http.MethodPost, "/records/laporan_kerusakan", `{}`, true)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestChatEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"role":"guru","id_pengguna":"USR-004","pesan":"cek status laporan: LAP-001"}`
	rr := doRequest(t, h, http.MethodPost, "/chat", body, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	var resp chat.Response
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Rule != "status_lookup" {
		t.Errorf("rule = %q, want status_lookup", resp.Rule)
	}
	if !strings.Contains(resp.Reply, "LAP-001") {
		t.Errorf("reply = %q", resp.Reply)
	}
}

func TestChatEndpointValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing message", `{"role":"guru"}`},
		{"missing role", `{"pesan":"halo"}`},
		{"unknown role", `{"role":"kepala_sekolah","pesan":"halo"}`},
		{"invalid json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, h, http.MethodPost, "/chat", tt.body, true)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestDashboardSummaryEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := doRequest(t, h, http.MethodGet, "/dashboard/summary", "", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	var sum struct {
		TotalItems   int `json:"total_barang"`
		TotalReports int `json:"total_laporan"`
	}
	json.NewDecoder(rr.Body).Decode(&sum)
	if sum.TotalItems != 7 || sum.TotalReports != 3 {
		t.Errorf("summary = %+v, want the seeded counts", sum)
	}
}
