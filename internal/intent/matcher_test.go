package intent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sikilat/sikilat/internal/model"
	"github.com/sikilat/sikilat/internal/rbac"
	"github.com/sikilat/sikilat/internal/store"
)

func newTestMatcher(t *testing.T, assistantOn bool) (*Matcher, *store.Store) {
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

	m := New(s, assistantOn)
	m.now = func() time.Time { return time.Date(2025, 8, 30, 10, 0, 0, 0, time.UTC) }
	m.newID = func() string { return "0123abcd-0000-0000-0000-000000000000" }
	return m, s
}

func reportStatus(t *testing.T, s *store.Store, id string) string {
	t.Helper()
	rec, err := s.FindByKey(context.Background(), store.EntityReports, id)
	if err != nil {
		t.Fatalf("FindByKey(%s): %v", id, err)
	}
	status, _ := rec["status"].(string)
	return status
}

func reportCount(t *testing.T, s *store.Store) int {
	t.Helper()
	records, err := s.GetCollection(context.Background(), store.EntityReports)
	if err != nil {
		t.Fatalf("GetCollection: %v", err)
	}
	return len(records)
}

// TestRuleOrder pins the catalog order. Several predicates overlap, so
// reordering silently changes which rule answers a message.
func TestRuleOrder(t *testing.T) {
	m, _ := newTestMatcher(t, true)

	want := []string{
		"defer_to_assistant",
		"update_status_command",
		"update_status_help",
		"guest_incident",
		"status_lookup",
		"item_history",
		"inventory_search",
		"offline_summary",
	}
	got := m.RuleNames()
	if len(got) != len(want) {
		t.Fatalf("rule count = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rule %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestMutatingRulesCarryAction verifies every rule that writes to the
// store goes through the capability table, and read-only rules do not.
func TestMutatingRulesCarryAction(t *testing.T) {
	m, _ := newTestMatcher(t, true)

	want := map[string]rbac.Action{
		"update_status_command": rbac.ActionUpdateReportStatus,
		"update_status_help":    rbac.ActionUpdateReportStatus,
		"guest_incident":        rbac.ActionReportIncident,
	}
	for _, r := range m.rules {
		if action, ok := want[r.name]; ok {
			if r.action != action {
				t.Errorf("rule %s action = %q, want %q", r.name, r.action, action)
			}
			continue
		}
		if r.action != "" {
			t.Errorf("read-only rule %s carries action %q", r.name, r.action)
		}
	}
}

func TestUpdateCommandAuthorized(t *testing.T) {
	m, s := newTestMatcher(t, true)

	res, err := m.Handle(context.Background(), Input{
		UserID:  "USR-002",
		Role:    model.RolePenanggungJawab,
		Message: "Perbarui status laporan LAP-003 menjadi Proses",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if res.Kind != Answered || res.Rule != "update_status_command" {
		t.Fatalf("result = %+v, want answered by update_status_command", res)
	}
	if !strings.Contains(res.Reply, "LAP-003") || !strings.Contains(res.Reply, "Proses") {
		t.Errorf("reply %q should name the report and the new status", res.Reply)
	}
	if res.SavedID != "LAP-003" {
		t.Errorf("SavedID = %q, want LAP-003", res.SavedID)
	}
	if got := reportStatus(t, s, "LAP-003"); got != "Proses" {
		t.Errorf("persisted status = %q, want Proses", got)
	}

	rec, _ := s.FindByKey(context.Background(), store.EntityReports, "LAP-003")
	if rec["id_penyelesai"] != "USR-002" {
		t.Errorf("id_penyelesai = %v, want USR-002", rec["id_penyelesai"])
	}
}

func TestUpdateCommandDenied(t *testing.T) {
	m, s := newTestMatcher(t, true)

	res, err := m.Handle(context.Background(), Input{
		UserID:  "USR-003",
		Role:    model.RolePengawasIT,
		Message: "Perbarui status laporan LAP-003 menjadi Proses",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if res.Kind != Denied {
		t.Fatalf("kind = %v, want Denied", res.Kind)
	}
	if res.Reply != deniedReply {
		t.Errorf("reply = %q, want the access-denied message", res.Reply)
	}
	if got := reportStatus(t, s, "LAP-003"); got != "Pending" {
		t.Errorf("status mutated to %q despite denial", got)
	}
}

func TestUpdateCommandStatusKeywordVariants(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"Ubah status laporan LAP-003 jadi dikerjakan ya", "Proses"},
		{"update status laporan LAP-003 ke done", "Selesai"},
		{"Ganti status laporan LAP-003 menjadi tunda dulu", "Pending"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			m, s := newTestMatcher(t, true)
			res, err := m.Handle(context.Background(), Input{
				Role:    model.RoleAdmin,
				Message: tt.message,
			})
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if res.Rule != "update_status_command" {
				t.Fatalf("rule = %q, want update_status_command", res.Rule)
			}
			if got := reportStatus(t, s, "LAP-003"); got != tt.want {
				t.Errorf("status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUpdateCommandUnrecognizedStatusFallsThrough(t *testing.T) {
	m, s := newTestMatcher(t, true)

	res, err := m.Handle(context.Background(), Input{
		Role:    model.RolePenanggungJawab,
		Message: "Perbarui status laporan LAP-003 menjadi hancur",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if res.Rule == "update_status_command" || res.Rule == "update_status_help" {
		t.Errorf("update rules fired on unrecognized status keyword: %q", res.Rule)
	}
	if got := reportStatus(t, s, "LAP-003"); got != "Pending" {
		t.Errorf("status mutated to %q, want unchanged Pending", got)
	}
}

func TestUpdateHelpListsActiveReports(t *testing.T) {
	m, _ := newTestMatcher(t, true)

	res, err := m.Handle(context.Background(), Input{
		Role:    model.RoleAdmin,
		Message: "Saya mau ubah status laporan dong",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if res.Rule != "update_status_help" {
		t.Fatalf("rule = %q, want update_status_help", res.Rule)
	}
	// LAP-001 is Selesai and must not appear in the active list.
	if strings.Contains(res.Reply, "LAP-001") {
		t.Errorf("help reply lists a completed report: %q", res.Reply)
	}
	if !strings.Contains(res.Reply, "LAP-003") || !strings.Contains(res.Reply, "LAP-002") {
		t.Errorf("help reply should list active reports, got %q", res.Reply)
	}
	if !strings.Contains(res.Reply, "Contoh perintah") {
		t.Errorf("help reply should include a worked example, got %q", res.Reply)
	}
}

func TestGuestIncidentCreatesReport(t *testing.T) {
	m, s := newTestMatcher(t, true)
	before := reportCount(t, s)

	res, err := m.Handle(context.Background(), Input{
		UserID:  "",
		Role:    model.RoleTamu,
		Message: "Ada meja rusak dan sampah berserakan di aula",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if res.Kind != Answered || res.Rule != "guest_incident" {
		t.Fatalf("result = %+v, want answered by guest_incident", res)
	}
	if res.SavedID == "" || !strings.Contains(res.Reply, res.SavedID) {
		t.Errorf("reply %q should contain the new report id %q", res.Reply, res.SavedID)
	}

	if after := reportCount(t, s); after != before+1 {
		t.Fatalf("report count = %d, want %d (exactly one new report)", after, before+1)
	}

	rec, err := s.FindByKey(context.Background(), store.EntityReports, res.SavedID)
	if err != nil {
		t.Fatalf("FindByKey(%s): %v", res.SavedID, err)
	}
	if rec["status"] != "Pending" {
		t.Errorf("status = %v, want Pending", rec["status"])
	}
	if rec["kategori_aset"] != model.CategoryGeneral {
		t.Errorf("kategori_aset = %v, want General", rec["kategori_aset"])
	}
}

func TestGuestIncidentRequiresGuestRole(t *testing.T) {
	m, s := newTestMatcher(t, true)
	before := reportCount(t, s)

	res, err := m.Handle(context.Background(), Input{
		Role:    model.RoleGuru,
		Message: "Ada meja rusak di kelas",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if res.Rule == "guest_incident" {
		t.Error("guest_incident fired for a non-guest role")
	}
	if after := reportCount(t, s); after != before {
		t.Errorf("report count changed: %d -> %d", before, after)
	}
}

func TestStatusLookup(t *testing.T) {
	m, _ := newTestMatcher(t, true)

	for _, message := range []string{
		"cek status laporan: LAP-001",
		"lacak laporan LAP-001",
		"lacak#LAP-001",
	} {
		t.Run(message, func(t *testing.T) {
			res, err := m.Handle(context.Background(), Input{Role: model.RoleGuru, Message: message})
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if res.Rule != "status_lookup" {
				t.Fatalf("rule = %q, want status_lookup", res.Rule)
			}
			if !strings.Contains(res.Reply, "LAP-001") {
				t.Errorf("reply %q should name the report", res.Reply)
			}
			if !strings.Contains(res.Reply, "[[data]]") || !strings.Contains(res.Reply, `"laporan_status"`) {
				t.Errorf("reply %q should carry a structured status block", res.Reply)
			}
		})
	}
}

func TestStatusLookupNotFound(t *testing.T) {
	m, s := newTestMatcher(t, true)
	before := reportCount(t, s)

	res, err := m.Handle(context.Background(), Input{
		Role:    model.RoleGuru,
		Message: "cek status laporan: LAP-999",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if res.Kind != Answered || !strings.Contains(res.Reply, "tidak ditemukan") {
		t.Errorf("result = %+v, want a not-found message", res)
	}
	if after := reportCount(t, s); after != before {
		t.Errorf("lookup mutated the store: %d -> %d", before, after)
	}
}

func TestStatusLookupShortIdentifier(t *testing.T) {
	m, _ := newTestMatcher(t, true)

	res, err := m.Handle(context.Background(), Input{
		Role:    model.RoleGuru,
		Message: "cek status: ab",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Rule == "status_lookup" {
		t.Errorf("status_lookup fired on a 2-character identifier")
	}
}

func TestItemHistory(t *testing.T) {
	m, _ := newTestMatcher(t, true)

	res, err := m.Handle(context.Background(), Input{
		Role:    model.RolePengawasIT,
		Message: "tolong riwayat lengkap untuk id INV-002",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if res.Rule != "item_history" {
		t.Fatalf("rule = %q, want item_history", res.Rule)
	}
	if !strings.Contains(res.Reply, "Proyektor Epson EB-X500") {
		t.Errorf("reply %q should name the item", res.Reply)
	}
	// INV-002 has one seeded damage report and one seeded booking.
	if !strings.Contains(res.Reply, "LAP-001") || !strings.Contains(res.Reply, "PJM-001") {
		t.Errorf("reply %q should include damage and booking history", res.Reply)
	}
}

// TestInventorySearchFacilities pins the narrowing order: "fasilitas"
// contains the substring "it", so the facilities check must run before
// the IT-category check or every facility query flips to IT results.
func TestInventorySearchFacilities(t *testing.T) {
	m, _ := newTestMatcher(t, true)

	res, err := m.Handle(context.Background(), Input{
		Role:    model.RoleGuru,
		Message: "lihat barang fasilitas",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if res.Rule != "inventory_search" {
		t.Fatalf("rule = %q, want inventory_search", res.Rule)
	}
	if !strings.Contains(res.Reply, "Kursi Lipat Aula") || !strings.Contains(res.Reply, "AC Ruang Guru") {
		t.Errorf("reply %q should list the facility items", res.Reply)
	}
	if strings.Contains(res.Reply, "Server Rack Utama") {
		t.Errorf("reply %q lists IT items for a facility query", res.Reply)
	}
}

func TestInventorySearchServer(t *testing.T) {
	m, _ := newTestMatcher(t, true)

	res, err := m.Handle(context.Background(), Input{
		Role:    model.RoleGuru,
		Message: "cek server",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if res.Rule != "inventory_search" {
		t.Fatalf("rule = %q, want inventory_search", res.Rule)
	}
	if !strings.Contains(res.Reply, "Server Rack Utama") {
		t.Errorf("reply %q should list the server item", res.Reply)
	}
	if strings.Contains(res.Reply, "Proyektor") || strings.Contains(res.Reply, "Kursi") {
		t.Errorf("reply %q lists items whose name does not contain the keyword", res.Reply)
	}

	if bullets := strings.Count(res.Reply, "•"); bullets > 5 {
		t.Errorf("reply lists %d items, want at most 5", bullets)
	}
}

func TestInventorySearchCapsAtFive(t *testing.T) {
	m, _ := newTestMatcher(t, true)

	// No narrowing sub-keyword: all 7 seeded items qualify, 5 shown.
	res, err := m.Handle(context.Background(), Input{
		Role:    model.RoleGuru,
		Message: "lihat semua barang",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if res.Rule != "inventory_search" {
		t.Fatalf("rule = %q, want inventory_search", res.Rule)
	}
	if bullets := strings.Count(res.Reply, "•"); bullets != 5 {
		t.Errorf("reply lists %d items, want 5", bullets)
	}
}

func TestAnalysisDefersWhenAssistantAvailable(t *testing.T) {
	m, _ := newTestMatcher(t, true)

	res, err := m.Handle(context.Background(), Input{
		Role:    model.RolePenanggungJawab,
		Message: "berikan analisis laporan kerusakan bulan ini",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Kind != Unhandled {
		t.Errorf("result = %+v, want unhandled (deferred to assistant)", res)
	}
}

func TestOfflineSummaryWhenAssistantUnavailable(t *testing.T) {
	m, _ := newTestMatcher(t, false)

	res, err := m.Handle(context.Background(), Input{
		Role:    model.RolePenanggungJawab,
		Message: "berikan analisis laporan kerusakan bulan ini",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if res.Rule != "offline_summary" {
		t.Fatalf("rule = %q, want offline_summary", res.Rule)
	}
	// Seed data: 3 reports, 2 IT, 1 pending.
	if !strings.Contains(res.Reply, "Total laporan: 3") ||
		!strings.Contains(res.Reply, "Kategori IT: 2") ||
		!strings.Contains(res.Reply, "Masih pending: 1") {
		t.Errorf("summary %q does not match the seeded counts", res.Reply)
	}
}

func TestUnmatchedMessageIsUnhandled(t *testing.T) {
	m, _ := newTestMatcher(t, true)

	res, err := m.Handle(context.Background(), Input{
		Role:    model.RoleGuru,
		Message: "halo, apa kabar?",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Kind != Unhandled || res.Rule != "" {
		t.Errorf("result = %+v, want unhandled", res)
	}
}
