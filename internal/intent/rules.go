package intent

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sikilat/sikilat/internal/model"
	"github.com/sikilat/sikilat/internal/payload"
	"github.com/sikilat/sikilat/internal/rbac"
	"github.com/sikilat/sikilat/internal/store"
)

const deniedReply = "Maaf, hanya penanggung jawab atau admin yang dapat mengubah status laporan."

// trackPrefix is the literal prefix the tracking form submits.
const trackPrefix = "lacak#"

func lowercase(s string) string { return strings.ToLower(s) }

// containsAny uses plain substring containment, not token boundaries. A
// keyword inside a longer word still matches; the original behaves the
// same way.
func containsAny(lower string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

var analysisWords = []string{"analisis", "analisa", "ringkasan", "statistik", "rekomendasi"}
var contactWords = []string{"kontak", "hubungi", "telepon", "nomor hp", "email"}

// IsAnalysisIntent reports whether msg asks for aggregate analysis. The
// assistant reuses this to decide on context injection.
func IsAnalysisIntent(msg string) bool { return containsAny(lowercase(msg), analysisWords...) }

// IsContactIntent reports whether msg asks for staff contact details.
func IsContactIntent(msg string) bool { return containsAny(lowercase(msg), contactWords...) }

// updateCmdRe captures the report id and the requested status from an
// explicit status-update command. It requires the word "status" plus one
// of a small verb set.
var updateCmdRe = regexp.MustCompile(`(?i)\b(?:perbarui|ubah|update|ganti)\b.*\bstatus\b.*\blaporan\b[:\s]+([A-Za-z0-9_-]+)\s+(?:menjadi|jadi|ke)\s+(\S.*)`)

// updateIntentWords flag a vague wish to update some status.
var updateIntentWords = []string{"perbarui status", "ubah status", "update status", "ganti status"}

// Longest phrase first, so "cek status laporan: X" captures X and not the
// word "laporan".
var lookupRe = regexp.MustCompile(`(?i)\b(?:cek\s+status(?:\s+laporan)?|lacak\s+laporan|status\s+(?:untuk|laporan))\b[:\s]+([A-Za-z0-9_-]+)`)

var historyRe = regexp.MustCompile(`(?i)\briwayat\b.*\bid\s+([A-Za-z0-9_-]+)`)

var guestIncidentWords = []string{"sampah", "berantakan", "rusak", "berserakan"}

var searchVerbs = []string{"cek", "cari", "lihat", "status", "info"}
var searchNouns = []string{"inventaris", "aset", "barang", "server", "jaringan", "wifi", "komputer", "laptop", "proyektor"}

// statusKeywords maps free-text status words onto the workflow enum. Order
// matters: the in-progress group is tried first, then done, then pending;
// the first containment hit wins.
var statusKeywords = []struct {
	status model.ReportStatus
	words  []string
}{
	{model.ReportProses, []string{"proses", "progress", "dikerjakan", "tangani"}},
	{model.ReportSelesai, []string{"selesai", "done", "beres", "tuntas"}},
	{model.ReportPending, []string{"pending", "tunda", "menunggu"}},
}

func mapStatusKeyword(text string) (model.ReportStatus, bool) {
	lower := lowercase(text)
	for _, group := range statusKeywords {
		if containsAny(lower, group.words...) {
			return group.status, true
		}
	}
	return "", false
}

// ruleCatalog returns the rules in priority order. The order is part of
// the contract: several predicates overlap and the earlier rule must win.
func ruleCatalog() []rule {
	return []rule{
		{name: "defer_to_assistant", match: matchDefer, handle: handleDefer},
		{name: "update_status_command", action: rbac.ActionUpdateReportStatus, match: matchUpdateCmd, handle: handleUpdateCmd},
		{name: "update_status_help", action: rbac.ActionUpdateReportStatus, match: matchUpdateHelp, handle: handleUpdateHelp},
		{name: "guest_incident", action: rbac.ActionReportIncident, match: matchGuestIncident, handle: handleGuestIncident},
		{name: "status_lookup", match: matchLookup, handle: handleLookup},
		{name: "item_history", match: matchHistory, handle: handleHistory},
		{name: "inventory_search", match: matchSearch, handle: handleSearch},
		{name: "offline_summary", match: matchOfflineSummary, handle: handleOfflineSummary},
	}
}

// --- rule 1: defer analysis/contact intents to the assistant ---

func matchDefer(m *Matcher, _ Input, lower string) ([]string, bool) {
	if !m.assistantOn {
		return nil, false
	}
	if containsAny(lower, analysisWords...) || containsAny(lower, contactWords...) {
		return nil, true
	}
	return nil, false
}

func handleDefer(context.Context, *Matcher, Input, []string) (Result, error) {
	return Result{Kind: Unhandled}, nil
}

// --- rule 2: explicit status-update command ---

func matchUpdateCmd(_ *Matcher, in Input, _ string) ([]string, bool) {
	groups := updateCmdRe.FindStringSubmatch(in.Message)
	if groups == nil {
		return nil, false
	}
	status, ok := mapStatusKeyword(groups[2])
	if !ok {
		// Unrecognized status keyword: the rule does not fire at all.
		return nil, false
	}
	return []string{groups[1], string(status)}, true
}

func handleUpdateCmd(ctx context.Context, m *Matcher, in Input, args []string) (Result, error) {
	id, status := args[0], args[1]
	rec, err := m.findReport(ctx, id)
	if err == store.ErrNotFound {
		return Result{Kind: Answered, Reply: fmt.Sprintf("Laporan %s tidak ditemukan. Periksa kembali ID laporannya.", id)}, nil
	}
	if err != nil {
		return Result{}, err
	}

	rec["status"] = status
	if in.UserID != "" {
		rec["id_penyelesai"] = in.UserID
	}
	key, err := m.store.Upsert(ctx, store.EntityReports, rec)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Kind:    Answered,
		Reply:   fmt.Sprintf("Siap. Status laporan %s telah diperbarui menjadi %s.", id, status),
		SavedID: key,
	}, nil
}

// --- rule 3: vague update intent, answer with a worked example ---

func matchUpdateHelp(_ *Matcher, _ Input, lower string) ([]string, bool) {
	if !containsAny(lower, updateIntentWords...) {
		return nil, false
	}
	// A full command belongs to the previous rule; if its shape is present
	// the vague-intent rule stays silent even when the status keyword was
	// not recognized.
	if updateCmdRe.MatchString(lower) {
		return nil, false
	}
	return nil, true
}

func handleUpdateHelp(ctx context.Context, m *Matcher, _ Input, _ []string) (Result, error) {
	reports, err := m.activeReports(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(reports) == 0 {
		return Result{Kind: Answered, Reply: "Tidak ada laporan aktif saat ini. Semua laporan sudah berstatus Selesai."}, nil
	}

	var sb strings.Builder
	sb.WriteString("Laporan yang masih aktif:\n")
	for i, r := range reports {
		if i == 5 {
			break
		}
		fmt.Fprintf(&sb, "• %s (%s): %s\n", r.ID, r.Status, r.Deskripsi)
	}
	fmt.Fprintf(&sb, "\nContoh perintah: \"Perbarui status laporan %s menjadi Proses\"", reports[0].ID)
	return Result{Kind: Answered, Reply: sb.String()}, nil
}

// --- rule 4: guest free-text incident report ---

func matchGuestIncident(_ *Matcher, in Input, lower string) ([]string, bool) {
	if in.Role != model.RoleTamu {
		return nil, false
	}
	if !containsAny(lower, guestIncidentWords...) {
		return nil, false
	}
	return nil, true
}

func handleGuestIncident(ctx context.Context, m *Matcher, in Input, _ []string) (Result, error) {
	id, err := m.newReportID(ctx)
	if err != nil {
		return Result{}, err
	}
	rec := store.Record{
		"id":            id,
		"id_pengguna":   in.UserID,
		"tanggal_lapor": m.now().UTC(),
		"deskripsi":     in.Message,
		"status":        string(model.ReportPending),
		"kategori_aset": model.CategoryGeneral,
	}
	if _, err := m.store.Upsert(ctx, store.EntityReports, rec); err != nil {
		return Result{}, err
	}
	return Result{
		Kind:    Answered,
		Reply:   fmt.Sprintf("Terima kasih atas laporannya. Laporan Anda tercatat dengan nomor %s dan akan segera ditindaklanjuti.", id),
		SavedID: id,
	}, nil
}

// --- rule 5: status lookup by report id ---

func matchLookup(_ *Matcher, in Input, lower string) ([]string, bool) {
	if strings.HasPrefix(lower, trackPrefix) {
		id := strings.TrimSpace(in.Message[len(trackPrefix):])
		if len(id) >= 3 {
			return []string{id}, true
		}
		return nil, false
	}
	groups := lookupRe.FindStringSubmatch(in.Message)
	if groups == nil {
		return nil, false
	}
	// Short fragments are too ambiguous to be identifiers.
	if len(groups[1]) < 3 {
		return nil, false
	}
	return []string{groups[1]}, true
}

func handleLookup(ctx context.Context, m *Matcher, _ Input, args []string) (Result, error) {
	id := args[0]
	rec, err := m.findReport(ctx, id)
	if err == store.ErrNotFound {
		return Result{Kind: Answered, Reply: fmt.Sprintf("Laporan %s tidak ditemukan. Periksa kembali ID laporannya.", id)}, nil
	}
	if err != nil {
		return Result{}, err
	}

	var rep model.DamageReport
	if err := model.FromMap(rec, &rep); err != nil {
		return Result{}, fmt.Errorf("decoding report %s: %w", id, err)
	}

	block, err := payload.Wrap(payload.Status{
		Type:             payload.TypeStatus,
		IDLaporan:        rep.ID,
		DeskripsiLaporan: rep.Deskripsi,
		StatusLaporan:    string(rep.Status),
		CatatanStatus:    statusNote(rep.Status),
		TanggalUpdate:    m.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Result{}, err
	}
	return Result{
		Kind:  Answered,
		Reply: fmt.Sprintf("Berikut status laporan %s:\n%s", rep.ID, block),
	}, nil
}

func statusNote(s model.ReportStatus) string {
	switch s {
	case model.ReportProses:
		return "Laporan sedang ditangani oleh petugas."
	case model.ReportSelesai:
		return "Penanganan sudah selesai."
	default:
		return "Laporan menunggu penanganan."
	}
}

// --- rule 6: detailed item history ---

func matchHistory(_ *Matcher, in Input, _ string) ([]string, bool) {
	groups := historyRe.FindStringSubmatch(in.Message)
	if groups == nil {
		return nil, false
	}
	return []string{groups[1]}, true
}

func handleHistory(ctx context.Context, m *Matcher, _ Input, args []string) (Result, error) {
	id := args[0]
	rec, err := m.findItem(ctx, id)
	if err == store.ErrNotFound {
		return Result{Kind: Answered, Reply: fmt.Sprintf("Barang dengan ID %s tidak ditemukan di inventaris.", id)}, nil
	}
	if err != nil {
		return Result{}, err
	}

	var item model.InventoryItem
	if err := model.FromMap(rec, &item); err != nil {
		return Result{}, fmt.Errorf("decoding item %s: %w", id, err)
	}

	detail := payload.DetailedItem{
		Type:         payload.TypeDetailedItem,
		IDInventaris: item.ID,
		NamaBarang:   item.Nama,
		StatusBarang: item.Kondisi,
		CatatanTeknis: payload.ItemList{Items: []string{
			"Belum ada catatan teknis khusus untuk perangkat ini.",
			"Pemeliharaan rutin mengikuti kalender semester.",
		}},
	}

	reports, err := m.reports(ctx)
	if err != nil {
		return Result{}, err
	}
	for _, r := range reports {
		if strings.EqualFold(r.BarangID, item.ID) {
			detail.RiwayatKerusakan.Items = append(detail.RiwayatKerusakan.Items,
				fmt.Sprintf("%s [%s] %s", r.ID, r.Status, r.Deskripsi))
		}
	}

	bookings, err := m.bookings(ctx)
	if err != nil {
		return Result{}, err
	}
	for _, b := range bookings {
		if strings.EqualFold(b.BarangID, item.ID) {
			detail.RiwayatPeminjaman.Items = append(detail.RiwayatPeminjaman.Items,
				fmt.Sprintf("%s [%s] %s %s-%s: %s", b.ID, b.Status, b.Tanggal, b.JamMulai, b.JamSelesai, b.Keperluan))
		}
	}

	block, err := payload.Wrap(detail)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Kind:  Answered,
		Reply: fmt.Sprintf("Riwayat dan detail teknis untuk %s (%s):\n%s", item.Nama, item.ID, block),
	}, nil
}

// --- rule 7: inventory search fallback ---

func matchSearch(_ *Matcher, _ Input, lower string) ([]string, bool) {
	if containsAny(lower, searchVerbs...) && containsAny(lower, searchNouns...) {
		return nil, true
	}
	return nil, false
}

func handleSearch(ctx context.Context, m *Matcher, in Input, _ []string) (Result, error) {
	items, err := m.inventory(ctx)
	if err != nil {
		return Result{}, err
	}

	lower := lowercase(in.Message)
	var filtered []model.InventoryItem
	switch {
	case strings.Contains(lower, "server"):
		filtered = filterByName(items, "server")
	case strings.Contains(lower, "jaringan"), strings.Contains(lower, "wifi"):
		filtered = filterByName(items, "jaringan", "wifi", "router")
	case strings.Contains(lower, "fasilitas"):
		filtered = filterByCategory(items, model.CategoryFacilities)
	case strings.Contains(lower, "it"):
		filtered = filterByCategory(items, model.CategoryIT)
	default:
		filtered = items
	}

	if len(filtered) == 0 {
		return Result{Kind: Answered, Reply: "Tidak ada barang yang cocok dengan pencarian itu."}, nil
	}

	var sb strings.Builder
	sb.WriteString("Hasil pencarian inventaris:\n")
	for i, it := range filtered {
		if i == 5 {
			break
		}
		fmt.Fprintf(&sb, "• %s — %s (%s)\n", it.Nama, it.Kondisi, it.Kategori)
	}
	return Result{Kind: Answered, Reply: strings.TrimRight(sb.String(), "\n")}, nil
}

func filterByName(items []model.InventoryItem, words ...string) []model.InventoryItem {
	var out []model.InventoryItem
	for _, it := range items {
		if containsAny(lowercase(it.Nama), words...) {
			out = append(out, it)
		}
	}
	return out
}

func filterByCategory(items []model.InventoryItem, category string) []model.InventoryItem {
	var out []model.InventoryItem
	for _, it := range items {
		if it.Kategori == category {
			out = append(out, it)
		}
	}
	return out
}

// --- rule 8: offline analysis fallback ---

func matchOfflineSummary(_ *Matcher, _ Input, lower string) ([]string, bool) {
	if containsAny(lower, "analisis", "analisa", "ringkasan", "statistik") &&
		containsAny(lower, "kerusakan", "laporan", "log") {
		return nil, true
	}
	return nil, false
}

func handleOfflineSummary(ctx context.Context, m *Matcher, _ Input, _ []string) (Result, error) {
	reports, err := m.reports(ctx)
	if err != nil {
		return Result{}, err
	}
	total := len(reports)
	itCount, pending := 0, 0
	for _, r := range reports {
		if r.Kategori == model.CategoryIT {
			itCount++
		}
		if r.Status == model.ReportPending {
			pending++
		}
	}
	reply := fmt.Sprintf(
		"Ringkasan laporan kerusakan:\n• Total laporan: %d\n• Kategori IT: %d\n• Masih pending: %d",
		total, itCount, pending,
	)
	return Result{Kind: Answered, Reply: reply}, nil
}

// --- store helpers ---

func (m *Matcher) reports(ctx context.Context) ([]model.DamageReport, error) {
	records, err := m.store.GetCollection(ctx, store.EntityReports)
	if err != nil {
		return nil, err
	}
	out := make([]model.DamageReport, 0, len(records))
	for _, r := range records {
		var rep model.DamageReport
		if err := model.FromMap(r, &rep); err != nil {
			continue
		}
		out = append(out, rep)
	}
	return out, nil
}

func (m *Matcher) activeReports(ctx context.Context) ([]model.DamageReport, error) {
	reports, err := m.reports(ctx)
	if err != nil {
		return nil, err
	}
	var active []model.DamageReport
	for _, r := range reports {
		if r.Status != model.ReportSelesai {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Tanggal.After(active[j].Tanggal)
	})
	return active, nil
}

func (m *Matcher) inventory(ctx context.Context) ([]model.InventoryItem, error) {
	records, err := m.store.GetCollection(ctx, store.EntityInventory)
	if err != nil {
		return nil, err
	}
	out := make([]model.InventoryItem, 0, len(records))
	for _, r := range records {
		var it model.InventoryItem
		if err := model.FromMap(r, &it); err != nil {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (m *Matcher) bookings(ctx context.Context) ([]model.Booking, error) {
	records, err := m.store.GetCollection(ctx, store.EntityBookings)
	if err != nil {
		return nil, err
	}
	out := make([]model.Booking, 0, len(records))
	for _, r := range records {
		var b model.Booking
		if err := model.FromMap(r, &b); err != nil {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *Matcher) findReport(ctx context.Context, id string) (store.Record, error) {
	records, err := m.store.GetCollection(ctx, store.EntityReports)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if k, ok := store.RecordKey(r); ok && strings.EqualFold(k, id) {
			return r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Matcher) findItem(ctx context.Context, id string) (store.Record, error) {
	records, err := m.store.GetCollection(ctx, store.EntityInventory)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if k, ok := store.RecordKey(r); ok && strings.EqualFold(k, id) {
			return r, nil
		}
	}
	return nil, store.ErrNotFound
}

// newReportID generates a report identifier guaranteed distinct from every
// existing one.
func (m *Matcher) newReportID(ctx context.Context) (string, error) {
	reports, err := m.reports(ctx)
	if err != nil {
		return "", err
	}
	existing := make(map[string]bool, len(reports))
	for _, r := range reports {
		existing[strings.ToUpper(r.ID)] = true
	}
	for {
		id := "LAP-" + strings.ToUpper(m.newID()[:8])
		if !existing[id] {
			return id, nil
		}
	}
}
