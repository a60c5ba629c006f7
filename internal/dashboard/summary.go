// Package dashboard computes the aggregate views the supervisor screens
// render. The same numbers feed the offline analysis chat rule and the
// context block injected into assistant prompts.
package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/sikilat/sikilat/internal/model"
	"github.com/sikilat/sikilat/internal/store"
)

// Summary bundles the dashboard aggregates.
type Summary struct {
	TotalItems       int                  `json:"total_barang"`
	ItemsByCondition map[string]int       `json:"barang_per_kondisi"`
	ItemsByCategory  map[string]int       `json:"barang_per_kategori"`
	TotalReports     int                  `json:"total_laporan"`
	ReportsByStatus  map[string]int       `json:"laporan_per_status"`
	TotalBookings    int                  `json:"total_peminjaman"`
	BookingsByStatus map[string]int       `json:"peminjaman_per_status"`
	RecentReports    []model.DamageReport `json:"laporan_terbaru"`
}

// recentLimit caps the recent-report list in summaries and prompts.
const recentLimit = 5

// Build reads the current collections and computes the aggregates. Each
// read is a separate best-effort query; the result is not a snapshot.
func Build(ctx context.Context, s *store.Store) (Summary, error) {
	sum := Summary{
		ItemsByCondition: map[string]int{},
		ItemsByCategory:  map[string]int{},
		ReportsByStatus:  map[string]int{},
		BookingsByStatus: map[string]int{},
	}

	items, err := s.GetCollection(ctx, store.EntityInventory)
	if err != nil {
		return Summary{}, fmt.Errorf("reading inventory: %w", err)
	}
	sum.TotalItems = len(items)
	for _, r := range items {
		var it model.InventoryItem
		if err := model.FromMap(r, &it); err != nil {
			continue
		}
		sum.ItemsByCondition[it.Kondisi]++
		sum.ItemsByCategory[it.Kategori]++
	}

	reports, err := s.GetCollection(ctx, store.EntityReports)
	if err != nil {
		return Summary{}, fmt.Errorf("reading reports: %w", err)
	}
	sum.TotalReports = len(reports)
	for i, r := range reports {
		var rep model.DamageReport
		if err := model.FromMap(r, &rep); err != nil {
			continue
		}
		sum.ReportsByStatus[string(rep.Status)]++
		if i < recentLimit {
			sum.RecentReports = append(sum.RecentReports, rep)
		}
	}

	bookings, err := s.GetCollection(ctx, store.EntityBookings)
	if err != nil {
		return Summary{}, fmt.Errorf("reading bookings: %w", err)
	}
	sum.TotalBookings = len(bookings)
	for _, r := range bookings {
		var b model.Booking
		if err := model.FromMap(r, &b); err != nil {
			continue
		}
		sum.BookingsByStatus[string(b.Status)]++
	}

	return sum, nil
}

// ContextBlock renders the summary as the plain-text block appended to
// analysis prompts.
func (s Summary) ContextBlock() string {
	var sb strings.Builder
	sb.WriteString("[Data Aset & Laporan Saat Ini]\n")
	fmt.Fprintf(&sb, "Total aset: %d\n", s.TotalItems)
	for _, cond := range []string{model.CondBaik, model.CondRusakRingan, model.CondRusakBerat, model.CondPerbaikan} {
		if n := s.ItemsByCondition[cond]; n > 0 {
			fmt.Fprintf(&sb, "- Kondisi %s: %d\n", cond, n)
		}
	}
	fmt.Fprintf(&sb, "Total laporan kerusakan: %d\n", s.TotalReports)
	for _, st := range []model.ReportStatus{model.ReportPending, model.ReportProses, model.ReportSelesai} {
		fmt.Fprintf(&sb, "- Status %s: %d\n", st, s.ReportsByStatus[string(st)])
	}
	if len(s.RecentReports) > 0 {
		sb.WriteString("Laporan terbaru:\n")
		for _, r := range s.RecentReports {
			fmt.Fprintf(&sb, "- %s (%s): %s\n", r.ID, r.Status, r.Deskripsi)
		}
	}
	return sb.String()
}
