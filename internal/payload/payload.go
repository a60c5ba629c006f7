// Package payload defines the structured blocks exchanged between the chat
// backend and the dashboard UI. A block travels inside the chat text,
// wrapped in [[data]] ... [[/data]] markers, and always carries a "type"
// discriminator (except the record-save envelope, which carries "table").
package payload

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	blockOpen  = "[[data]]"
	blockClose = "[[/data]]"
)

// TypeStatus identifies a report-status block.
const TypeStatus = "laporan_status"

// TypeDetailedItem identifies an item history block.
const TypeDetailedItem = "detailed_item_report"

// TypeTroubleshooting identifies a troubleshooting guide block.
const TypeTroubleshooting = "troubleshooting_guide"

// Status is the report-status lookup result.
type Status struct {
	Type             string `json:"type"`
	IDLaporan        string `json:"id_laporan"`
	DeskripsiLaporan string `json:"deskripsi_laporan"`
	StatusLaporan    string `json:"status_laporan"`
	CatatanStatus    string `json:"catatan_status"`
	TanggalUpdate    string `json:"tanggal_update"`
}

// ItemList wraps a list of display lines.
type ItemList struct {
	Items []string `json:"items"`
}

// DetailedItem bundles an inventory item's full history.
type DetailedItem struct {
	Type              string   `json:"type"`
	IDInventaris      string   `json:"id_inventaris"`
	NamaBarang        string   `json:"nama_barang"`
	StatusBarang      string   `json:"status_barang"`
	RiwayatKerusakan  ItemList `json:"riwayat_kerusakan"`
	CatatanTeknis     ItemList `json:"catatan_teknis"`
	RiwayatPeminjaman ItemList `json:"riwayat_peminjaman"`
}

// TroubleshootingStep is one ordered repair action.
type TroubleshootingStep struct {
	Urutan   int    `json:"urutan"`
	Tindakan string `json:"tindakan"`
	Detail   string `json:"detail"`
}

// TroubleshootingTip is a short annotated hint.
type TroubleshootingTip struct {
	Ikon string `json:"ikon"`
	Teks string `json:"teks"`
}

// SolutionAnalysis weighs a proposed fix.
type SolutionAnalysis struct {
	Kelebihan  []string `json:"kelebihan"`
	Kekurangan []string `json:"kekurangan"`
}

// Troubleshooting is the assistant-produced repair guide.
type Troubleshooting struct {
	Type     string                `json:"type"`
	IDTiket  string                `json:"id_tiket"`
	Judul    string                `json:"judul"`
	Gejala   string                `json:"gejala"`
	Langkah  []TroubleshootingStep `json:"langkah_penanganan"`
	Tips     []TroubleshootingTip  `json:"tips_terbaik"`
	Analisis SolutionAnalysis      `json:"analisis_solusi"`
}

// SaveEnvelope asks the caller to persist a record into a collection.
type SaveEnvelope struct {
	Table   string         `json:"table"`
	Payload map[string]any `json:"payload"`
}

// Wrap serializes v into a tagged block ready to append to chat text.
func Wrap(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding payload block: %w", err)
	}
	return blockOpen + string(b) + blockClose, nil
}

// Extract returns every tagged block in text, plus the text with the
// blocks removed. Malformed JSON inside a block is skipped, not fatal;
// the caller decides how to report it.
func Extract(text string) (blocks []json.RawMessage, rest string, malformed int) {
	var sb strings.Builder
	remaining := text
	for {
		start := strings.Index(remaining, blockOpen)
		if start < 0 {
			sb.WriteString(remaining)
			break
		}
		end := strings.Index(remaining[start:], blockClose)
		if end < 0 {
			sb.WriteString(remaining)
			break
		}
		sb.WriteString(remaining[:start])
		raw := remaining[start+len(blockOpen) : start+end]
		if json.Valid([]byte(raw)) {
			blocks = append(blocks, json.RawMessage(raw))
		} else {
			malformed++
		}
		remaining = remaining[start+end+len(blockClose):]
	}
	return blocks, strings.TrimSpace(sb.String()), malformed
}

// FindSave scans blocks for a record-save envelope and decodes the first
// one found.
func FindSave(blocks []json.RawMessage) (*SaveEnvelope, bool) {
	for _, b := range blocks {
		var env SaveEnvelope
		if err := json.Unmarshal(b, &env); err != nil {
			continue
		}
		if env.Table != "" && env.Payload != nil {
			return &env, true
		}
	}
	return nil, false
}
