// Package model defines the record shapes stored by the SIKILAT record
// store. JSON field names match the serialized collections, so a typed
// struct and its store.Record form round-trip through encoding/json.
package model

import (
	"encoding/json"
	"time"
)

// Role is a user's role in the school.
type Role string

const (
	RoleAdmin           Role = "admin"
	RolePenanggungJawab Role = "penanggung_jawab"
	RolePengawasIT      Role = "pengawas_it"
	RoleGuru            Role = "guru"
	RoleSiswa           Role = "siswa"
	RoleTamu            Role = "tamu"
)

// ReportStatus is the damage report workflow state.
type ReportStatus string

const (
	ReportPending ReportStatus = "Pending"
	ReportProses  ReportStatus = "Proses"
	ReportSelesai ReportStatus = "Selesai"
)

// BookingStatus is the approval state of a booking.
type BookingStatus string

const (
	BookingMenunggu     BookingStatus = "Menunggu"
	BookingDisetujui    BookingStatus = "Disetujui"
	BookingDitolak      BookingStatus = "Ditolak"
	BookingDikembalikan BookingStatus = "Dikembalikan"
)

// Asset categories.
const (
	CategoryIT         = "IT"
	CategoryFacilities = "Facilities"
	CategoryGeneral    = "General"
)

// Asset conditions.
const (
	CondBaik        = "Baik"
	CondRusakRingan = "Rusak Ringan"
	CondRusakBerat  = "Rusak Berat"
	CondPerbaikan   = "Perbaikan"
)

type User struct {
	ID     string `json:"id"`
	Nama   string `json:"nama"`
	Email  string `json:"email"`
	Telfon string `json:"telfon"`
	Role   Role   `json:"role"`
	Kelas  string `json:"kelas,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type InventoryItem struct {
	ID       string `json:"id_barang"`
	Nama     string `json:"nama_barang"`
	Kategori string `json:"kategori"`
	Kondisi  string `json:"kondisi"`
	LokasiID string `json:"id_lokasi"`
}

type DamageReport struct {
	ID           string       `json:"id"`
	BarangID     string       `json:"id_barang"`
	PelaporID    string       `json:"id_pengguna"`
	Tanggal      time.Time    `json:"tanggal_lapor"`
	Deskripsi    string       `json:"deskripsi"`
	Status       ReportStatus `json:"status"`
	Kategori     string       `json:"kategori_aset"`
	PenyelesaiID string       `json:"id_penyelesai,omitempty"`
}

type Booking struct {
	ID             string        `json:"id_peminjaman"`
	BarangID       string        `json:"id_barang"`
	PeminjamID     string        `json:"id_pengguna"`
	Tanggal        string        `json:"tanggal"`
	JamMulai       string        `json:"jam_mulai"`
	JamSelesai     string        `json:"jam_selesai"`
	Keperluan      string        `json:"keperluan"`
	RencanaKembali *time.Time    `json:"rencana_kembali,omitempty"`
	Dikembalikan   *time.Time    `json:"tanggal_kembali,omitempty"`
	Status         BookingStatus `json:"status_peminjaman"`
	AlasanTolak    string        `json:"alasan_penolakan,omitempty"`
}

type Location struct {
	ID   string `json:"id"`
	Nama string `json:"nama"`
}

type ActivityLogEntry struct {
	ID              string    `json:"id"`
	PenanggungJawab string    `json:"penanggung_jawab"`
	Mulai           time.Time `json:"waktu_mulai"`
	Selesai         time.Time `json:"waktu_selesai"`
	Posisi          string    `json:"posisi"`
	Kegiatan        string    `json:"kegiatan"`
	Hasil           string    `json:"hasil"`
	Sasaran         string    `json:"sasaran"`
	Status          string    `json:"status"`
}

type Rating struct {
	ID          string     `json:"id"`
	BarangID    string     `json:"id_barang"`
	NamaBarang  string     `json:"nama_barang"`
	Lokasi      string     `json:"lokasi"`
	PenilaiID   string     `json:"id_pengguna"`
	NamaPenilai string     `json:"nama_penilai"`
	Skor        int        `json:"skor"`
	Ulasan      string     `json:"ulasan"`
	Tanggal     time.Time  `json:"tanggal"`
	Penanganan  string     `json:"status_penanganan"`
	Balasan     string     `json:"balasan_admin,omitempty"`
	BalasanPada *time.Time `json:"tanggal_balasan,omitempty"`
}

// ToMap converts a typed entity into its generic record form by a JSON
// round-trip. Field names follow the struct's json tags.
func ToMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// FromMap decodes a generic record into the typed entity pointed to by dst.
func FromMap(m map[string]any, dst any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
