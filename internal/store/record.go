package store

import (
	"regexp"
	"time"
)

// Record is one stored entry in a collection. Records are schemaless on
// purpose: the chat assistant can hand back arbitrary payloads to persist,
// and collections are replaced wholesale rather than patched field by field.
type Record = map[string]any

// Entity names a stored collection.
type Entity string

const (
	EntityUsers     Entity = "pengguna"
	EntityInventory Entity = "inventaris"
	EntityReports   Entity = "laporan_kerusakan"
	EntityBookings  Entity = "peminjaman"
	EntityLocations Entity = "lokasi"
	EntityActivity  Entity = "log_kegiatan"
	EntityRatings   Entity = "penilaian"
)

// Entities lists every known collection, in seed order.
var Entities = []Entity{
	EntityUsers,
	EntityInventory,
	EntityReports,
	EntityBookings,
	EntityLocations,
	EntityActivity,
	EntityRatings,
}

// namespace is prefixed to every storage key so collections never collide
// with unrelated data in a shared backend.
const namespace = "sikilat_"

func (e Entity) storageKey() string { return namespace + string(e) }

// Valid reports whether e names a known collection.
func (e Entity) Valid() bool {
	for _, known := range Entities {
		if e == known {
			return true
		}
	}
	return false
}

// keyFields is the probe order for locating a record's identifier. The
// generic "id" wins over the type-specific names.
var keyFields = []string{"id", "id_peminjaman", "id_barang", "id_pengguna"}

// RecordKey returns the record's identifier, probing the candidate key
// fields in priority order. A record carrying none of them is keyless and
// is always inserted, never deduplicated.
func RecordKey(r Record) (string, bool) {
	for _, f := range keyFields {
		if v, ok := r[f]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// dateFields maps each entity to the fields that hold timestamps. Date
// coercion on deserialization is scoped to these fields only; a free-text
// field that happens to contain a timestamp-shaped string is left alone.
var dateFields = map[Entity][]string{
	EntityReports:  {"tanggal_lapor"},
	EntityBookings: {"rencana_kembali", "tanggal_kembali"},
	EntityActivity: {"waktu_mulai", "waktu_selesai"},
	EntityRatings:  {"tanggal", "tanggal_balasan"},
}

// timestampLayout is the canonical serialized form: ISO-8601 with
// millisecond precision, as written by the original browser client.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

var timestampShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}(Z|[+-]\d{2}:\d{2})$`)

// coerceDates rewrites serialized timestamps in r's known date fields back
// into time.Time values. Only strings matching the canonical shape are
// touched; anything else passes through untouched.
func coerceDates(e Entity, r Record) {
	for _, f := range dateFields[e] {
		s, ok := r[f].(string)
		if !ok || !timestampShape.MatchString(s) {
			continue
		}
		if t, err := time.Parse(timestampLayout, s); err == nil {
			r[f] = t
		}
	}
}

// normalizeDates rewrites time values (or RFC3339 strings from a typed
// struct round-trip) in r's known date fields into the canonical
// serialized form, so a later read recognizes them again.
func normalizeDates(e Entity, r Record) {
	for _, f := range dateFields[e] {
		switch v := r[f].(type) {
		case time.Time:
			r[f] = v.UTC().Format(timestampLayout)
		case string:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				r[f] = t.UTC().Format(timestampLayout)
			}
		}
	}
}
