package store

// Built-in demo dataset, written into any collection that is still empty on
// first start. Timestamps use the canonical serialized form so they are
// recognized as dates on read.

func seedCollection(e Entity) []Record {
	switch e {
	case EntityUsers:
		return seedUsers()
	case EntityInventory:
		return seedInventory()
	case EntityReports:
		return seedReports()
	case EntityBookings:
		return seedBookings()
	case EntityLocations:
		return seedLocations()
	case EntityActivity:
		return seedActivity()
	case EntityRatings:
		return seedRatings()
	}
	return []Record{}
}

func seedUsers() []Record {
	return []Record{
		{"id": "USR-001", "nama": "Budi Santoso", "email": "budi@sikilat.sch.id", "telfon": "081234567801", "role": "admin"},
		{"id": "USR-002", "nama": "Siti Rahayu", "email": "siti@sikilat.sch.id", "telfon": "081234567802", "role": "penanggung_jawab"},
		{"id": "USR-003", "nama": "Agus Wijaya", "email": "agus@sikilat.sch.id", "telfon": "081234567803", "role": "pengawas_it"},
		{"id": "USR-004", "nama": "Dewi Lestari", "email": "dewi@sikilat.sch.id", "telfon": "081234567804", "role": "guru", "kelas": "XI RPL 1"},
		{"id": "USR-005", "nama": "Rina Marlina", "email": "rina@sikilat.sch.id", "telfon": "081234567805", "role": "siswa", "kelas": "XI RPL 2"},
	}
}

func seedInventory() []Record {
	return []Record{
		{"id_barang": "INV-001", "nama_barang": "Server Rack Utama", "kategori": "IT", "kondisi": "Baik", "id_lokasi": "LOK-001"},
		{"id_barang": "INV-002", "nama_barang": "Proyektor Epson EB-X500", "kategori": "IT", "kondisi": "Rusak Ringan", "id_lokasi": "LOK-002"},
		{"id_barang": "INV-003", "nama_barang": "Laptop Asus VivoBook", "kategori": "IT", "kondisi": "Baik", "id_lokasi": "LOK-003"},
		{"id_barang": "INV-004", "nama_barang": "Router WiFi Lab Jaringan", "kategori": "IT", "kondisi": "Perbaikan", "id_lokasi": "LOK-003"},
		{"id_barang": "INV-005", "nama_barang": "Kursi Lipat Aula", "kategori": "Facilities", "kondisi": "Baik", "id_lokasi": "LOK-004"},
		{"id_barang": "INV-006", "nama_barang": "AC Ruang Guru", "kategori": "Facilities", "kondisi": "Rusak Berat", "id_lokasi": "LOK-005"},
		{"id_barang": "INV-007", "nama_barang": "Komputer Lab 01", "kategori": "IT", "kondisi": "Baik", "id_lokasi": "LOK-003"},
	}
}

func seedReports() []Record {
	return []Record{
		{
			"id": "LAP-003", "id_barang": "INV-006", "id_pengguna": "USR-004",
			"tanggal_lapor": "2025-08-20T08:15:00.000Z",
			"deskripsi":     "AC ruang guru mati total, tidak menyala sama sekali",
			"status":        "Pending", "kategori_aset": "Facilities",
		},
		{
			"id": "LAP-002", "id_barang": "INV-004", "id_pengguna": "USR-005",
			"tanggal_lapor": "2025-08-18T10:40:00.000Z",
			"deskripsi":     "WiFi lab jaringan putus-putus sejak pagi",
			"status":        "Proses", "kategori_aset": "IT",
			"id_penyelesai": "USR-002",
		},
		{
			"id": "LAP-001", "id_barang": "INV-002", "id_pengguna": "USR-004",
			"tanggal_lapor": "2025-08-15T13:05:00.000Z",
			"deskripsi":     "Proyektor kelas XI RPL 1 gambarnya kuning",
			"status":        "Selesai", "kategori_aset": "IT",
			"id_penyelesai": "USR-002",
		},
	}
}

func seedBookings() []Record {
	return []Record{
		{
			"id_peminjaman": "PJM-002", "id_barang": "INV-003", "id_pengguna": "USR-004",
			"tanggal": "2025-08-25", "jam_mulai": "08:00", "jam_selesai": "12:00",
			"keperluan": "Presentasi rapat kurikulum", "status_peminjaman": "Menunggu",
		},
		{
			"id_peminjaman": "PJM-001", "id_barang": "INV-002", "id_pengguna": "USR-005",
			"tanggal": "2025-08-21", "jam_mulai": "10:00", "jam_selesai": "11:30",
			"keperluan":         "Latihan presentasi tugas akhir",
			"status_peminjaman": "Dikembalikan",
			"rencana_kembali":   "2025-08-21T11:30:00.000Z",
			"tanggal_kembali":   "2025-08-21T11:20:00.000Z",
		},
	}
}

func seedLocations() []Record {
	return []Record{
		{"id": "LOK-001", "nama": "Ruang Server"},
		{"id": "LOK-002", "nama": "Kelas XI RPL 1"},
		{"id": "LOK-003", "nama": "Lab Komputer"},
		{"id": "LOK-004", "nama": "Aula"},
		{"id": "LOK-005", "nama": "Ruang Guru"},
	}
}

func seedActivity() []Record {
	return []Record{
		{
			"id": "LOG-001", "penanggung_jawab": "Siti Rahayu",
			"waktu_mulai":   "2025-08-19T07:30:00.000Z",
			"waktu_selesai": "2025-08-19T09:00:00.000Z",
			"posisi":        "Lab Komputer",
			"kegiatan":      "Pengecekan rutin komputer lab",
			"hasil":         "2 unit perlu pembersihan kipas",
			"sasaran":       "Siswa kelas XI",
			"status":        "Disetujui",
		},
	}
}

func seedRatings() []Record {
	return []Record{
		{
			"id": "NIL-001", "id_barang": "INV-002", "nama_barang": "Proyektor Epson EB-X500",
			"lokasi": "Kelas XI RPL 1", "id_pengguna": "USR-004", "nama_penilai": "Dewi Lestari",
			"skor": 4, "ulasan": "Perbaikan cepat, warna sudah normal lagi",
			"tanggal":           "2025-08-16T09:00:00.000Z",
			"status_penanganan": "Selesai",
		},
	}
}
