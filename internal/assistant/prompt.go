package assistant

import (
	"fmt"
	"strings"

	"github.com/sikilat/sikilat/internal/model"
	"github.com/sikilat/sikilat/internal/payload"
)

const basePrompt = `Kamu adalah SIKI, asisten helpdesk aset sekolah SIKILAT.
Jawab dalam bahasa Indonesia yang ramah dan ringkas.
Kamu membantu pengguna melaporkan kerusakan, meminjam barang atau ruangan,
dan memahami data aset sekolah.
Jika pengguna melaporkan kerusakan baru, sertakan blok pada akhir jawaban:
[[data]]{"table":"laporan_kerusakan","payload":{...}}[[/data]]
dengan field deskripsi, kategori_aset, dan status "Pending".`

// systemPrompt carries a worked troubleshooting block so the model copies
// the exact field names the dashboard renders.
var systemPrompt = basePrompt + "\n" + troubleshootingInstruction()

func troubleshootingInstruction() string {
	example := payload.Troubleshooting{
		Type:    payload.TypeTroubleshooting,
		IDTiket: "LAP-000",
		Judul:   "Proyektor tidak menyala",
		Gejala:  "Lampu indikator mati",
		Langkah: []payload.TroubleshootingStep{
			{Urutan: 1, Tindakan: "Periksa kabel daya", Detail: "Pastikan terpasang pada stopkontak yang berfungsi"},
		},
		Tips: []payload.TroubleshootingTip{
			{Ikon: "💡", Teks: "Tunggu 60 detik sebelum menyalakan ulang"},
		},
		Analisis: payload.SolutionAnalysis{
			Kelebihan:  []string{"Cepat dicoba tanpa teknisi"},
			Kekurangan: []string{"Tidak menangani lampu proyektor yang putus"},
		},
	}
	block, err := payload.Wrap(example)
	if err != nil {
		return ""
	}
	return "Jika pengguna meminta panduan perbaikan, akhiri jawaban dengan blok berbentuk:\n" + block
}

const contactInstruction = `Data kontak di bawah ini boleh dibagikan kepada penanya.
Jangan menolak memberikan nomor telepon atau email staf yang tercantum.`

// contactBlock renders staff contact details, filtered to the supervisory
// and administrative roles, as a prompt context block.
func contactBlock(users []model.User) string {
	var sb strings.Builder
	sb.WriteString("[Kontak Staf]\n")
	for _, u := range users {
		switch u.Role {
		case model.RoleAdmin, model.RolePenanggungJawab, model.RolePengawasIT:
			fmt.Fprintf(&sb, "- %s (%s): telp %s, email %s\n", u.Nama, u.Role, u.Telfon, u.Email)
		}
	}
	return sb.String()
}
