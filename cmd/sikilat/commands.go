package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sikilat/sikilat/internal/config"
	"github.com/sikilat/sikilat/internal/store"
)

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat <pesan>",
	Short: "Send a chat message to the running server",
	Long: `Send a chat message to the running server.

Examples:
  sikilat chat "cek status laporan: LAP-001"
  sikilat chat --role penanggung_jawab "Perbarui status laporan LAP-002 menjadi Selesai"
  sikilat chat --image foto.jpg "Barang ini rusak, tolong dianalisis"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")
		role, _ := cmd.Flags().GetString("role")
		userID, _ := cmd.Flags().GetString("user")
		imagePath, _ := cmd.Flags().GetString("image")

		req := map[string]any{
			"pesan":       message,
			"role":        role,
			"id_pengguna": userID,
		}
		if imagePath != "" {
			data, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("reading image: %w", err)
			}
			req["gambar"] = base64.StdEncoding.EncodeToString(data)
			if mimeType := mime.TypeByExtension(filepath.Ext(imagePath)); mimeType != "" {
				req["gambar_mime"] = mimeType
			}
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/chat", req)
		if err != nil {
			return err
		}

		var result struct {
			Reply           string `json:"balasan"`
			Rule            string `json:"aturan"`
			SavedID         string `json:"id_tersimpan"`
			CredentialError bool   `json:"kredensial_bermasalah"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result.Reply)
		if result.Rule != "" {
			printStatus("Rule", "%s", result.Rule)
		}
		if result.SavedID != "" {
			printStatus("Saved", "%s", result.SavedID)
		}
		if result.CredentialError {
			printWarning("Assistant API key was rejected, check the configuration")
		}
		return nil
	},
}

func init() {
	chatCmd.Flags().String("role", "guru", "acting role (admin, penanggung_jawab, pengawas_it, guru, siswa, tamu)")
	chatCmd.Flags().String("user", "", "acting user ID")
	chatCmd.Flags().String("image", "", "image file to attach")
}

// --- records ---

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect stored collections",
}

var recordsListCmd = &cobra.Command{
	Use:   "list <collection>",
	Short: "List a collection as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/records/"+args[0])
		if err != nil {
			return err
		}

		var records []any
		if err := decodeJSON(resp, &records); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	},
}

var recordsGetCmd = &cobra.Command{
	Use:   "get <collection> <id>",
	Short: "Show a single record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/records/"+args[0]+"/"+args[1])
		if err != nil {
			return err
		}

		var record any
		if err := decodeJSON(resp, &record); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	},
}

func init() {
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsGetCmd)
}

// --- seed ---

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Initialize empty collections with demo data",
	Long: `Initialize empty collections with demo data.

Opens the configured storage directly, so the server must not be
running against the same SQLite file. Collections that already hold
records are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		kv, err := openKV(ctx, cfg)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		st := store.New(kv)
		defer st.Close()

		if err := st.Initialize(ctx); err != nil {
			return fmt.Errorf("seeding collections: %w", err)
		}

		printSuccess("Collections initialized")
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(ansiBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
