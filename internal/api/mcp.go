package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sikilat/sikilat/internal/dashboard"
	"github.com/sikilat/sikilat/internal/model"
	"github.com/sikilat/sikilat/internal/rbac"
	"github.com/sikilat/sikilat/internal/store"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store *store.Store
}

// NewMCPServer creates an MCP server exposing the asset-management tools
// and the dashboard resource.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"sikilat",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("SIKILAT — sistem informasi aset dan laporan kerusakan sekolah."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("cek_status_laporan",
			mcp.WithDescription("Look up a damage report by its ID and return its current status."),
			mcp.WithString("id", mcp.Description("Report ID, e.g. LAP-001"), mcp.Required()),
		),
		mcpReportStatus(deps),
	)

	s.AddTool(
		mcp.NewTool("cari_inventaris",
			mcp.WithDescription("Search inventory items by name substring."),
			mcp.WithString("kata_kunci", mcp.Description("Search keyword matched against item names"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 5)")),
		),
		mcpSearchInventory(deps),
	)

	s.AddTool(
		mcp.NewTool("lapor_kerusakan",
			mcp.WithDescription("File a new damage report."),
			mcp.WithString("id_pengguna", mcp.Description("Reporting user ID")),
			mcp.WithString("role", mcp.Description("Acting user's role, defaults to tamu")),
			mcp.WithString("deskripsi", mcp.Description("Description of the damage"), mcp.Required()),
			mcp.WithString("kategori", mcp.Description("Asset category: IT, Facilities, or General")),
			mcp.WithString("id_barang", mcp.Description("Inventory item ID, if known")),
		),
		mcpFileReport(deps),
	)

	s.AddTool(
		mcp.NewTool("perbarui_status_laporan",
			mcp.WithDescription("Update the status of an existing damage report. Restricted to penanggung_jawab and admin roles."),
			mcp.WithString("id", mcp.Description("Report ID"), mcp.Required()),
			mcp.WithString("status", mcp.Description("New status: Pending, Proses, or Selesai"), mcp.Required()),
			mcp.WithString("role", mcp.Description("Acting user's role"), mcp.Required()),
		),
		mcpUpdateReportStatus(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"sikilat://dashboard",
			"Asset Dashboard",
			mcp.WithResourceDescription("Aggregated inventory, report, and booking counts as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceDashboard(deps),
	)

	return s
}

func mcpReportStatus(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		reports, err := deps.Store.GetCollection(ctx, store.EntityReports)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load reports: %v", err)), nil
		}
		for _, rec := range reports {
			recID, _ := rec["id"].(string)
			if strings.EqualFold(recID, id) {
				b, err := json.Marshal(rec)
				if err != nil {
					return mcpError(fmt.Sprintf("failed to marshal report: %v", err)), nil
				}
				return mcpText(string(b)), nil
			}
		}
		return mcpError(fmt.Sprintf("report %s not found", id)), nil
	}
}

func mcpSearchInventory(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keyword, err := req.RequireString("kata_kunci")
		if err != nil {
			return mcpError("kata_kunci is required"), nil
		}

		limit := req.GetInt("limit", 5)
		if limit <= 0 {
			limit = 5
		}
		if limit > 50 {
			limit = 50
		}

		items, err := deps.Store.GetCollection(ctx, store.EntityInventory)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load inventory: %v", err)), nil
		}

		needle := strings.ToLower(keyword)
		var matches []store.Record
		for _, rec := range items {
			name, _ := rec["nama_barang"].(string)
			if strings.Contains(strings.ToLower(name), needle) {
				matches = append(matches, rec)
				if len(matches) >= limit {
					break
				}
			}
		}

		if len(matches) == 0 {
			return mcpText("[]"), nil
		}
		b, err := json.Marshal(matches)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpFileReport(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		description, err := req.RequireString("deskripsi")
		if err != nil {
			return mcpError("deskripsi is required"), nil
		}

		role := model.Role(req.GetString("role", string(model.RoleTamu)))
		if !rbac.Can(role, rbac.ActionReportIncident) {
			return mcpError(fmt.Sprintf("role %s is not allowed to report incidents", role)), nil
		}

		category := req.GetString("kategori", model.CategoryGeneral)
		switch category {
		case model.CategoryIT, model.CategoryFacilities, model.CategoryGeneral:
		default:
			return mcpError(fmt.Sprintf("unknown category %q", category)), nil
		}

		id := "LAP-" + strings.ToUpper(uuid.NewString()[:8])
		rec := store.Record{
			"id":            id,
			"id_barang":     req.GetString("id_barang", ""),
			"id_pengguna":   req.GetString("id_pengguna", ""),
			"tanggal_lapor": time.Now().UTC(),
			"deskripsi":     description,
			"status":        string(model.ReportPending),
			"kategori_aset": category,
		}
		if _, err := deps.Store.Upsert(ctx, store.EntityReports, rec); err != nil {
			return mcpError(fmt.Sprintf("failed to save report: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Laporan tercatat dengan nomor %s", id)), nil
	}
}

func mcpUpdateReportStatus(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		statusStr, err := req.RequireString("status")
		if err != nil {
			return mcpError("status is required"), nil
		}
		roleStr, err := req.RequireString("role")
		if err != nil {
			return mcpError("role is required"), nil
		}

		if !rbac.Can(model.Role(roleStr), rbac.ActionUpdateReportStatus) {
			return mcpError(fmt.Sprintf("role %s is not allowed to update report status; allowed roles: %s",
				roleStr, joinRoles(rbac.Allowed(rbac.ActionUpdateReportStatus)))), nil
		}

		var status model.ReportStatus
		switch strings.ToLower(statusStr) {
		case "pending":
			status = model.ReportPending
		case "proses":
			status = model.ReportProses
		case "selesai":
			status = model.ReportSelesai
		default:
			return mcpError(fmt.Sprintf("unknown status %q", statusStr)), nil
		}

		reports, err := deps.Store.GetCollection(ctx, store.EntityReports)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load reports: %v", err)), nil
		}
		for _, rec := range reports {
			recID, _ := rec["id"].(string)
			if strings.EqualFold(recID, id) {
				rec["status"] = string(status)
				if _, err := deps.Store.Upsert(ctx, store.EntityReports, rec); err != nil {
					return mcpError(fmt.Sprintf("failed to save report: %v", err)), nil
				}
				return mcpText(fmt.Sprintf("Status laporan %s diperbarui menjadi %s", recID, status)), nil
			}
		}
		return mcpError(fmt.Sprintf("report %s not found", id)), nil
	}
}

func mcpResourceDashboard(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		summary, err := dashboard.Build(ctx, deps.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to build summary: %w", err)
		}

		b, err := json.Marshal(summary)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal summary: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func joinRoles(roles []model.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
