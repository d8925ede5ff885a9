package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"x2raindrop/internal/auth"
	"x2raindrop/internal/config"
	"x2raindrop/internal/domain"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle("%s", title)
	}
	return t
}

// MaskSecret keeps the first and last four characters of a secret.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "..." + s[len(s)-4:]
	}
}

// RenderResults prints the outcome of a sync or prune run.
func RenderResults(w io.Writer, title string, res domain.RunResult, requests int) {
	t := newTable(w, title)
	t.AppendHeader(table.Row{"Metric", "Count"})
	t.AppendRows([]table.Row{
		{"Total", res.Total},
		{"Newly synced", res.NewlySynced},
		{"Already synced", res.AlreadySynced},
		{"Failed", res.Failed},
		{"Deleted from X", res.DeletedFromSource},
		{"X API requests", requests},
	})
	t.Render()

	if len(res.Errors) == 0 {
		return
	}
	et := newTable(w, "Errors")
	et.AppendHeader(table.Row{"#", "Error"})
	for i, e := range res.Errors {
		et.AppendRow(table.Row{i + 1, e})
	}
	et.Render()
}

// RenderCollections prints destination collections.
func RenderCollections(w io.Writer, cols []domain.Collection) {
	t := newTable(w, "Raindrop Collections")
	t.AppendHeader(table.Row{"ID", "Title", "Items", "Parent"})
	for _, c := range cols {
		parent := "-"
		if c.ParentID != nil {
			parent = fmt.Sprint(*c.ParentID)
		}
		t.AppendRow(table.Row{c.ID, c.Title, c.Count, parent})
	}
	t.AppendFooter(table.Row{"", "Total", len(cols), ""})
	t.Render()
}

// RenderConfig prints the effective configuration with secrets masked.
func RenderConfig(w io.Writer, cfg *config.Config) {
	file := cfg.File
	if file == "" {
		file = "(none, defaults and environment)"
	}
	collection := "(not set)"
	if cfg.Sync.CollectionID != 0 {
		collection = fmt.Sprint(cfg.Sync.CollectionID)
	} else if cfg.Sync.CollectionTitle != "" {
		collection = fmt.Sprintf("%q (by title)", cfg.Sync.CollectionTitle)
	}
	chat := "(not set)"
	if cfg.Telegram.ChatID != 0 {
		chat = fmt.Sprint(cfg.Telegram.ChatID)
	}

	t := newTable(w, "Configuration")
	t.AppendHeader(table.Row{"Setting", "Value"})
	t.AppendRows([]table.Row{
		{"config file", file},
		{"log.level", cfg.Log.Level},
		{"log.format", cfg.Log.Format},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"x.client_id", MaskSecret(cfg.X.ClientID)},
		{"x.client_secret", MaskSecret(cfg.X.ClientSecret)},
		{"x.access_token", MaskSecret(cfg.X.AccessToken)},
		{"x.redirect_uri", cfg.X.RedirectURI},
		{"x.scopes", strings.Join(cfg.X.Scopes, " ")},
		{"x.token_path", cfg.X.TokenPath},
		{"x.requests_per_minute", cfg.X.RequestsPerMinute},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"raindrop.token", MaskSecret(cfg.Raindrop.Token)},
		{"sync.collection", collection},
		{"sync.tags", strings.Join(cfg.Sync.Tags, ", ")},
		{"sync.link_mode", cfg.Sync.LinkMode},
		{"sync.both_behavior", cfg.Sync.BothBehavior},
		{"sync.remove_from_x", cfg.Sync.RemoveFromX},
		{"sync.dry_run", cfg.Sync.DryRun},
		{"sync.max_results", cfg.Sync.MaxResults},
		{"sync.state_backend", cfg.Sync.StateBackend},
		{"sync.state_path", cfg.Sync.StatePath},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"telegram.bot_token", MaskSecret(cfg.Telegram.BotToken)},
		{"telegram.chat_id", chat},
	})
	t.Render()
}

// RenderAuthStatus prints the X authentication state.
func RenderAuthStatus(w io.Writer, st auth.Status, location string, now time.Time) {
	t := newTable(w, "X Authentication")
	t.AppendHeader(table.Row{"Property", "Value"})
	if !st.Authenticated {
		t.AppendRow(table.Row{"Status", "Not authenticated"})
		t.AppendRow(table.Row{"Token", location})
		t.Render()
		return
	}
	scope := st.Scope
	if scope == "" {
		scope = "-"
	}
	t.AppendRows([]table.Row{
		{"Status", "Authenticated"},
		{"Method", st.Method},
		{"Token", location},
		{"Token type", st.TokenType},
		{"Expires at", st.ExpiresAt.Local().Format(time.RFC3339)},
		{"Expires in", st.ExpiresAt.Sub(now).Round(time.Second).String()},
		{"Scope", scope},
	})
	t.Render()
}

// RenderLedger prints the ledger size and its most recent records.
func RenderLedger(w io.Writer, location string, records []domain.SyncRecord, limit int) {
	t := newTable(w, "Sync State: "+location)
	t.AppendHeader(table.Row{"Item", "Synced at", "Deleted from X", "Links"})
	shown := records
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, r := range shown {
		t.AppendRow(table.Row{r.ItemID, r.SyncedAt.Local().Format(time.RFC3339), r.DeletedFromSource, strings.Join(r.Links, "\n")})
	}
	t.AppendFooter(table.Row{"Total", len(records), "", ""})
	t.Render()
}
