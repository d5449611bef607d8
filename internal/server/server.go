package server

import (
	"fmt"
	"net/http"
	"strings"

	"tournament-bot/internal/config"
	"tournament-bot/internal/ledger"
	"tournament-bot/internal/models"
	"tournament-bot/internal/util"
)

// New builds the ops HTTP surface: a health endpoint and a CSV export of
// confirmed registrations guarded by an HMAC token so the link can be
// shared without exposing the admin chat.
func New(cfg config.Config, led *ledger.Ledger) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/export/registrations.csv", func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("tournament")
		token := r.URL.Query().Get("token")
		if raw == "" || token == "" {
			http.Error(w, "tournament and token required", http.StatusBadRequest)
			return
		}
		t, ok := models.ParseTournament(raw)
		if !ok {
			http.Error(w, "unknown tournament", http.StatusBadRequest)
			return
		}
		expected := util.HMACSHA256Hex(cfg.ExportSecret, "export:"+string(t))
		if token != expected {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="registrations_`+string(t)+`.csv"`)
		_, _ = w.Write([]byte(BuildCSV(led.ListConfirmed(t))))
	})

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}

// ExportToken derives the query token expected by the CSV endpoint.
func ExportToken(secret string, t models.Tournament) string {
	return util.HMACSHA256Hex(secret, "export:"+string(t))
}

// BuildCSV renders confirmed registrations in confirmation order.
func BuildCSV(regs []models.ConfirmedRegistration) string {
	b := strings.Builder{}
	b.WriteString("username,team_name,rating,confirmed_at,confirmed_by\n")
	for _, r := range regs {
		b.WriteString(fmt.Sprintf("%s,%s,%d,%s,%s\n",
			escapeCSV(r.Username),
			escapeCSV(r.TeamName),
			r.Rating,
			r.ConfirmedAt.UTC().Format("2006-01-02T15:04:05Z"),
			escapeCSV(r.ConfirmedBy),
		))
	}
	return b.String()
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, "\",\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
