package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tournament-bot/internal/config"
	"tournament-bot/internal/ledger"
	"tournament-bot/internal/server"
	"tournament-bot/internal/sheets"
	"tournament-bot/internal/store"
	"tournament-bot/internal/tgbot"
	"tournament-bot/internal/validation"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	rules := validation.Rules{
		MaxTeamNameLen: cfg.MaxTeamNameLength,
		MinRating:      cfg.MinRating,
		MaxRating:      cfg.MaxRating,
	}
	policy := ledger.Policy{
		PendingTTL: cfg.PendingTTL,
		RateWindow: cfg.RateLimitWindow,
		RateLimit:  cfg.RateLimitCount,
	}
	led := ledger.New(rules, policy)

	st := store.New(cfg.SnapshotPath)
	snap, err := st.Load()
	if err != nil {
		log.Fatalf("load snapshot: %v", err)
	}
	led.Restore(snap)
	log.Printf("restored %d pending, %d confirmed from %s", len(snap.Pending), len(snap.Confirmed), st.Path())

	var mirror *sheets.Client
	if cfg.SheetsEnabled() {
		mirror, err = sheets.New(cfg.GoogleServiceAccountJSON, cfg.SpreadsheetID)
		if err != nil {
			log.Fatalf("sheets: %v", err)
		}
		log.Printf("sheets mirror enabled for spreadsheet %s", mirror.SpreadsheetID())
	}

	botApp, err := tgbot.New(cfg, led, st, mirror)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}

	httpSrv := server.New(cfg, led)

	// Start HTTP server
	go func() {
		log.Printf("HTTP listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())

	// Expiry sweep: evict stale pending entries, then flush the snapshot.
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := led.ExpireStale(now); n > 0 {
					log.Printf("expired %d stale pending registrations", n)
					if err := st.Save(led.Snapshot()); err != nil {
						log.Printf("save after sweep: %v", err)
					}
				}
			}
		}
	}()

	// Periodic snapshot save. Losing a few seconds of pending chatter on
	// crash is acceptable; confirms flush eagerly in the transport layer.
	go func() {
		ticker := time.NewTicker(cfg.SaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := st.Save(led.Snapshot()); err != nil {
					log.Printf("periodic save: %v", err)
				}
			}
		}
	}()

	// Start Telegram
	go func() {
		if err := botApp.Run(ctx); err != nil {
			log.Printf("bot stopped: %v", err)
			cancel()
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	cancel()
	ctxTimeout, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = httpSrv.Shutdown(ctxTimeout)

	if err := st.Save(led.Snapshot()); err != nil {
		log.Printf("final save: %v", err)
	}

	log.Println("bye")
}
