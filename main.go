package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"crashserver/api"
	"crashserver/config"
	"crashserver/db"
	"crashserver/engine"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("warning: .env file not found, using environment variables")
	}

	ctx := context.Background()

	// The ledger is the source of truth for balances; without it no bet can
	// be settled, so PostgreSQL is required.
	store, err := db.NewStore(ctx)
	if err != nil {
		log.Fatalf("PostgreSQL initialization failed: %v", err)
	}
	defer store.Close()

	// The Redis mirror is observational only; run degraded without it.
	var mirror *db.Mirror
	var engineMirror engine.BetMirror
	if m, err := db.NewMirror(ctx); err != nil {
		log.Printf("warning: Redis initialization failed: %v", err)
		log.Println("         live bet mirror disabled")
	} else {
		mirror = m
		engineMirror = m
		defer mirror.Close()
	}

	eng := engine.New(engine.DefaultConfig(), store, engineMirror, store)

	// Seed the in-memory history ring from the archive.
	if entries, err := store.RecentRounds(ctx, config.MaxHistory); err != nil {
		log.Printf("warning: failed to load round history: %v", err)
	} else if len(entries) > 0 {
		eng.LoadHistory(entries)
		log.Printf("loaded %d archived rounds into history", len(entries))
	}

	go eng.Run(ctx)

	mux := http.NewServeMux()
	api.NewHandler(eng, store, store, mirror).Register(mux)

	addr := os.Getenv("SERVER_ADDR")
	if addr == "" {
		addr = config.DefaultServerAddr
	}

	log.Printf("server starting on %s", addr)
	log.Println("  GET  /api/game/state    - poll round state")
	log.Println("  POST /api/game/bet      - place a bet (auth headers)")
	log.Println("  POST /api/game/cashout  - cash out (auth headers)")
	log.Println("  GET  /api/game/history  - recent rounds")
	log.Println("  GET  /api/balance       - wallet balance (auth headers)")
	log.Println("  GET  /api/health        - component health")

	if err := http.ListenAndServe(addr, api.CORS(mux)); err != nil {
		log.Fatal("server error:", err)
	}
}
