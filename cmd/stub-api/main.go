package main // Entry point of the development stub of the LocaTrova backend

import (
	"log" // Logging library

	"github.com/joho/godotenv" // Loads .env files into the environment

	"github.com/locatrova/locatrova-admin/internal/config" // Internal config loader
	"github.com/locatrova/locatrova-admin/internal/stub"   // In-memory backend emulation
)

func main() {
	_ = godotenv.Load() // Pick up a local .env when present

	cfg := config.LoadStub()          // Load stub configuration from the environment
	client := config.NewRedisClient() // May be nil; rate limiting then degrades
	srv := stub.NewServer(cfg, client)

	addr := ":" + cfg.Port
	log.Printf("stub api listening on %s (ratelimit=%v)", addr, cfg.RateLimit.Enabled && client != nil)

	if err := srv.Router().Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if the server fails
	}
}
