// Package main provides the race service entrypoint.
package main

import (
	"log"

	"github.com/rapidkeys/rapidkeys/internal/server"
	"github.com/rapidkeys/rapidkeys/internal/store"
)

func main() {
	cfg := server.LoadConfig()

	st, err := store.OpenServer(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Printf("failed to close db: %v", cerr)
		}
	}()

	srv := server.New(st, cfg)
	log.Printf("listening on :%s", cfg.Port)
	if err := srv.ListenAndServe(cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
