package main

import (
	"context"
	"log"
	"os"

	"github.com/existflow/memberbooth/internal/directory/devstore"
	"github.com/existflow/memberbooth/server"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8010"
	}

	path := os.Getenv("DEVSTORE_PATH")
	if path == "" {
		var err error
		if path, err = devstore.DefaultPath(); err != nil {
			log.Fatalf("Failed to locate development store: %v", err)
		}
	}

	store, err := devstore.Open(path)
	if err != nil {
		log.Fatalf("Failed to open development store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing store: %v", err)
		}
	}()

	ctx := context.Background()
	if err := store.Seed(ctx); err != nil {
		log.Fatalf("Failed to seed development store: %v", err)
	}
	token, err := store.NewToken(ctx)
	if err != nil {
		log.Fatalf("Failed to create token: %v", err)
	}
	log.Printf("API token: %s", token)

	srv := server.New(store)
	log.Printf("Memberbooth development directory starting on :%s", port)
	if err := srv.Start(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
