package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/dimitrije/sitecms/internal/config"
	"github.com/dimitrije/sitecms/internal/database"
	"github.com/dimitrije/sitecms/internal/models"
	"github.com/dimitrije/sitecms/internal/services"
	"github.com/dimitrije/sitecms/pkg/dto"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: collection-dump <events|news>")
		os.Exit(1)
	}

	kind, err := models.ParseKind(os.Args[1])
	if err != nil {
		log.Fatalf("Unknown collection: %s", os.Args[1])
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	var db *database.DB
	if cfg.StoreBackend == config.StorePostgres {
		db, err = database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
	}

	backend, err := services.NewBackend(ctx, cfg, db)
	if err != nil {
		log.Fatalf("Failed to set up collection store: %v", err)
	}

	// the CLI runs with the operator's own credentials
	editor := models.Editor{Login: "cli", Authorized: true}
	collectionService := services.NewCollectionService(backend, nil, cfg.MaxWriteAttempts)

	doc, err := collectionService.ReadDocument(ctx, editor, kind)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", kind, err)
	}

	out := dto.CollectionResponse{
		Kind:    doc.Kind,
		Version: doc.Version,
		Items:   doc.Records,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("Failed to encode %s: %v", kind, err)
	}
}
