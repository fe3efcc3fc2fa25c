package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/rcastell/propguard/internal/config"
	"github.com/rcastell/propguard/internal/database"
	"github.com/rcastell/propguard/internal/services"
)

func main() {
	if len(os.Args) > 2 {
		fmt.Println("Usage: reconcile-grants [property-id]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	reconciler := services.NewReconcilerService(db)

	if len(os.Args) == 2 {
		propertyID, err := uuid.Parse(os.Args[1])
		if err != nil {
			log.Fatalf("Invalid property id: %v", err)
		}
		if err := reconciler.Reconcile(ctx, propertyID); err != nil {
			log.Fatalf("Failed to reconcile property %s: %v", propertyID, err)
		}
		fmt.Printf("Reconciled property %s\n", propertyID)
		return
	}

	n, err := reconciler.ReconcileAll(ctx)
	if err != nil {
		log.Fatalf("Failed to reconcile properties (%d done): %v", n, err)
	}
	fmt.Printf("Reconciled %d properties\n", n)
}
