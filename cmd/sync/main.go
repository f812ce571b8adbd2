// Sync is the sidecar that mirrors the point-of-sale Drive folders into the
// local upload directory and exposes them over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/reorden/backend-go/internal/config"
	"github.com/reorden/backend-go/internal/drive"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	credentials := os.Getenv("GOOGLE_DRIVE_CREDENTIALS_JSON")
	if credentials == "" && cfg.Drive.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.Drive.CredentialsFile)
		if err != nil {
			log.Fatalf("Failed to read Drive credentials file: %v", err)
		}
		credentials = string(data)
	}

	driveService, err := drive.NewService(credentials)
	if err != nil {
		log.Fatalf("Failed to initialize Google Drive service: %v", err)
	}

	syncService := drive.NewSyncService(driveService, cfg.Drive, cfg.App.UploadDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go syncService.Watch(ctx)

	r := mux.NewRouter()

	driveHandler := drive.NewHandler(driveService, syncService)
	driveHandler.RegisterRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Sync service starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
