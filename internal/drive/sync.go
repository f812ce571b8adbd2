package drive

import (
	"context"
	"path/filepath"
	"time"

	"github.com/reorden/backend-go/internal/config"
	"github.com/rs/zerolog/log"
)

// SyncService mirrors the shared Drive folders into the local upload
// directory so a plan can be computed without anyone re-uploading files the
// point-of-sale system already exported.
type SyncService struct {
	downloader *Downloader
	cfg        config.DriveConfig
	dataDir    string
}

// SyncResult lists the local CSV paths produced by one sync pass.
type SyncResult struct {
	SalesFiles    []string  `json:"sales_files"`
	PurchaseFiles []string  `json:"purchase_files"`
	SyncedAt      time.Time `json:"synced_at"`
}

func NewSyncService(service *Service, cfg config.DriveConfig, dataDir string) *SyncService {
	return &SyncService{
		downloader: NewDownloader(service),
		cfg:        cfg,
		dataDir:    dataDir,
	}
}

// SyncOnce pulls both folders. A failure in one folder does not skip the
// other; the first error is returned after both attempts.
func (s *SyncService) SyncOnce(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{SyncedAt: time.Now().UTC()}

	var firstErr error

	sales, err := s.downloader.DownloadFolderCSV(ctx, DownloadOptions{
		FolderID:    s.cfg.SalesFolderID,
		DownloadDir: filepath.Join(s.dataDir, "ventas"),
	})
	if err != nil {
		log.Error().Err(err).Msg("drive sync: sales folder failed")
		firstErr = err
	}
	result.SalesFiles = sales

	purchases, err := s.downloader.DownloadFolderCSV(ctx, DownloadOptions{
		FolderID:    s.cfg.PurchaseFolderID,
		DownloadDir: filepath.Join(s.dataDir, "compras"),
	})
	if err != nil {
		log.Error().Err(err).Msg("drive sync: purchases folder failed")
		if firstErr == nil {
			firstErr = err
		}
	}
	result.PurchaseFiles = purchases

	return result, firstErr
}

// Watch polls the folders until the context is cancelled.
func (s *SyncService) Watch(ctx context.Context) {
	interval := time.Duration(s.cfg.PollSeconds) * time.Second
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	log.Info().Dur("interval", interval).Msg("drive sync: watching export folders")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if result, err := s.SyncOnce(ctx); err == nil {
			log.Info().
				Int("sales_files", len(result.SalesFiles)).
				Int("purchase_files", len(result.PurchaseFiles)).
				Msg("drive sync: pass complete")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
