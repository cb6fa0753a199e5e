package walker

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jgivc/batchfetch/internal/common"
	"github.com/jgivc/batchfetch/internal/config"
	"github.com/jgivc/batchfetch/internal/entity"
	"github.com/spf13/afero"
)

const (
	serviceName = "walker"
	dirMode     = 0o755
)

type DownloadService interface {
	EnsureDownloaded(ctx context.Context, url, name, destPath string) (entity.FileStatus, error)
}

type WalkerService struct {
	fs  afero.Fs
	cfg *config.Config
	srv DownloadService
	log *slog.Logger
}

func NewWalkerService(cfg *config.Config, srv DownloadService, log *slog.Logger) *WalkerService {
	return NewWalkerServiceWithFS(afero.NewOsFs(), cfg, srv, log)
}

func NewWalkerServiceWithFS(fs afero.Fs, cfg *config.Config, srv DownloadService, log *slog.Logger) *WalkerService {
	return &WalkerService{
		fs:  fs,
		cfg: cfg,
		srv: srv,
		log: log.With(slog.String("service", serviceName)),
	}
}

// ProcessAll visits every file of every folder once, in manifest order.
// Failed files are logged and skipped. The returned error is either a
// fatal engine error or the context error after cancellation.
func (w *WalkerService) ProcessAll(ctx context.Context, folders []*entity.Folder) (*entity.RunSummary, error) {
	summary := entity.NewRunSummary()
	log := w.log.With(slog.String("run_id", summary.ID))

	if err := w.fs.MkdirAll(w.cfg.DownloadDir, dirMode); err != nil {
		return summary, fmt.Errorf("cannot create download dir %s: %w", w.cfg.DownloadDir, err)
	}

	log.Info("Start", slog.String("download_dir", w.cfg.DownloadDir), slog.Int("folders", len(folders)))

	for _, folder := range folders {
		if err := w.processFolder(ctx, log, folder, summary); err != nil {
			summary.FinishedAt = time.Now()

			return summary, err
		}

		summary.Folders++
	}

	summary.FinishedAt = time.Now()

	log.Info("All folders processed",
		slog.Int("folders", summary.Folders),
		slog.Int("downloaded", summary.Downloaded),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
		slog.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)

	return summary, nil
}

func (w *WalkerService) processFolder(ctx context.Context, log *slog.Logger, folder *entity.Folder, summary *entity.RunSummary) error {
	log = log.With(slog.String("folder", folder.Name))

	if err := checkFolderName(folder.Name); err != nil {
		log.Error("Skip folder", slog.Int("files", len(folder.Files)), slog.Any("error", err))

		for range folder.Files {
			summary.Add(entity.StatusFailed)
		}

		return nil
	}

	folderDir := filepath.Join(w.cfg.DownloadDir, folder.Name)
	if err := w.fs.MkdirAll(folderDir, dirMode); err != nil {
		return fmt.Errorf("cannot create folder dir %s: %w", folderDir, err)
	}

	log.Info("Processing folder", slog.Int("files", len(folder.Files)))

	for i, file := range folder.Files {
		if err := ctx.Err(); err != nil {
			log.Info("Interrupted", slog.Int("remaining", len(folder.Files)-i))

			return err
		}

		status, err := w.processFile(ctx, log, folderDir, file)
		if err != nil {
			return err
		}

		summary.Add(status)

		// The engine reports an aborted transfer as a plain failure.
		if err := ctx.Err(); err != nil {
			log.Info("Interrupted", slog.Int("remaining", len(folder.Files)-i-1))

			return err
		}
	}

	log.Info("Completed processing folder")

	return nil
}

func (w *WalkerService) processFile(ctx context.Context, log *slog.Logger, folderDir string, file *entity.File) (entity.FileStatus, error) {
	if err := checkFileName(file.Name); err != nil {
		log.Error("Failed to download", slog.String("name", file.Name), slog.Any("error", err))

		return entity.StatusFailed, nil
	}

	destPath := filepath.Join(folderDir, file.Name)

	status, err := w.srv.EnsureDownloaded(ctx, file.URL, file.Name, destPath)
	if err != nil {
		log.Error("Cannot process file", slog.String("name", file.Name), slog.Any("error", err))

		return status, fmt.Errorf("cannot process file %s: %w", destPath, err)
	}

	if !status.Succeeded() {
		log.Error("Failed to download", slog.String("name", file.Name), slog.String("url", file.URL))
	}

	return status, nil
}

// checkFolderName rejects names that would leave the download root.
// Nested names like "a/b" are allowed.
func checkFolderName(name string) error {
	if name == "" || name == "." || filepath.IsAbs(name) {
		return fmt.Errorf("%w: %q", common.ErrInvalidName, name)
	}

	for _, part := range strings.FieldsFunc(name, isSeparator) {
		if part == ".." {
			return fmt.Errorf("%w: %q", common.ErrInvalidName, name)
		}
	}

	return nil
}

// checkFileName allows a single path element only.
func checkFileName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsFunc(name, isSeparator) {
		return fmt.Errorf("%w: %q", common.ErrInvalidName, name)
	}

	return nil
}

func isSeparator(r rune) bool {
	return r == '/' || r == filepath.Separator
}
