package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/jgivc/batchfetch/internal/common"
	"github.com/jgivc/batchfetch/internal/config"
	"github.com/jgivc/batchfetch/internal/entity"
	"github.com/jgivc/batchfetch/internal/util"
	"github.com/spf13/afero"
)

const (
	serviceName = "download"

	headerContentLength = "Content-Length"
	defaultChunkSize    = 65536
	fileMode            = 0o644
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type ReportSink interface {
	Append(ctx context.Context, rec entity.ReportRecord) error
}

// transportError marks failures on the network side of a transfer. They are
// recoverable per file, anything else coming out of transfer is fatal.
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.err)
}

func (e *transportError) Unwrap() error {
	return e.err
}

type downloadService struct {
	fs     afero.Fs
	cl     HTTPClient
	sink   ReportSink
	creds  config.Credentials
	chunk  int
	delete bool
	now    func() time.Time
	log    *slog.Logger
}

func NewDownloadService(cfg *config.Config, cl HTTPClient, sink ReportSink, log *slog.Logger) *downloadService {
	return NewDownloadServiceWithFS(afero.NewOsFs(), cfg, cl, sink, log)
}

func NewDownloadServiceWithFS(fs afero.Fs, cfg *config.Config, cl HTTPClient, sink ReportSink, log *slog.Logger) *downloadService {
	s := &downloadService{
		fs:     fs,
		cl:     cl,
		sink:   sink,
		chunk:  cfg.ChunkSize,
		delete: cfg.MismatchPolicy != config.MismatchOverwrite,
		now:    time.Now,
		log:    log.With(slog.String("service", serviceName)),
	}

	if s.chunk < 1 {
		s.chunk = defaultChunkSize
	}

	if cfg.Credentials != nil {
		s.creds = *cfg.Credentials
	}

	return s
}

/*
EnsureDownloaded makes sure destPath holds the file served at url.

 1. The file is requested first, its declared size comes from Content-Length (0 when absent).
 2. An existing local file of that size is kept, nothing is written or reported.
 3. A local file of another size is removed (unless the overwrite policy is set) and fetched again.
 4. A completed transfer is appended to the report sink.

Transport failures and non-2xx answers give StatusFailed with a nil error.
Filesystem and report errors are returned and should stop the run.
*/
func (s *downloadService) EnsureDownloaded(ctx context.Context, url, name, destPath string) (entity.FileStatus, error) {
	log := s.log.With(slog.String("name", name), slog.String("path", destPath))

	resp, err := s.get(ctx, url)
	if err != nil {
		log.Error("Cannot request file", slog.String("url", url), slog.Any("error", err))

		return entity.StatusFailed, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err := &common.RemoteAccessError{URL: url, StatusCode: resp.StatusCode}
		log.Error("Cannot access remote file", slog.Any("error", err))

		return entity.StatusFailed, nil
	}

	remoteSize := declaredSize(resp)

	downloaded, err := s.isDownloaded(log, destPath, remoteSize)
	if err != nil {
		return entity.StatusFailed, err
	}

	if downloaded {
		log.Info("File already downloaded, skipping", slog.Int64("size", remoteSize))

		return entity.StatusSkipped, nil
	}

	if err := s.transfer(resp.Body, destPath); err != nil {
		var te *transportError
		if errors.As(err, &te) {
			log.Error("Cannot download file", slog.String("url", url), slog.Any("error", err))

			return entity.StatusFailed, nil
		}

		return entity.StatusFailed, err
	}

	info, err := s.fs.Stat(destPath)
	if err != nil {
		return entity.StatusFailed, fmt.Errorf("cannot stat downloaded file %s: %w", destPath, err)
	}

	rec := entity.ReportRecord{
		Time:     s.now(),
		Name:     name,
		Size:     info.Size(),
		DestPath: destPath,
	}

	if err := s.sink.Append(ctx, rec); err != nil {
		return entity.StatusDownloaded, fmt.Errorf("cannot append report record: %w", err)
	}

	log.Info("File downloaded", slog.Int64("size", info.Size()), slog.Int64("remote_size", remoteSize))

	return entity.StatusDownloaded, nil
}

func (s *downloadService) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot create request: %w", err)
	}

	req.SetBasicAuth(s.creds.Username, s.creds.Password)

	return s.cl.Do(req)
}

// isDownloaded reports whether destPath already holds remoteSize bytes.
// A stale file is removed before returning when the delete policy is set.
func (s *downloadService) isDownloaded(log *slog.Logger, destPath string, remoteSize int64) (bool, error) {
	info, err := s.fs.Stat(destPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("cannot stat %s: %w", destPath, err)
	}

	if info.Size() == remoteSize {
		return true, nil
	}

	log.Warn("Local file size differs from remote",
		slog.String("local_mb", util.Megabytes(info.Size())),
		slog.String("remote_mb", util.Megabytes(remoteSize)),
	)

	if s.delete {
		if err := s.fs.Remove(destPath); err != nil {
			return false, fmt.Errorf("cannot remove stale file %s: %w", destPath, err)
		}

		log.Info("Stale file removed")
	}

	return false, nil
}

// transfer writes body to destPath chunk by chunk. Whatever was written
// before a failure stays on disk.
func (s *downloadService) transfer(body io.Reader, destPath string) error {
	f, err := s.fs.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", destPath, err)
	}

	buf := make([]byte, s.chunk)
	for {
		n, rerr := readChunk(body, buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				f.Close()

				return fmt.Errorf("cannot write %s: %w", destPath, err)
			}
		}

		if rerr == io.EOF {
			break
		}

		if rerr != nil {
			f.Close()

			return &transportError{err: rerr}
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot close %s: %w", destPath, err)
	}

	return nil
}

// readChunk fills buf unless the reader ends or fails first.
func readChunk(r io.Reader, buf []byte) (int, error) {
	var n int
	for n < len(buf) {
		nn, err := r.Read(buf[n:])
		n += nn
		if err != nil {
			return n, err
		}
	}

	return n, nil
}

func declaredSize(resp *http.Response) int64 {
	if v := resp.Header.Get(headerContentLength); v != "" {
		size, err := strconv.ParseInt(v, 10, 64)
		if err != nil || size < 0 {
			return 0
		}

		return size
	}

	return 0
}
