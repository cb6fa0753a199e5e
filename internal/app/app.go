package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jgivc/batchfetch/internal/adapter/manifest"
	"github.com/jgivc/batchfetch/internal/config"
	"github.com/jgivc/batchfetch/internal/entity"
	rreport "github.com/jgivc/batchfetch/internal/repository/report"
	"github.com/jgivc/batchfetch/internal/service/download"
	"github.com/jgivc/batchfetch/internal/service/walker"
	"github.com/jgivc/batchfetch/internal/storage/report"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

type Option func(a *App)

// WithFS replaces the OS filesystem for every component.
func WithFS(fs afero.Fs) Option {
	return func(a *App) {
		a.fs = fs
	}
}

func WithHTTPClient(cl download.HTTPClient) Option {
	return func(a *App) {
		a.cl = cl
	}
}

type App struct {
	cfg *config.Config
	fs  afero.Fs
	cl  download.HTTPClient
	log *slog.Logger
}

func New(cfg *config.Config, log *slog.Logger, opts ...Option) *App {
	a := &App{
		cfg: cfg,
		fs:  afero.NewOsFs(),
		log: log,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.cl == nil {
		a.cl = newHTTPClient(&cfg.HTTP)
	}

	return a
}

// NewLogger builds the text logger for level, one of the config.LogLevel* values.
func NewLogger(level string, w io.Writer) (*slog.Logger, error) {
	lo := &slog.HandlerOptions{}
	switch level {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		return nil, fmt.Errorf("unknown log level: %q", level)
	}

	return slog.New(slog.NewTextHandler(w, lo)), nil
}

// Run loads the manifest and credentials and downloads everything once.
// Configuration errors are returned before any request is made.
func (a *App) Run(ctx context.Context) (*entity.RunSummary, error) {
	a.log.Info("Download directory", slog.String("path", a.cfg.DownloadDir))

	folders, err := manifest.NewManifestReaderWithFS(a.fs, a.log).Read(a.cfg.ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("cannot load manifest: %w", err)
	}

	creds, err := config.LoadCredentials(a.fs, a.cfg.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("cannot load credentials: %w", err)
	}

	a.cfg.Credentials = creds
	a.log.Info("Credentials loaded", slog.Any("credentials", creds))

	sink, closeSink, err := a.reportSink(ctx)
	if err != nil {
		return nil, err
	}
	defer closeSink()

	engine := download.NewDownloadServiceWithFS(a.fs, a.cfg, a.cl, sink, a.log)
	w := walker.NewWalkerServiceWithFS(a.fs, a.cfg, engine, a.log)

	return w.ProcessAll(ctx, folders)
}

func (a *App) reportSink(ctx context.Context) (download.ReportSink, func(), error) {
	fileSink := report.NewFileSinkWithFS(a.fs, a.cfg.ReportFile, a.log)
	if a.cfg.Report.RedisURL == "" {
		return fileSink, func() {}, nil
	}

	opt, err := redis.ParseURL(a.cfg.Report.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()

		return nil, nil, fmt.Errorf("cannot connect to redis: %w", err)
	}

	a.log.Info("Report mirrored to redis", slog.String("addr", opt.Addr), slog.String("key", a.cfg.Report.RedisKey))

	closeFn := func() {
		if err := rdb.Close(); err != nil {
			a.log.Error("Cannot close redis client", slog.Any("error", err))
		}
	}

	repo := rreport.NewReportRepository(rdb, a.cfg.Report.RedisKey, a.log)

	return report.NewMultiSink(fileSink, repo), closeFn, nil
}

func newHTTPClient(cfg *config.HTTPConfig) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
			// Content-Length must describe the bytes written to disk.
			DisableCompression: true,
		},
		Timeout: cfg.Timeout,
	}
}
