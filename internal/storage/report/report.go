package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/jgivc/batchfetch/internal/entity"
	"github.com/spf13/afero"
)

const reportFileMode = 0o644

type fileSink struct {
	fs   afero.Fs
	path string
	log  *slog.Logger
}

func NewFileSink(path string, log *slog.Logger) *fileSink {
	return NewFileSinkWithFS(afero.NewOsFs(), path, log)
}

func NewFileSinkWithFS(fs afero.Fs, path string, log *slog.Logger) *fileSink {
	return &fileSink{
		fs:   fs,
		path: path,
		log:  log.With(slog.String("item", "ReportFile")),
	}
}

// Append opens the report file, writes one line and closes it again, so
// readers always see whole lines.
func (s *fileSink) Append(_ context.Context, rec entity.ReportRecord) error {
	f, err := s.fs.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, reportFileMode)
	if err != nil {
		return fmt.Errorf("cannot open report file %s: %w", s.path, err)
	}

	if _, err := f.WriteString(rec.String() + "\n"); err != nil {
		f.Close()

		return fmt.Errorf("cannot write report file %s: %w", s.path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot close report file %s: %w", s.path, err)
	}

	s.log.Debug("Report record appended", slog.String("name", rec.Name), slog.String("path", s.path))

	return nil
}

type MemorySink struct {
	mu      sync.Mutex
	records []entity.ReportRecord
}

func (s *MemorySink) Append(_ context.Context, rec entity.ReportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)

	return nil
}

func (s *MemorySink) Records() []entity.ReportRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]entity.ReportRecord(nil), s.records...)
}

type Sink interface {
	Append(ctx context.Context, rec entity.ReportRecord) error
}

type multiSink []Sink

// NewMultiSink appends to every sink in order and stops at the first error.
func NewMultiSink(sinks ...Sink) multiSink {
	return multiSink(sinks)
}

func (m multiSink) Append(ctx context.Context, rec entity.ReportRecord) error {
	for _, s := range m {
		if err := s.Append(ctx, rec); err != nil {
			return err
		}
	}

	return nil
}
