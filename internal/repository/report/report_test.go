package report

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jgivc/batchfetch/internal/entity"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestGetKey(t *testing.T) {
	require.Equal(t, "batchfetch:report", getKey("batchfetch", KeyReport))
	require.Equal(t, "files", getKey(KeyFiles))
}

func TestReportRepository(t *testing.T) {
	mr := miniredis.RunT(t)

	cl := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cl.Close()

	ctx := context.Background()
	repo := NewReportRepository(cl, "batchfetch", slog.New(slog.NewTextHandler(io.Discard, nil)))

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local)
	first := entity.ReportRecord{Time: ts, Name: "a.mp4", Size: 1000, DestPath: "downloads/Clips/a.mp4"}
	second := entity.ReportRecord{Time: ts.Add(time.Hour), Name: "a.mp4", Size: 2000, DestPath: "downloads/Clips/a.mp4"}
	other := entity.ReportRecord{Time: ts, Name: "b.mp4", Size: 10, DestPath: "downloads/Clips/b.mp4"}

	lines, err := repo.Lines(ctx)
	require.NoError(t, err)
	require.Empty(t, lines)

	require.NoError(t, repo.Append(ctx, first))
	require.NoError(t, repo.Append(ctx, second))
	require.NoError(t, repo.Append(ctx, other))

	lines, err = repo.Lines(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{first.String(), second.String(), other.String()}, lines)

	stored, err := mr.List("batchfetch:report")
	require.NoError(t, err)
	require.Equal(t, lines, stored)

	fields, err := mr.HKeys("batchfetch:files")
	require.NoError(t, err)
	require.Len(t, fields, 2)

	latest, err := repo.Latest(ctx, "downloads/Clips/a.mp4")
	require.NoError(t, err)
	require.Equal(t, second.String(), latest)

	latest, err = repo.Latest(ctx, "downloads/Clips/missing.mp4")
	require.NoError(t, err)
	require.Empty(t, latest)
}

func TestReportRepositoryServerDown(t *testing.T) {
	mr := miniredis.RunT(t)

	cl := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer cl.Close()

	repo := NewReportRepository(cl, "batchfetch", slog.New(slog.NewTextHandler(io.Discard, nil)))
	mr.Close()

	rec := entity.ReportRecord{Time: time.Now(), Name: "a.mp4", Size: 1, DestPath: "downloads/Clips/a.mp4"}
	require.Error(t, repo.Append(context.Background(), rec))

	_, err := repo.Lines(context.Background())
	require.Error(t, err)
}
