package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jgivc/batchfetch/internal/entity"
	"github.com/jgivc/batchfetch/internal/util"
	"github.com/redis/go-redis/v9"
)

const (
	KeyReport = "report" // LIST. One formatted report line per transfer, RPUSH order.
	KeyFiles  = "files"  // HASH. sha1(dest_path) -> latest report line for that file.

	KeySeparator = ":"
)

type reportRepository struct {
	prefix string
	cl     *redis.Client
	log    *slog.Logger
}

func NewReportRepository(cl *redis.Client, prefix string, log *slog.Logger) *reportRepository {
	return &reportRepository{
		prefix: prefix,
		cl:     cl,
		log:    log.With(slog.String("item", "ReportRepository")),
	}
}

func (r *reportRepository) Append(ctx context.Context, rec entity.ReportRecord) error {
	line := rec.String()
	id := util.GetIDFromString(&rec.DestPath)

	pipe := r.cl.TxPipeline()
	pipe.RPush(ctx, getKey(r.prefix, KeyReport), line)
	pipe.HSet(ctx, getKey(r.prefix, KeyFiles), id, line)

	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Error("Cannot mirror report record", slog.String("name", rec.Name), slog.Any("error", err))

		return fmt.Errorf("cannot save report record %s: %w", rec.Name, err)
	}

	return nil
}

// Lines returns the mirrored report in append order.
func (r *reportRepository) Lines(ctx context.Context) ([]string, error) {
	lines, err := r.cl.LRange(ctx, getKey(r.prefix, KeyReport), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot get report lines: %w", err)
	}

	return lines, nil
}

func (r *reportRepository) Latest(ctx context.Context, destPath string) (string, error) {
	line, err := r.cl.HGet(ctx, getKey(r.prefix, KeyFiles), util.GetIDFromString(&destPath)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}

		return "", fmt.Errorf("cannot get latest record for %s: %w", destPath, err)
	}

	return line, nil
}

func getKey(keys ...string) string {
	return strings.Join(keys, KeySeparator)
}
