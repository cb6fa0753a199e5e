package entity

import (
	"fmt"
	"time"

	"github.com/jgivc/batchfetch/internal/util"
)

const ReportTimeLayout = "2006-01-02 15:04:05"

// ReportRecord is one audit line appended after a successful transfer.
type ReportRecord struct {
	Time     time.Time
	Name     string
	Size     int64
	DestPath string
}

func (r ReportRecord) String() string {
	return fmt.Sprintf("%s | %s | %s MB| %s", r.Time.Format(ReportTimeLayout), r.Name, util.Megabytes(r.Size), r.DestPath)
}
