package node

import "time"

// DailyTraffic is a per-node per-business-day aggregate. Date is the business
// calendar day in YYYY-MM-DD form.
type DailyTraffic struct {
	NodeID        uint
	Date          string
	UploadBytes   int64
	DownloadBytes int64
	Connections   int64
	UpdatedAt     time.Time
}

func (t *DailyTraffic) TotalBytes() int64 {
	return t.UploadBytes + t.DownloadBytes
}
