package usecases

import (
	"time"

	"meridian/internal/shared/biztime"
)

func nowUTC() time.Time {
	return biztime.NowUTC()
}
