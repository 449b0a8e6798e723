package get_availability_summary

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/service/scheduling"
)

type SchedulingService interface {
	GetMonthAvailabilitySummary(ctx context.Context, serviceID int64, startDate, endDate time.Time) (*scheduling.MonthSummary, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
