package booking

import (
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
)

// DBExecutor переиспользуется из dbmetrics: *dbmetrics.DB или транзакция из контекста
type DBExecutor = dbmetrics.DBExecutor
