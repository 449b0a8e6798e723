package catalogservice

// Service модель услуги из CatalogService
type Service struct {
	ID             int64  `json:"id"`
	ProviderID     int64  `json:"user_id"` // Владелец услуги (исполнитель)
	Name           string `json:"name"`
	Category       string `json:"category"`
	PriceHourCents int64  `json:"price_hour_cents"`
	DurationHours  *int   `json:"duration_hours,omitempty"` // Длительность слота; по умолчанию 1 час
}

// ErrorResponse модель ошибки от CatalogService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
