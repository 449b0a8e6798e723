package create_booking

import "time"

// Request модель запроса на создание бронирования
type Request struct {
	ClientID  int64     // ID клиента (из X-User-ID)
	ServiceID int64     // ID услуги; исполнитель определяется каталогом
	StartAt   time.Time // Начало интервала
	EndAt     time.Time // Конец интервала (не включается)
	Note      *string   // Комментарий клиента (опционально)
}
