package userservice

// Роли пользователя в UserService
const (
	RoleClient       = "client"
	RoleProfessional = "professional"
)

// User модель пользователя из UserService
type User struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`            // Активная роль: client или professional
	AsProfessional bool   `json:"as_professional"` // Пользователь зарегистрирован как исполнитель
}

// IsProvider пользователь может принимать бронирования как исполнитель
func (u *User) IsProvider() bool {
	return u.AsProfessional || u.Role == RoleProfessional
}

// ErrorResponse модель ошибки от UserService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
