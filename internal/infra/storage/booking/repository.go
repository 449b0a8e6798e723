package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/pgerrors"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

const bookingsTable = "bookings"

var bookingColumns = []string{
	"id",
	"client_id",
	"provider_id",
	"service_id",
	"start_at",
	"end_at",
	"status",
	"canceled_by",
	"note",
	"created_at",
	"updated_at",
}

// Repository репозиторий бронирований в PostgreSQL
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование.
// Если вставка нарушает EXCLUDE ограничение bookings_no_overlap, возвращает ErrOverlap.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(bookingsTable).
		Columns(
			"client_id",
			"provider_id",
			"service_id",
			"start_at",
			"end_at",
			"status",
			"canceled_by",
			"note",
		).
		Values(
			booking.ClientID,
			booking.ProviderID,
			booking.ServiceID,
			booking.StartAt,
			booking.EndAt,
			booking.Status,
			nullParty(booking.CanceledBy),
			booking.Note,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, wrapWriteError("Create", err)
	}

	return booking, nil
}

// GetByID получает бронирование по ID.
// Внутри транзакции строка блокируется (FOR UPDATE).
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From(bookingsTable).
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, wrapScanError("GetByID - scan booking", err)
	}

	return booking, nil
}

// ListByProvider получает бронирования исполнителя, пересекающиеся с filter.Range.
// Пересечение полуоткрытое: start_at < range.end AND end_at > range.start.
// Внутри транзакции найденные строки блокируются (FOR UPDATE).
func (r *Repository) ListByProvider(ctx context.Context, filter domain.ProviderBookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From(bookingsTable).
		Where(squirrel.Eq{"provider_id": filter.ProviderID}).
		Where(squirrel.Lt{"start_at": filter.Range.End}).
		Where(squirrel.Gt{"end_at": filter.Range.Start}).
		OrderBy("start_at ASC")

	if len(filter.States) > 0 {
		selectBuilder = selectBuilder.Where(statesCondition(filter.States))
	}

	if filter.ExcludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *filter.ExcludeID})
	}

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByProvider - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapReadError("ListByProvider", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListByUser получает историю бронирований пользователя как клиента или как исполнителя
func (r *Repository) ListByUser(ctx context.Context, filter domain.UserBookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	column := "client_id"
	if filter.Role == domain.RoleProvider {
		column = "provider_id"
	}

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From(bookingsTable).
		Where(squirrel.Eq{column: filter.UserID}).
		OrderBy("start_at DESC")

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByUser - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapReadError("ListByUser", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListStalePending получает ожидающие подтверждения бронирования, которые давно не обновлялись
func (r *Repository) ListStalePending(ctx context.Context, filter domain.StalePendingFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From(bookingsTable).
		Where(squirrel.Eq{"status": domain.StatusPending}).
		Where(squirrel.Gt{"start_at": filter.StartsAfter}).
		Where(squirrel.LtOrEq{"updated_at": filter.UpdatedBefore}).
		OrderBy("start_at ASC")

	if filter.Limit > 0 {
		selectBuilder = selectBuilder.Limit(filter.Limit)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListStalePending - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapReadError("ListStalePending", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// UpdateState переводит бронирование в новое состояние, только если текущий статус равен from.
// Переход без заметки сохраняет прежнюю. Возвращает ErrStateChanged, если строка не обновилась.
func (r *Repository) UpdateState(ctx context.Context, id int64, from domain.BookingStatus, to domain.State, note *string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(bookingsTable).
		Set("status", to.Status).
		Set("canceled_by", nullParty(to.CanceledBy)).
		Set("note", squirrel.Expr("COALESCE(?, note)", note)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": from}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateState - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapWriteError("UpdateState", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateState - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrStateChanged
	}

	return nil
}

// LockProvider берет транзакционную advisory блокировку на календарь исполнителя.
// Блокировка снимается при завершении транзакции, поэтому вызов вне транзакции запрещен.
func (r *Repository) LockProvider(ctx context.Context, providerID int64) error {
	if !dbmetrics.IsInTransaction(ctx) {
		return fmt.Errorf("%w: LockProvider - must be called inside a transaction", ErrTransaction)
	}
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if _, err := executor.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", providerID); err != nil {
		return wrapWriteError("LockProvider", err)
	}

	return nil
}

// statesCondition строит условие WHERE по списку состояний
func statesCondition(states []domain.StateMatch) squirrel.Or {
	condition := make(squirrel.Or, 0, len(states))
	for _, s := range states {
		if s.CanceledBy == nil {
			condition = append(condition, squirrel.Eq{"status": s.Status})
			continue
		}
		condition = append(condition, squirrel.And{
			squirrel.Eq{"status": s.Status},
			squirrel.Eq{"canceled_by": *s.CanceledBy},
		})
	}
	return condition
}

// wrapWriteError отделяет конфликты конкурентной записи от прочих ошибок
func wrapWriteError(op string, err error) error {
	switch pgerrors.Classify(err) {
	case pgerrors.ErrExclusionViolation:
		return fmt.Errorf("%w: %s: %v", ErrOverlap, op, err)
	case pgerrors.ErrSerializationFailure:
		return fmt.Errorf("%w: %s: %v", pgerrors.ErrSerializationFailure, op, err)
	default:
		return fmt.Errorf("%w: %s - execute: %v", ErrExecQuery, op, err)
	}
}

func wrapReadError(op string, err error) error {
	if errors.Is(pgerrors.Classify(err), pgerrors.ErrSerializationFailure) {
		return fmt.Errorf("%w: %s: %v", pgerrors.ErrSerializationFailure, op, err)
	}
	return fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
}

// wrapScanError ошибки QueryRow и rows.Err приходят при сканировании, включая конфликты сериализации
func wrapScanError(op string, err error) error {
	if errors.Is(pgerrors.Classify(err), pgerrors.ErrSerializationFailure) {
		return fmt.Errorf("%w: %s: %v", pgerrors.ErrSerializationFailure, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrScanRow, op, err)
}

func nullParty(p *domain.Party) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*p), Valid: true}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		booking    domain.Booking
		canceledBy sql.NullString
		note       sql.NullString
	)

	err := row.Scan(
		&booking.ID,
		&booking.ClientID,
		&booking.ProviderID,
		&booking.ServiceID,
		&booking.StartAt,
		&booking.EndAt,
		&booking.Status,
		&canceledBy,
		&note,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if canceledBy.Valid {
		party := domain.Party(canceledBy.String)
		booking.CanceledBy = &party
	}
	if note.Valid {
		booking.Note = &note.String
	}

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, wrapScanError("scanBookings - scan row", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapScanError("scanBookings - rows error", err)
	}

	return bookings, nil
}
