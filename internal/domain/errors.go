package domain

import (
	"errors"
	"fmt"
)

// Категории доменных ошибок. Конкретные ошибки ниже оборачивают одну из
// категорий, поэтому обработчики могут проверять и точную причину, и класс
// через errors.Is.
var (
	// ErrValidation возвращается при некорректных входных данных
	ErrValidation = errors.New("validation failed")

	// ErrConflict возвращается при нарушении уникальности или гонке состояний
	ErrConflict = errors.New("conflict")

	// ErrForbidden возвращается когда у актора нет требуемой роли
	ErrForbidden = errors.New("forbidden")

	// ErrInvariant возвращается когда операция нарушила бы инвариант команды
	ErrInvariant = errors.New("invariant violation")

	// ErrNotFound возвращается когда ресурс не найден
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized возвращается при неудачной аутентификации
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken возвращается когда JWT токен невалиден
	ErrInvalidToken = errors.New("invalid token")
)

// Конкретные доменные ошибки
var (
	// ErrAlreadyMember возвращается когда у пользователя уже есть активное членство
	ErrAlreadyMember = fmt.Errorf("%w: user already has an active membership", ErrConflict)

	// ErrNotMember возвращается когда у пользователя нет активного членства в команде
	ErrNotMember = fmt.Errorf("%w: user is not an active member of the team", ErrForbidden)

	// ErrNotOrganizer возвращается когда действие доступно только организатору
	ErrNotOrganizer = fmt.Errorf("%w: action requires the organizer role", ErrForbidden)

	// ErrLastOrganizer возвращается когда удаление оставило бы команду без организаторов
	ErrLastOrganizer = fmt.Errorf("%w: team must keep at least one active organizer", ErrInvariant)

	// ErrDuplicateInvitation возвращается при попытке создать второе pending-приглашение
	ErrDuplicateInvitation = fmt.Errorf("%w: a pending invitation for this user already exists", ErrConflict)

	// ErrNotInvitee возвращается когда на приглашение отвечает не его адресат
	ErrNotInvitee = fmt.Errorf("%w: only the invitee may respond to an invitation", ErrForbidden)

	// ErrInvitationClosed возвращается при ответе на приглашение в терминальном статусе
	ErrInvitationClosed = fmt.Errorf("%w: invitation is no longer pending", ErrConflict)

	// ErrInvitationExpired возвращается при ответе на просроченное приглашение
	ErrInvitationExpired = fmt.Errorf("%w: invitation has expired", ErrConflict)

	// ErrNotSender возвращается когда сообщение меняет не его автор
	ErrNotSender = fmt.Errorf("%w: only the sender may modify a message", ErrForbidden)

	// ErrSystemMessage возвращается при попытке изменить системное сообщение
	ErrSystemMessage = fmt.Errorf("%w: system messages are immutable", ErrConflict)

	// ErrMessageDeleted возвращается при попытке отредактировать удаленное сообщение
	ErrMessageDeleted = fmt.Errorf("%w: message has been deleted", ErrConflict)

	// ErrTeamNotFound возвращается когда команда не найдена
	ErrTeamNotFound = fmt.Errorf("%w: team", ErrNotFound)

	// ErrProfileNotFound возвращается когда профиль пользователя не найден
	ErrProfileNotFound = fmt.Errorf("%w: profile", ErrNotFound)

	// ErrInvitationNotFound возвращается когда приглашение не найдено
	ErrInvitationNotFound = fmt.Errorf("%w: invitation", ErrNotFound)

	// ErrMessageNotFound возвращается когда сообщение не найдено
	ErrMessageNotFound = fmt.Errorf("%w: message", ErrNotFound)
)

// ErrorCode представляет машиночитаемые коды ошибок API
type ErrorCode string

// Коды ошибок API
const (
	CodeValidation        ErrorCode = "VALIDATION"
	CodeAlreadyMember     ErrorCode = "ALREADY_MEMBER"
	CodeNotMember         ErrorCode = "NOT_MEMBER"
	CodeNotOrganizer      ErrorCode = "NOT_ORGANIZER"
	CodeLastOrganizer     ErrorCode = "LAST_ORGANIZER"
	CodeInvitePending     ErrorCode = "INVITE_PENDING"
	CodeNotInvitee        ErrorCode = "NOT_INVITEE"
	CodeInviteClosed      ErrorCode = "INVITE_CLOSED"
	CodeInviteExpired     ErrorCode = "INVITE_EXPIRED"
	CodeNotSender         ErrorCode = "NOT_SENDER"
	CodeMessageImmutable  ErrorCode = "MESSAGE_IMMUTABLE"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// MapErrorToCode преобразует доменные ошибки в коды ошибок API
func MapErrorToCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrAlreadyMember):
		return CodeAlreadyMember
	case errors.Is(err, ErrNotMember):
		return CodeNotMember
	case errors.Is(err, ErrNotOrganizer):
		return CodeNotOrganizer
	case errors.Is(err, ErrLastOrganizer):
		return CodeLastOrganizer
	case errors.Is(err, ErrDuplicateInvitation):
		return CodeInvitePending
	case errors.Is(err, ErrNotInvitee):
		return CodeNotInvitee
	case errors.Is(err, ErrInvitationExpired):
		return CodeInviteExpired
	case errors.Is(err, ErrInvitationClosed):
		return CodeInviteClosed
	case errors.Is(err, ErrNotSender):
		return CodeNotSender
	case errors.Is(err, ErrSystemMessage), errors.Is(err, ErrMessageDeleted):
		return CodeMessageImmutable
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken):
		return CodeUnauthorized
	default:
		return CodeInternal
	}
}
