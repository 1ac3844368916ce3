package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed          = errors.New("validation failed")
	ErrCompetitionTypeInvalid    = errors.New("invalid competition type")
	ErrCompetitionHasNoKnockout  = errors.New("competition has no knockout stage")
	ErrCompetitionHasNoGroups    = errors.New("competition has no group stage")
	ErrGroupSizeInvalid          = errors.New("max group size must be positive")
	ErrNotEnoughQualifiedPlayers = errors.New("not enough qualified players to build a bracket")
	ErrBracketHasResults         = errors.New("bracket has recorded results and cannot be regenerated")
	ErrScoresRequired            = errors.New("both scores are required")
	ErrPlayersIdentical          = errors.New("a player cannot play against themselves")
	ErrPasswordTooShort          = errors.New("password is too short")
	ErrInvalidCredentials        = errors.New("invalid email or password")

	// Ошибки конфликтов
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrPlayerNicknameConflict = errors.New("nickname is already in use")
	ErrCompetitionConflict    = errors.New("competition name already exists")
	ErrPlayerAlreadyJoined    = errors.New("player is already registered for this competition")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound        = errors.New("user not found")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrGroupNotFound       = errors.New("group not found")
	ErrMatchNotFound       = errors.New("match not found")
)
