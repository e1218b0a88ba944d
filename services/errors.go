package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed     = errors.New("validation failed")
	ErrSameFaculties        = errors.New("a match needs two different faculties")
	ErrNegativeScore        = errors.New("scores cannot be negative")
	ErrInvalidMatchStatus   = errors.New("invalid match status provided")
	ErrInvalidMatchSchedule = errors.New("match date must be YYYY-MM-DD and time HH:MM")
	ErrTiedEliminationMatch = errors.New("an elimination match cannot be completed with a tied score")
	ErrMedalRoundTaken      = errors.New("another completed match already holds this medal round")
	ErrNotArtsMatch         = errors.New("match does not belong to an art competition")
	ErrNotArtsCompetition   = errors.New("competition is not an art competition")
	ErrDuplicateArtsFaculty = errors.New("each faculty can be scored only once per match")
	ErrInvalidLogoType      = errors.New("unsupported logo content type")

	// Ошибки конфликтов
	ErrAdminEmailConflict = errors.New("email address is already in use")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrMatchNotFound       = errors.New("match not found")
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrFacultyNotFound     = errors.New("faculty not found")

	// Медальный зачет
	ErrSyncAborted          = errors.New("medal tally sync aborted, standings were left unchanged")
	ErrStorageNotConfigured = errors.New("file storage is not configured")
)
