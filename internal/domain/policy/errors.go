package policy

import "errors"

var (
	ErrInvalidLevel    = errors.New("approval level must be between 2 and 6")
	ErrDuplicateLevel  = errors.New("approval level configured twice")
	ErrInvalidCap      = errors.New("level cap must be between 1 and 6")
	ErrInvalidOverride = errors.New("invalid approval override")
)
