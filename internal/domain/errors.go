package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidPrompt      = errors.New("invalid prompt")
	ErrUnsupportedContent = errors.New("unsupported content type")
	ErrNoProvider         = errors.New("no available provider")
)
