package httpx

import (
	"errors"

	"dqx0.com/go/tinyhttp/httpx/internal/http1"
)

var (
	ErrNoHeaders          = http1.ErrNoHeaders
	ErrInvalidRequestLine = http1.ErrInvalidRequestLine
	ErrInvalidVersion     = http1.ErrInvalidVersion
	ErrHeaderTooLarge     = http1.ErrHeaderTooLarge
	ErrBodyTooLarge       = errors.New("httpx: body too large")
	ErrServerClosed       = errors.New("httpx: server closed")
)
