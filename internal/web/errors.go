package web

import "codeberg.org/havenmon/sysmond/internal/errors"

const (
	ErrServerFailed   = errors.ErrorCode("web_server_failed")
	ErrShutdownFailed = errors.ErrorCode("web_shutdown_failed")
)
