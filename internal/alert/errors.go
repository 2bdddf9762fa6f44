package alert

import "codeberg.org/havenmon/sysmond/internal/errors"

const (
	// Journal storage errors
	ErrInvalidDBPath = errors.ErrorCode("alert_journal_invalid_db_path")
	ErrStorageInit   = errors.ErrorCode("alert_journal_storage_init_failed")
	ErrStorageAccess = errors.ErrorCode("alert_journal_storage_access_failed")
	ErrStorageClose  = errors.ErrorCode("alert_journal_storage_close_failed")
)
