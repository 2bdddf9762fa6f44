package mqtt

import "codeberg.org/havenmon/sysmond/internal/errors"

const (
	ErrConnectFailed  = errors.ErrorCode("mqtt_connect_failed")
	ErrConnectTimeout = errors.ErrorCode("mqtt_connect_timeout")
	ErrPublishFailed  = errors.ErrorCode("mqtt_publish_failed")
	ErrEncodeFailed   = errors.ErrorCode("mqtt_encode_failed")
)
