package collector

import "codeberg.org/havenmon/sysmond/internal/errors"

const (
	// Read errors
	ErrCPURead     = errors.ErrorCode("collector_cpu_read_failed")
	ErrMemoryRead  = errors.ErrorCode("collector_memory_read_failed")
	ErrDiskRead    = errors.ErrorCode("collector_disk_read_failed")
	ErrNetworkRead = errors.ErrorCode("collector_network_read_failed")
	ErrHostRead    = errors.ErrorCode("collector_host_read_failed")
	ErrConnRead    = errors.ErrorCode("collector_connections_read_failed")

	// Subprocess and API errors
	ErrVcgencmd         = errors.ErrorCode("collector_vcgencmd_failed")
	ErrVcgencmdParse    = errors.ErrorCode("collector_vcgencmd_parse_failed")
	ErrSupervisorAPI    = errors.ErrorCode("collector_supervisor_api_failed")
	ErrSupervisorStatus = errors.ErrorCode("collector_supervisor_bad_status")
)
