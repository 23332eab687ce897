// Package providers contains dependency injection providers for all services.
package providers

import "time"

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 30 * time.Second
