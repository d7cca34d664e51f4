// Package utils hosts the shared configuration loading and logging
// helpers used by the queryconv CLI entrypoint.
package utils
