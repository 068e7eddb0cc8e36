package logger

import "sync"

// Backend receives log records from the package-level logging functions.
type Backend interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
}

var (
	mu       sync.RWMutex
	backends []Backend
)

// Init configures the backends that receive log output. Until Init is called
// all logging functions are no-ops, so importing libraries stay silent by
// default.
func Init(b ...Backend) {
	mu.Lock()
	defer mu.Unlock()
	backends = b
}

// Reset removes all configured backends.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	backends = nil
}

func current() []Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backends
}

// Debug writes a message at DEBUG level to all configured backends.
func Debug(message string, keyvals ...any) {
	for _, b := range current() {
		b.Debug(message, keyvals...)
	}
}

// Info writes a message at INFO level to all configured backends.
func Info(message string, keyvals ...any) {
	for _, b := range current() {
		b.Info(message, keyvals...)
	}
}

// Warn writes a message at WARN level to all configured backends.
func Warn(message string, keyvals ...any) {
	for _, b := range current() {
		b.Warn(message, keyvals...)
	}
}

// Error writes a message at ERROR level to all configured backends.
func Error(message string, keyvals ...any) {
	for _, b := range current() {
		b.Error(message, keyvals...)
	}
}
