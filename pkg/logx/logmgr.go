//nolint:gochecknoglobals
package logx

import (
	"context"
	"log"
	"sync"
)

type ServiceContext struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
}

// Config is the subset of the application configuration the logger needs.
// configmgr.BaseConfig satisfies it.
type Config interface {
	GetServiceName() string
	GetVersion() string
	GetEnvironment() string
	GetLogLevel() string
}

// Logger - logger interface.
type Logger interface {
	// LogInfo logs a message at Info level.
	LogInfo(ctx context.Context, msg string)
	// LogDebug logs a message at Debug level.
	LogDebug(ctx context.Context, msg string)
	// LogWarning logs a message at Warning level.
	LogWarning(ctx context.Context, msg string, errs ...error)
	// LogError logs a message at Error level.
	LogError(ctx context.Context, msg string, errs ...error)
	// LogPanic logs a message at Panic level then panics.
	LogPanic(ctx context.Context, msg string, errs ...error)
	// LogFatal logs a message at Fatal Level.
	// The logger then calls os.Exit(1), even if logging at FatalLevel is
	// disabled.
	LogFatal(ctx context.Context, msg string, errs ...error)

	// With returns a child logger carrying an extra string field.
	With(key, value string) Logger

	GetLogger() interface{}
}

var (
	lock   sync.RWMutex
	logger Logger
)

// DefaultLogger - Logger implementation backed by the standard library log package.
type DefaultLogger struct {
	prefix string
}

// GetLogger - returns an instance of the Logger.
// If called before SetupLogger a stdlib-backed logger will be returned.
func GetLogger() Logger {
	lock.RLock()
	defer lock.RUnlock()

	if logger == nil {
		return &DefaultLogger{}
	}

	return logger
}

// SetLogger replaces the global logger, nil restores the default.
func SetLogger(l Logger) {
	lock.Lock()
	defer lock.Unlock()
	logger = l
}

func (nl *DefaultLogger) LogInfo(ctx context.Context, msg string) {
	log.Println("INFO " + nl.prefix + msg)
}

func (nl *DefaultLogger) LogDebug(ctx context.Context, msg string) {
	log.Println("DEBUG " + nl.prefix + msg)
}

func (nl *DefaultLogger) LogWarning(ctx context.Context, msg string, errs ...error) {
	log.Println("WARN "+nl.prefix+msg, errs)
}

func (nl *DefaultLogger) LogError(ctx context.Context, msg string, errs ...error) {
	log.Println("ERROR "+nl.prefix+msg, errs)
}

func (nl *DefaultLogger) LogPanic(ctx context.Context, msg string, errs ...error) {
	log.Panicln("PANIC "+nl.prefix+msg, errs)
}

func (nl *DefaultLogger) LogFatal(ctx context.Context, msg string, errs ...error) {
	log.Fatalln("FATAL "+nl.prefix+msg, errs)
}

func (nl *DefaultLogger) With(key, value string) Logger {
	return &DefaultLogger{prefix: nl.prefix + key + "=" + value + " "}
}

func (nl *DefaultLogger) GetLogger() interface{} { return nil }
