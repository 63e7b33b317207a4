// Package log provides the logging interface for the glmcp SDK.
//
// [lib.Config] takes any [Logger]. When it is not set, [Noop] is used and the
// SDK stays silent. Applications already on logrus can use [NewLogrus]:
//
//	entry := logrus.NewEntry(logrus.StandardLogger())
//	client, err := lib.New(ctx, lib.Config{Logger: log.NewLogrus(entry)})
//
// Other loggers implement [Logger]. Invocations log with the "invocation-id"
// and "operation" values set on the context, WithCtxValues should carry them.
package log

import (
	"github.com/sirupsen/logrus"

	"github.com/slok/glmcp/internal/log"
	loglogrus "github.com/slok/glmcp/internal/log/logrus"
)

// Logger is the interface that loggers must implement for the SDK.
type Logger = log.Logger

// Kv are structured logging key-value pairs.
type Kv = log.Kv

// Noop discards all log output.
var Noop Logger = log.Noop

// NewLogrus returns a [Logger] that writes to a logrus entry.
func NewLogrus(entry *logrus.Entry) Logger {
	return loglogrus.NewLogrus(entry)
}
