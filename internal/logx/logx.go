// Package logx is the stack's structured-logging ambient concern: a thin
// wrapper over logrus mirroring secsgem's
// `self._logger = logging.getLogger(self.__module__ + "." + self.__class__.__name__)`
// convention from original_source/secsgem/hsms/connection.py — every
// stateful component gets one *logrus.Entry tagged with its own component
// name plus whatever identifying fields (session id, remote address) it
// wants attached to every subsequent log line.
package logx

import "github.com/sirupsen/logrus"

var base = logrus.StandardLogger()

// SetLogger configures the logger shared by every component-scoped entry
// this package hands out. Call it once at process start; it is not
// goroutine-safe against concurrent For() calls.
func SetLogger(l *logrus.Logger) {
	base = l
}

// For returns a *logrus.Entry scoped to component, analogous to
// logging.getLogger(component) in the Python original.
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}
