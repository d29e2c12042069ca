// Package logger wraps zap to offer:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and runtime level changes,
//   - convenience functions (Infof, WarnKV, ErrorKV, etc.).
//
// Long-running components take a named logger from the context once at
// construction and keep it, since hardware callbacks carry no context.
package logger
