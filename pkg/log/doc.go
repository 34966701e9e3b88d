// Package log provides the logging abstraction used by nsqs connections and
// discovery.
//
// The Logger interface can be implemented on top of any logging library.
// Adapters are provided for zerolog and zap, and a no-op logger is the
// library default so that embedding nsqs produces no output unless asked.
//
// # Usage
//
//	logger := log.NewZerologAdapter(os.Stderr, zerolog.InfoLevel)
//	c, err := conn.Dial(ctx, addr, conn.WithLogger(logger))
//
// Or, for applications already on zap:
//
//	logger := log.NewZapAdapter(zap.Must(zap.NewProduction()))
package log
