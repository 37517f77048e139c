// Package logging builds slog loggers with redaction and request context.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:     "info",
//	    Format:    "json",
//	    RedactPII: true,
//	})
//
//	logger.Info("user created",
//	    "email", "ada@example.com", // a***@example.com
//	    "password", "hunter22",     // ***
//	)
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "history served") // includes request_id
//
// The console format uses github.com/lmittmann/tint for colorized output.
package logging
