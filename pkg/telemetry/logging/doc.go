// Package logging builds the process-wide *slog.Logger.
//
// Loggers are created from a Config holding level, format and writer. The
// returned logger adds run metadata stored in the context (run id, project
// name, rule-set hash) and the active trace and span ids to every record
// logged through the *Context methods:
//
//	ctx = logging.WithRunID(ctx, id)
//	logger.InfoContext(ctx, "processing project")  // includes run_id
package logging
