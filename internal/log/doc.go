// Package log provides the application logger, built on top of the
// standard slog package.
//
// This package extends slog to provide:
//   - An IMPORTANT level for summary lines that CI result pages should show
//   - A handler that appends those lines to a side file
//   - Configurable log levels with verbose mode support
//
// # Important lines
//
// Records logged at LevelImportant are appended, message only, to the
// important log file (ctest-important.log in the temporary directory by
// default). CTest based CI collects that file and prints it on the result
// page, so a coverage summary survives even when the full output is
// truncated. The records also reach the wrapped handler when it is enabled
// for their level.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose, false, "/tmp/ctest-important.log")
//	log.Important(ctx, logger, "%d total bindable classes", n)
//	slog.SetDefault(logger)
package log
