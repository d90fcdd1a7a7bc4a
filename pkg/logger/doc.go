/*
Package logger wraps uber-go/zap behind a small interface so that the
converter, the worker pool and the watcher can log with structured fields
without depending on zap directly.

Verbosity Levels:

	0: Warn, Error (default)
	1: Info + level 0          (-v)
	2: Debug + level 1         (-vv, or --debug)
	3: Trace + level 2         (-vvv)

Structured Logging:

	log.WithFields(logger.Fields{
	    "file":  "sample_CV.DTA",
	    "lines": 1604,
	}).Info("File converted")

Output Example (JSON, the default):

	{"level":"info","ts":"2024-01-20T15:04:05.000Z","message":"File converted","file":"sample_CV.DTA","lines":1604}

Format console switches to zap's human readable encoder:

	2024-01-20T15:04:05.000Z	INFO	File converted	{"file": "sample_CV.DTA", "lines": 1604}

Logs go to stderr. The [*]/[+]/[-] status lines printed by the CLI are not
log entries and go to stdout regardless of verbosity.

The logger is safe for concurrent use.
*/
package logger
