// Package log is the leveled logger shared by workflows, graph listeners and
// the command line tool.
//
// The default Logger is backed by github.com/kataras/golog and writes to
// stderr. Swap it once at startup and use the package helpers anywhere:
//
//	log.SetDefaultLogger(log.NewCustomLogger(os.Stderr, log.LogLevelDebug))
//	log.Info("running workflow %s", "chain")
//
// Components that accept a Logger fall back to GetDefaultLogger when given nil.
package log
