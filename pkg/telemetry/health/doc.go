// Package health runs readiness checks against the components a Crucible
// deployment depends on.
//
// # Overview
//
// Crucible has no server, so there are no probe endpoints. Instead the
// doctor command registers checks for the pattern library, the audit store
// and the directories exports and spans are written to, then prints the
// report:
//
//	checker := health.New(5 * time.Second)
//	checker.Register("audit_store", health.StoreCheck(store))
//	checker.Register("export_dir", health.DirectoryCheck(cfg.Audit.Export.Directory))
//
//	report := checker.Run(ctx)
//	if !report.Ready() {
//	    // at least one check failed or timed out
//	}
//
// Checks run concurrently, at most DefaultParallelism at a time unless
// SetParallelism says otherwise, each under its own timeout.
package health
