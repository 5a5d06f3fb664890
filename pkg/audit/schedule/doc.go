// Package schedule writes periodic export snapshots of the audit trail.
//
// A Snapshotter exports the whole log to a new timestamped file in a
// directory; a Scheduler runs it on a cron schedule:
//
//	snap, err := schedule.NewSnapshotter(store, &schedule.Config{
//	    Schedule:  "0 18 * * 1-5",
//	    Directory: "exports",
//	    Format:    "csv",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sched := schedule.NewScheduler(snap)
//	if err := sched.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer sched.Stop()
//
// Snapshot files are written to a temporary name, synced and renamed, so a
// reader never sees a partial export. Existing snapshots are never modified.
package schedule
