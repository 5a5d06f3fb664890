package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"crucible-hq/crucible/pkg/audit"
	"crucible-hq/crucible/pkg/detection"
	"crucible-hq/crucible/pkg/patterns"
)

// StoreCheck lists at most one event from store.
func StoreCheck(store audit.Store) CheckFunc {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		events, errs, err := store.List(ctx, &audit.Filter{Limit: 1})
		if err != nil {
			return err
		}
		for range events {
		}
		return <-errs
	}
}

// DirectoryCheck creates dir if needed and verifies a file can be written
// in it.
func DirectoryCheck(dir string) CheckFunc {
	return func(context.Context) error {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		f, err := os.CreateTemp(dir, ".crucible-doctor-*")
		if err != nil {
			return fmt.Errorf("write %s: %w", dir, err)
		}
		name := f.Name()
		f.Close()
		return os.Remove(name)
	}
}

// LibraryCheck runs every phrase rule's own text through engine and fails
// if the rule does not fire on it. Regex rules have no canonical text and
// are skipped.
func LibraryCheck(engine *detection.Engine) CheckFunc {
	return func(ctx context.Context) error {
		lib := engine.Library()
		if lib.Len() == 0 {
			return fmt.Errorf("pattern library %s has no rules", lib.Version())
		}

		var missed []string
		for _, rule := range lib.Rules() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if rule.Kind == patterns.KindRegex {
				continue
			}
			if !engine.Analyze(rule.Matcher).HasRule(rule.Name) {
				missed = append(missed, rule.Name)
			}
		}
		if len(missed) > 0 {
			return fmt.Errorf("rules do not match their own phrase: %v", missed)
		}
		return nil
	}
}

// FileDirCheck checks the directory that will hold path.
func FileDirCheck(path string) CheckFunc {
	return DirectoryCheck(filepath.Dir(path))
}
