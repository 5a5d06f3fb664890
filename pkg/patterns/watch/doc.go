// Package watch reports changes to pattern library files.
//
// A Watcher follows individual library files and directories of them.
// Bursts of filesystem events, such as an editor writing a temp file and
// renaming it over the original, are collapsed into one callback after a
// quiet period.
//
//	w, err := watch.New(watch.Config{Paths: []string{"libraries/"}}, logger)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	return w.Run(ctx, func(path string) {
//	    relint()
//	})
package watch
