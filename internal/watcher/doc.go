// Package watcher re-runs work when the Android package database changes.
//
// The package manager rewrites /data/system/packages.list whenever an app
// is installed, updated or removed. The Watcher subscribes to fsnotify
// events on the file's directory (the file is replaced by rename, so a
// watch on the file itself would be lost), debounces bursts of events and
// invokes a callback once per burst.
//
// Key features:
//   - Directory-level watch that survives atomic replacement
//   - Debouncing so one install triggers one callback
//   - Callbacks run on a single goroutine and never overlap
//   - Graceful shutdown via Stop
//
// Example usage:
//
//	w, err := watcher.New("/data/system/packages.list", 2*time.Second, func() {
//		runSweep()
//	})
//	if err != nil {
//		return err
//	}
//	if err := w.Start(); err != nil {
//		return err
//	}
//	defer w.Stop()
package watcher
