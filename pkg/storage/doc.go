// Package storage writes downloaded resources into the date-partitioned
// mirror tree.
//
// Layout:
//
//	<base>/<YYYY-MM-DD | unknown-date>/<file>
//
// The date directory comes from DateBucket and the file name from
// FilenameFor. A file that already exists is never downloaded again, so
// storing the same locator twice is harmless. Writes go to "<file>.tmp" first
// and are renamed into place once the body has been fully read.
//
// Usage:
//
//	manager, err := storage.NewManager("downloaded_blog.example.com", client, log)
//	if err != nil {
//	    return err
//	}
//	res, err := manager.Store(ctx, "https://blog.example.com/wp-content/uploads/a.jpg", "2024-01-15T10:12:30")
//	// res.Path == "downloaded_blog.example.com/2024-01-15/a.jpg"
package storage
