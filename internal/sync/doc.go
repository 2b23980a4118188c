// Package sync mirrors a declared set of path pairs between a repository
// tree and a live system tree.
//
// # Directions
//
// A Descriptor holds the two base directories and an ordered list of
// entries. Download copies each entry from the repository side to the
// system side; Upload copies the other way. Both directions share one
// implementation, so the only difference is which side is the source:
//
//	syncer := sync.New(desc, mirror.New(nil), sync.Options{})
//	result, err := syncer.Download(ctx)
//	if err != nil {
//	    var syncErr *sync.SyncError
//	    if errors.As(err, &syncErr) {
//	        fmt.Printf("entry %d failed: %v\n", syncErr.Index+1, syncErr.Err)
//	    }
//	}
//	fmt.Print(result.Summary())
//
// Entries run strictly in order. The first failure stops the run; entries
// that already completed stay mirrored.
//
// # Drift
//
// Checker reports paths that exist on the destination side of a direction
// but not on its source side. These are files a sync in that direction
// would leave in place:
//
//	stale, err := sync.NewChecker(desc, nil).Check(sync.Download)
//
// Paths matching an entry's ignore patterns are never reported.
package sync
