//go:build !unix

package cobsindex

// adviseWillNeed is a no-op on platforms without madvise; touchAllPages
// still forces the eager page-in loadComplete promises.
func adviseWillNeed(data []byte) {}
