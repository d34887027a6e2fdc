//go:build unix

package cobsindex

import "golang.org/x/sys/unix"

// adviseWillNeed hints to the kernel that every page of data will be
// used soon, so the page cache starts readahead before the first query
// touches it. It is advisory only; loadComplete's hard guarantee comes
// from touchAllPages, not from this call.
func adviseWillNeed(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_WILLNEED)
}
