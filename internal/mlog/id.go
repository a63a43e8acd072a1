package mlog

import "strings"

// FormatID formats a message ID for logging.
//
// If the message ID appears to be a UUID, only the first 8 characters are
// shown. A prefixed ID such as "evt_<uuid>" keeps its prefix. Otherwise, the
// ID is displayed in-full.
func FormatID(id string) string {
	if len(id) == 36 && id[8] == '-' {
		return id[:8]
	}

	if i := strings.IndexByte(id, '_'); i != -1 {
		if u := id[i+1:]; len(u) == 36 && u[8] == '-' {
			return id[:i+9]
		}
	}

	return id
}
