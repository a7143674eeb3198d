package server

import "strings"

// maxUploadColumns caps the width of an ingested table. SQLite handles
// wide tables poorly and real spreadsheets stay far below this.
const maxUploadColumns = 2000

// maxUploadNameLen caps the client-supplied filename length.
const maxUploadNameLen = 255

// validUploadName reports whether a client-supplied filename is safe
// to accept. Hidden files, null bytes and shell or Windows metacharacters
// are rejected outright.
func validUploadName(name string) bool {
	if name == "" || len(name) > maxUploadNameLen {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsRune(name, 0) {
		return false
	}
	if strings.ContainsAny(name, `<>:"|?*`) {
		return false
	}
	return true
}

// sanitizeForLog strips control characters from a client-supplied
// string and truncates it, so log lines stay one line each.
func sanitizeForLog(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 32 || r == 127 {
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if len(out) > 200 {
		out = out[:200] + "..."
	}
	return out
}
