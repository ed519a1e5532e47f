package ids

import "github.com/segmentio/ksuid"

// New returns a sortable unique identifier for users and sessions.
func New() string {
	return ksuid.New().String()
}
