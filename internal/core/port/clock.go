package port

import "time"

// Clock supplies the current time. clockwork.Clock satisfies it.
type Clock interface {
	Now() time.Time
}
