// Package ids generates idempotency tokens for purchase requests.
package ids

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewRequestID returns a fresh idempotency token: a ULID, which encodes
// millisecond timestamp plus random suffix and sorts lexically by creation
// time. Lowercased so the token survives providers that case-fold ids.
func NewRequestID() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
	return strings.ToLower(id.String())
}
