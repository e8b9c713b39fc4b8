// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package filter

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// EntropyFunc produces one fresh instance identifier. Create/Update take it
// as a parameter (rather than reaching for time.Now/crypto/rand directly)
// so tests can supply a deterministic source.
type EntropyFunc func() (ulid.ULID, error)

// DefaultEntropy returns the production EntropyFunc: a monotonic ULID
// seeded from crypto/rand, matching the oklog/ulid README's recommended
// construction for generators that may be called in a tight loop.
func DefaultEntropy() EntropyFunc {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return func() (ulid.ULID, error) {
		return ulid.New(ulid.Timestamp(time.Now()), entropy)
	}
}
