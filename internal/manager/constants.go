package manager

import (
	"time"
)

// DefaultDigestTTL is how long a registered digest waits for its signature
const DefaultDigestTTL = time.Minute * 15

const (
	// Manager -> subscribers

	// Digest registered: DIGEST <DIGEST_HEX> <ENTRY_JSON>
	DIGEST_EVENT = "DIGEST"
	// Valid signature received: SIGNED <DIGEST_HEX> <SIGNER_ADDRESS>
	SIGNED_EVENT = "SIGNED"
)
