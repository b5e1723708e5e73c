package manager

import (
	"sync"
	"time"

	"notary/internal/common"
	"notary/internal/eip712"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

type DigestEntry struct {
	ID          uuid.UUID
	Digest      ethcommon.Hash
	Domain      eip712.Domain
	PrimaryType string
	Message     map[string]any
	// Signer is the expected signer, nil when any signer is accepted.
	Signer    *ethcommon.Address
	Status    common.DigestStatus
	Signature []byte
	CreatedAt time.Time
	ExpiresAt time.Time

	mu sync.Mutex
}

// VerifyResult is the outcome of checking a signature against a digest.
type VerifyResult struct {
	Signer ethcommon.Address
	Valid  bool
	// Entry is the registered entry for the digest, nil if none.
	Entry *DigestEntry
}
