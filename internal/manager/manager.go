package manager

import (
	"time"

	"notary/internal/common"
	"notary/internal/signer"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/imkira/go-ttlmap"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrDigestNotFound = errors.New("digest not found")

type Manager struct {
	*common.Broadcaster

	digests *ttlmap.Map
	ttl     time.Duration
	logger  *zap.Logger
}

func NewManager(ttl time.Duration, logger *zap.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultDigestTTL
	}

	options := &ttlmap.Options{
		InitialCapacity: 32,
		OnWillExpire: func(key string, item ttlmap.Item) {
			logger.Debug("digest expired", zap.String("digest", key))
		},
		OnWillEvict: func(key string, item ttlmap.Item) {
			logger.Debug("digest evicted", zap.String("digest", key))
		},
	}

	return &Manager{
		Broadcaster: common.NewBroadcaster(),
		digests:     ttlmap.New(options),
		ttl:         ttl,
		logger:      logger,
	}
}

// SetDigest registers entry as pending and announces it to subscribers.
func (m *Manager) SetDigest(entry *DigestEntry) error {
	now := time.Now()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.Status = common.DigestPending
	entry.CreatedAt = now
	entry.ExpiresAt = now.Add(m.ttl)

	if err := m.digests.Set(entry.Digest.Hex(), ttlmap.NewItem(entry, ttlmap.WithTTL(m.ttl)), nil); err != nil {
		return errors.Wrapf(err, "failed to store digest %s", entry.Digest.Hex())
	}

	m.logger.Info("digest registered",
		zap.String("id", entry.ID.String()),
		zap.String("digest", entry.Digest.Hex()),
		zap.String("primaryType", entry.PrimaryType),
	)
	return m.HandleDigestEvent(entry)
}

func (m *Manager) GetDigest(digest ethcommon.Hash) (*DigestEntry, error) {
	item, err := m.digests.Get(digest.Hex())
	if err != nil {
		return nil, errors.Wrap(ErrDigestNotFound, digest.Hex())
	}

	entry, ok := item.Value().(*DigestEntry)
	if !ok || entry == nil {
		return nil, errors.Errorf("invalid entry type for digest: %s", digest.Hex())
	}

	return entry, nil
}

// Verify recovers the signer of sig over digest. When the digest is
// registered, a signature from the expected signer (or from anyone if no
// signer was given) marks it signed and is broadcast.
func (m *Manager) Verify(digest ethcommon.Hash, sig []byte) (VerifyResult, error) {
	recovered, err := signer.Recover(digest, sig)
	if err != nil {
		return VerifyResult{}, err
	}

	entry, err := m.GetDigest(digest)
	if err != nil {
		if errors.Is(err, ErrDigestNotFound) {
			return VerifyResult{Signer: recovered, Valid: true}, nil
		}
		return VerifyResult{}, err
	}

	entry.mu.Lock()
	valid := entry.Signer == nil || *entry.Signer == recovered
	if valid {
		entry.Status = common.DigestSigned
		entry.Signature = append([]byte{}, sig...)
	}
	entry.mu.Unlock()

	if !valid {
		m.logger.Warn("signature from unexpected signer",
			zap.String("digest", digest.Hex()),
			zap.String("expected", entry.Signer.Hex()),
			zap.String("recovered", recovered.Hex()),
		)
		return VerifyResult{Signer: recovered, Valid: false, Entry: entry}, nil
	}

	m.HandleSignedEvent(digest, recovered)
	return VerifyResult{Signer: recovered, Valid: true, Entry: entry}, nil
}

// Snapshot returns a consistent copy of the entry for API responses.
func (e *DigestEntry) Snapshot() common.DigestStatusResponse {
	e.mu.Lock()
	defer e.mu.Unlock()

	resp := common.DigestStatusResponse{
		ID:          e.ID,
		Digest:      e.Digest.Hex(),
		PrimaryType: e.PrimaryType,
		Domain:      domainParams(e),
		Message:     e.Message,
		Status:      e.Status,
		CreatedAt:   e.CreatedAt,
	}
	if e.Signer != nil {
		resp.Signer = e.Signer.Hex()
	}
	if len(e.Signature) > 0 {
		resp.Signature = hexutil.Encode(e.Signature)
	}
	return resp
}

func domainParams(e *DigestEntry) common.DomainParams {
	params := common.DomainParams{
		Name:              e.Domain.Name,
		Version:           e.Domain.Version,
		ChainID:           "0",
		VerifyingContract: e.Domain.VerifyingContract.Hex(),
	}
	if e.Domain.ChainID != nil {
		params.ChainID = e.Domain.ChainID.Dec()
	}
	return params
}

func (m *Manager) Close() {
	m.digests.Drain()
	m.Broadcaster.Close()
}
