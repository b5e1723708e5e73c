package manager

import (
	"encoding/json"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// HandleDigestEvent announces a freshly registered entry as
// "DIGEST <digest> <entry json>".
func (m *Manager) HandleDigestEvent(entry *DigestEntry) error {
	payload, err := json.Marshal(entry.Snapshot())
	if err != nil {
		return errors.Wrap(err, "failed to encode digest event")
	}

	frame := make([]byte, 0, len(DIGEST_EVENT)+len(payload)+68)
	frame = append(frame, DIGEST_EVENT+" "+entry.Digest.Hex()+" "...)
	frame = append(frame, payload...)
	m.publish(DIGEST_EVENT, entry.Digest, frame)
	return nil
}

// HandleSignedEvent announces an accepted signature as
// "SIGNED <digest> <signer>".
func (m *Manager) HandleSignedEvent(digest ethcommon.Hash, signer ethcommon.Address) {
	m.publish(SIGNED_EVENT, digest, []byte(SIGNED_EVENT+" "+digest.Hex()+" "+signer.Hex()))
}

func (m *Manager) publish(event string, digest ethcommon.Hash, frame []byte) {
	delivered := m.Broadcast(frame)
	m.logger.Debug("event published",
		zap.String("event", event),
		zap.String("digest", digest.Hex()),
		zap.Int("subscribers", delivered),
	)
}
