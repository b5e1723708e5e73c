package manager

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"notary/internal/common"
	"notary/internal/eip712"
	"notary/internal/hash"
	"notary/internal/signer"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRewardEntry(t *testing.T, expected *ethcommon.Address) *DigestEntry {
	t.Helper()
	domain := eip712.NewDomain(common.RewardDomainName, common.DomainVersion, uint64(common.Polygon), ethcommon.HexToAddress("0x0a"))
	reward := hash.Reward{Receiver: ethcommon.HexToAddress("0x0b"), Value: big.NewInt(5), Nonce: big.NewInt(1)}
	digest, err := hash.Digest(domain, reward)
	require.NoError(t, err)

	return &DigestEntry{
		Digest:      digest,
		Domain:      domain,
		PrimaryType: "Reward",
		Message:     map[string]any{"receiver": "0x0b", "value": "5", "nonce": "1"},
		Signer:      expected,
	}
}

func TestSetAndVerify(t *testing.T) {
	m := NewManager(time.Minute, zap.NewNop())
	defer m.Close()

	events := make(chan []byte, 4)
	m.RegisterReceiver(events)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := crypto.PubkeyToAddress(key.PublicKey)

	entry := newRewardEntry(t, &owner)
	require.NoError(t, m.SetDigest(entry))

	registered := string(<-events)
	assert.True(t, strings.HasPrefix(registered, DIGEST_EVENT+" "+entry.Digest.Hex()+" {"))

	got, err := m.GetDigest(entry.Digest)
	require.NoError(t, err)
	assert.Equal(t, common.DigestPending, got.Snapshot().Status)
	assert.Equal(t, "137", got.Snapshot().Domain.ChainID)

	sig, err := signer.Sign(entry.Digest, key)
	require.NoError(t, err)

	res, err := m.Verify(entry.Digest, sig)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, owner, res.Signer)
	assert.Equal(t, common.DigestSigned, res.Entry.Snapshot().Status)
	assert.Equal(t, SIGNED_EVENT+" "+entry.Digest.Hex()+" "+owner.Hex(), string(<-events))
}

func TestVerifyUnexpectedSigner(t *testing.T) {
	m := NewManager(time.Minute, zap.NewNop())
	defer m.Close()

	expected := ethcommon.HexToAddress("0x0c")
	entry := newRewardEntry(t, &expected)
	require.NoError(t, m.SetDigest(entry))

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := signer.Sign(entry.Digest, key)
	require.NoError(t, err)

	res, err := m.Verify(entry.Digest, sig)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, common.DigestPending, res.Entry.Snapshot().Status)
}

func TestVerifyUnregistered(t *testing.T) {
	m := NewManager(0, zap.NewNop())
	defer m.Close()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	digest := crypto.Keccak256Hash([]byte("free-standing"))
	sig, err := signer.Sign(digest, key)
	require.NoError(t, err)

	res, err := m.Verify(digest, sig)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Nil(t, res.Entry)

	_, err = m.GetDigest(digest)
	assert.ErrorIs(t, err, ErrDigestNotFound)
}

func TestDigestExpires(t *testing.T) {
	m := NewManager(50*time.Millisecond, zap.NewNop())
	defer m.Close()

	entry := newRewardEntry(t, nil)
	require.NoError(t, m.SetDigest(entry))

	assert.Eventually(t, func() bool {
		_, err := m.GetDigest(entry.Digest)
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)
}
