// Package signer signs EIP-712 digests and recovers signer addresses from
// 65-byte r||s||v signatures.
package signer

import (
	"crypto/ecdsa"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// SignatureLength is the length of an r||s||v signature.
const SignatureLength = crypto.SignatureLength

var ErrInvalidSignature = errors.New("invalid signature")

// Sign signs digest with key and returns r||s||v with v in {27, 28}, the
// form produced by wallets and expected by ecrecover.
func Sign(digest ethcommon.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign digest")
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// Recover returns the address that produced sig over digest. v may be
// given as 0/1 or 27/28.
func Recover(digest ethcommon.Hash, sig []byte) (ethcommon.Address, error) {
	if len(sig) != SignatureLength {
		return ethcommon.Address{}, errors.Wrapf(ErrInvalidSignature, "expected %d bytes, got %d", SignatureLength, len(sig))
	}

	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	v := normalized[crypto.RecoveryIDOffset]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return ethcommon.Address{}, errors.Wrapf(ErrInvalidSignature, "invalid recovery id %d", sig[crypto.RecoveryIDOffset])
	}
	normalized[crypto.RecoveryIDOffset] = v

	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return ethcommon.Address{}, errors.Wrap(ErrInvalidSignature, err.Error())
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify reports whether sig over digest was produced by expected.
func Verify(digest ethcommon.Hash, sig []byte, expected ethcommon.Address) (bool, error) {
	recovered, err := Recover(digest, sig)
	if err != nil {
		return false, err
	}
	return recovered == expected, nil
}
