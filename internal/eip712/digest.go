// Package eip712 computes EIP-712 structured-data digests: the domain
// separator, struct hashes and the final 0x19 0x01 prefixed signing hash.
// See https://eips.ethereum.org/EIPS/eip-712.
//
// Schemas are passed explicitly to every call; the package keeps no
// registry and no mutable state, so all functions are safe for concurrent use.
package eip712

import (
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// StructHash computes keccak256(typeHash ++ encodeData(message)).
// The message is fully validated before anything is hashed.
func StructHash(desc TypeDescriptor, msg Message) (ethcommon.Hash, error) {
	normalized, err := Normalize(desc, msg)
	if err != nil {
		return ethcommon.Hash{}, err
	}
	return ethcommon.BytesToHash(hashStruct(&desc, normalized)), nil
}

// SigningDigest computes keccak256(0x19 ++ 0x01 ++ DomainSeparator(domain) ++ StructHash(desc, msg)).
func SigningDigest(domain Domain, desc TypeDescriptor, msg Message) (ethcommon.Hash, error) {
	structHash, err := StructHash(desc, msg)
	if err != nil {
		return ethcommon.Hash{}, err
	}
	return TypedDataHash(DomainSeparator(domain), structHash), nil
}

// TypedDataHash joins a precomputed domain separator and struct hash.
func TypedDataHash(domainSeparator, structHash ethcommon.Hash) ethcommon.Hash {
	raw := make([]byte, 0, 2+2*ethcommon.HashLength)
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, domainSeparator.Bytes()...)
	raw = append(raw, structHash.Bytes()...)
	return crypto.Keccak256Hash(raw)
}

// Result carries the intermediate hashes alongside the digest.
type Result struct {
	DomainSeparator ethcommon.Hash
	TypeHash        ethcommon.Hash
	StructHash      ethcommon.Hash
	Digest          ethcommon.Hash
}

// Compute returns the digest together with its intermediate hashes.
func Compute(domain Domain, desc TypeDescriptor, msg Message) (Result, error) {
	normalized, err := Normalize(desc, msg)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		DomainSeparator: DomainSeparator(domain),
		TypeHash:        crypto.Keccak256Hash([]byte(encodeType(&desc))),
		StructHash:      ethcommon.BytesToHash(hashStruct(&desc, normalized)),
	}
	res.Digest = TypedDataHash(res.DomainSeparator, res.StructHash)
	return res, nil
}
