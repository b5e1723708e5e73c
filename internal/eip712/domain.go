package eip712

import (
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// DomainTypeSignature is the encodeType of the EIP712Domain struct used by
// the notary and reward contracts.
const DomainTypeSignature = "EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"

// DomainTypeHash is keccak256(DomainTypeSignature).
var DomainTypeHash = crypto.Keccak256Hash([]byte(DomainTypeSignature))

// Domain scopes a signature to one contract deployment.
type Domain struct {
	Name              string
	Version           string
	ChainID           *uint256.Int
	VerifyingContract ethcommon.Address
}

// NewDomain builds a domain from a plain chain id.
func NewDomain(name, version string, chainID uint64, verifyingContract ethcommon.Address) Domain {
	return Domain{
		Name:              name,
		Version:           version,
		ChainID:           uint256.NewInt(chainID),
		VerifyingContract: verifyingContract,
	}
}

// DomainType returns the EIP712Domain schema as a descriptor.
func DomainType() TypeDescriptor {
	return TypeDescriptor{
		Name: "EIP712Domain",
		Fields: []Field{
			{Name: "name", Type: String()},
			{Name: "version", Type: String()},
			{Name: "chainId", Type: Uint(256)},
			{Name: "verifyingContract", Type: Address()},
		},
	}
}

// DomainSeparator computes
// keccak256(abi.encode(DomainTypeHash, keccak256(name), keccak256(version), chainId, verifyingContract)).
// A nil ChainID encodes as zero.
func DomainSeparator(domain Domain) ethcommon.Hash {
	chainID := domain.ChainID
	if chainID == nil {
		chainID = new(uint256.Int)
	}

	buf := make([]byte, 0, 5*32)
	buf = append(buf, DomainTypeHash.Bytes()...)
	buf = append(buf, crypto.Keccak256([]byte(domain.Name))...)
	buf = append(buf, crypto.Keccak256([]byte(domain.Version))...)
	slot := chainID.Bytes32()
	buf = append(buf, slot[:]...)
	buf = append(buf, ethcommon.LeftPadBytes(domain.VerifyingContract.Bytes(), 32)...)

	return crypto.Keccak256Hash(buf)
}
