package hash

import (
	"math/big"

	"notary/internal/eip712"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Typed is a message that knows its own schema.
type Typed interface {
	Type() eip712.TypeDescriptor
	Message() eip712.Message
}

// Digest computes the EIP712 signing digest of a typed message
func Digest(domain eip712.Domain, typed Typed) (ethcommon.Hash, error) {
	digest, err := eip712.SigningDigest(domain, typed.Type(), typed.Message())
	if err != nil {
		return ethcommon.Hash{}, errors.Wrapf(err, "failed to compute %s digest", typed.Type().Name)
	}
	return digest, nil
}

// MinerType mirrors the miner type enum of the miner contract.
type MinerType uint8

const (
	GameMiner MinerType = iota
	LiteMiner
	StandardMiner
	VirtualMiner
	APIMiner
)

type Permit struct {
	Owner    ethcommon.Address
	Spender  ethcommon.Address
	Value    *big.Int
	Nonce    *big.Int
	Deadline *big.Int
}

func (Permit) Type() eip712.TypeDescriptor { return PermitType() }

func (p Permit) Message() eip712.Message {
	return eip712.Message{
		"owner":    p.Owner,
		"spender":  p.Spender,
		"value":    p.Value,
		"nonce":    p.Nonce,
		"deadline": p.Deadline,
	}
}

type Reward struct {
	Receiver ethcommon.Address
	Value    *big.Int
	Nonce    *big.Int
}

func (Reward) Type() eip712.TypeDescriptor { return RewardType() }

func (r Reward) Message() eip712.Message {
	return eip712.Message{
		"receiver": r.Receiver,
		"value":    r.Value,
		"nonce":    r.Nonce,
	}
}

type MinerRegister struct {
	Owner       ethcommon.Address
	Miners      []ethcommon.Address
	Nonce       *big.Int
	FeeRegister *big.Int
	Deadline    *big.Int
}

func (MinerRegister) Type() eip712.TypeDescriptor { return MinerRegisterType() }

func (m MinerRegister) Message() eip712.Message {
	miners := m.Miners
	if miners == nil {
		miners = []ethcommon.Address{}
	}
	return eip712.Message{
		"owner":       m.Owner,
		"miners":      miners,
		"nonce":       m.Nonce,
		"feeRegister": m.FeeRegister,
		"deadline":    m.Deadline,
	}
}

type GameMinerOnboard struct {
	Owner       ethcommon.Address
	Miner       ethcommon.Address
	AirDrop     bool
	Nonce       *big.Int
	FeeRegister *big.Int
	Deadline    *big.Int
}

func (GameMinerOnboard) Type() eip712.TypeDescriptor { return GameMinerOnboardType() }

func (g GameMinerOnboard) Message() eip712.Message {
	return eip712.Message{
		"owner":       g.Owner,
		"miner":       g.Miner,
		"bAirDrop":    g.AirDrop,
		"nonce":       g.Nonce,
		"feeRegister": g.FeeRegister,
		"deadline":    g.Deadline,
	}
}

type RemoteMinerOnboard struct {
	Owner       ethcommon.Address
	GameMiner   ethcommon.Address
	Miner       ethcommon.Address
	MinerType   MinerType
	Nonce       *big.Int
	FeeRegister *big.Int
	Deadline    *big.Int
}

func (RemoteMinerOnboard) Type() eip712.TypeDescriptor { return RemoteMinerOnboardType() }

func (r RemoteMinerOnboard) Message() eip712.Message {
	return eip712.Message{
		"owner":       r.Owner,
		"gameMiner":   r.GameMiner,
		"miner":       r.Miner,
		"minerType":   uint8(r.MinerType),
		"nonce":       r.Nonce,
		"feeRegister": r.FeeRegister,
		"deadline":    r.Deadline,
	}
}
