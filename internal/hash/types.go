package hash

import (
	"notary/internal/eip712"
)

// Standard EIP-712 schemas of the Arkreen messages. The miner contract
// hashes its three miner messages differently, see ContractDigest. Each
// call returns a fresh descriptor.

// PermitType is the ERC-2612 permit.
func PermitType() eip712.TypeDescriptor {
	return eip712.TypeDescriptor{
		Name: "Permit",
		Fields: []eip712.Field{
			{Name: "owner", Type: eip712.Address()},
			{Name: "spender", Type: eip712.Address()},
			{Name: "value", Type: eip712.Uint(256)},
			{Name: "nonce", Type: eip712.Uint(256)},
			{Name: "deadline", Type: eip712.Uint(256)},
		},
	}
}

// RewardType authorises a reward withdrawal from the reward proxy.
func RewardType() eip712.TypeDescriptor {
	return eip712.TypeDescriptor{
		Name: "Reward",
		Fields: []eip712.Field{
			{Name: "receiver", Type: eip712.Address()},
			{Name: "value", Type: eip712.Uint(256)},
			{Name: "nonce", Type: eip712.Uint(256)},
		},
	}
}

// MinerRegisterType registers a batch of miners to one owner.
func MinerRegisterType() eip712.TypeDescriptor {
	return eip712.TypeDescriptor{
		Name: "MinerRegister",
		Fields: []eip712.Field{
			{Name: "owner", Type: eip712.Address()},
			{Name: "miners", Type: eip712.ArrayOf(eip712.Address())},
			{Name: "nonce", Type: eip712.Uint(256)},
			{Name: "feeRegister", Type: eip712.Uint(256)},
			{Name: "deadline", Type: eip712.Uint(256)},
		},
	}
}

func GameMinerOnboardType() eip712.TypeDescriptor {
	return eip712.TypeDescriptor{
		Name: "GameMinerOnboard",
		Fields: []eip712.Field{
			{Name: "owner", Type: eip712.Address()},
			{Name: "miner", Type: eip712.Address()},
			{Name: "bAirDrop", Type: eip712.Bool()},
			{Name: "nonce", Type: eip712.Uint(256)},
			{Name: "feeRegister", Type: eip712.Uint(256)},
			{Name: "deadline", Type: eip712.Uint(256)},
		},
	}
}

func RemoteMinerOnboardType() eip712.TypeDescriptor {
	return eip712.TypeDescriptor{
		Name: "RemoteMinerOnboard",
		Fields: []eip712.Field{
			{Name: "owner", Type: eip712.Address()},
			{Name: "gameMiner", Type: eip712.Address()},
			{Name: "miner", Type: eip712.Address()},
			{Name: "minerType", Type: eip712.Uint(8)},
			{Name: "nonce", Type: eip712.Uint(256)},
			{Name: "feeRegister", Type: eip712.Uint(256)},
			{Name: "deadline", Type: eip712.Uint(256)},
		},
	}
}
