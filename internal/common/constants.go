package common

import "math/big"

// ChainID represents supported network chain IDs as an enum type
type ChainID uint64

const (
	EthereumMainnet ChainID = 1
	Polygon         ChainID = 137
	PolygonMumbai   ChainID = 80001
	PolygonAmoy     ChainID = 80002
	Celo            ChainID = 42220
	Hardhat         ChainID = 31337
)

var chainNames = map[ChainID]string{
	EthereumMainnet: "mainnet",
	Polygon:         "polygon",
	PolygonMumbai:   "mumbai",
	PolygonAmoy:     "amoy",
	Celo:            "celo",
	Hardhat:         "hardhat",
}

func (c ChainID) String() string {
	if name, ok := chainNames[c]; ok {
		return name
	}
	return new(big.Int).SetUint64(uint64(c)).String()
}

// Known reports whether the chain is one the notary contracts are deployed on.
func (c ChainID) Known() bool {
	_, ok := chainNames[c]
	return ok
}

// Domain names used by the Arkreen contracts.
const (
	NotaryDomainName = "Arkreen Notary"
	RewardDomainName = "Arkreen Reward"
	DomainVersion    = "1"
)
