package hash

import (
	"math/big"
	"testing"

	"notary/internal/eip712"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	minerContract = ethcommon.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	minerDomain   = eip712.NewDomain("Arkreen Miner", "1", 31337, minerContract)
)

// helperDigest hashes the struct the way the contract test helpers do:
// keccak256(abi.encode(types, values)) under the miner domain.
func helperDigest(t *testing.T, types []string, values ...any) ethcommon.Hash {
	t.Helper()
	structHash := crypto.Keccak256Hash(abiEncode(t, types, values...))
	return eip712.TypedDataHash(eip712.DomainSeparator(minerDomain), structHash)
}

func TestMinerTypeHash(t *testing.T) {
	typeHash, err := eip712.TypeHash(MinerRegisterType())
	require.NoError(t, err)
	assert.Equal(t, MinerTypeHash, typeHash)
}

func TestMinerRegisterContractDigest(t *testing.T) {
	deadline := big.NewInt(1_700_000_000)
	register := MinerRegister{
		Owner:  receiver,
		Miners: []ethcommon.Address{validator, rewardContract},
		Nonce:  big.NewInt(1), FeeRegister: big.NewInt(2000), Deadline: deadline,
	}

	digest, err := ContractDigest(minerDomain, register)
	require.NoError(t, err)
	assert.Equal(t, helperDigest(t,
		[]string{"bytes32", "address", "address[]", "uint256", "uint256", "uint256"},
		MinerTypeHash, receiver, []ethcommon.Address{validator, rewardContract}, big.NewInt(1), big.NewInt(2000), deadline,
	), digest)

	// the standard encoding hashes the array before packing it
	standard, err := Digest(minerDomain, register)
	require.NoError(t, err)
	assert.NotEqual(t, standard, digest)

	empty, err := ContractDigest(minerDomain, MinerRegister{Owner: receiver, Nonce: big.NewInt(0), FeeRegister: big.NewInt(0), Deadline: deadline})
	require.NoError(t, err)
	assert.Equal(t, helperDigest(t,
		[]string{"bytes32", "address", "address[]", "uint256", "uint256", "uint256"},
		MinerTypeHash, receiver, []ethcommon.Address{}, big.NewInt(0), big.NewInt(0), deadline,
	), empty)
}

func TestOnboardContractDigests(t *testing.T) {
	deadline := big.NewInt(1_700_000_000)

	game := GameMinerOnboard{
		Owner: receiver, Miner: validator, AirDrop: true,
		Nonce: big.NewInt(4), FeeRegister: big.NewInt(0), Deadline: deadline,
	}
	digest, err := ContractDigest(minerDomain, game)
	require.NoError(t, err)
	assert.Equal(t, helperDigest(t,
		[]string{"bytes32", "address", "address", "bool", "uint256", "uint256", "uint256"},
		MinerTypeHash, receiver, validator, true, big.NewInt(4), big.NewInt(0), deadline,
	), digest)

	remote := RemoteMinerOnboard{
		Owner: receiver, GameMiner: validator, Miner: rewardContract, MinerType: StandardMiner,
		Nonce: big.NewInt(5), FeeRegister: big.NewInt(10), Deadline: deadline,
	}
	digest, err = ContractDigest(minerDomain, remote)
	require.NoError(t, err)
	assert.Equal(t, helperDigest(t,
		[]string{"bytes32", "address", "address", "address", "uint8", "uint256", "uint256", "uint256"},
		MinerTypeHash, receiver, validator, rewardContract, uint8(StandardMiner), big.NewInt(5), big.NewInt(10), deadline,
	), digest)
}

func TestContractDigestStandardMessages(t *testing.T) {
	cases := map[string]Typed{
		"permit": Permit{Owner: receiver, Spender: validator, Value: big.NewInt(10), Nonce: big.NewInt(0), Deadline: big.NewInt(99)},
		"reward": Reward{Receiver: receiver, Value: big.NewInt(1_000_000), Nonce: big.NewInt(3)},
	}
	for name, typed := range cases {
		t.Run(name, func(t *testing.T) {
			contract, err := ContractDigest(domain, typed)
			require.NoError(t, err)
			standard, err := Digest(domain, typed)
			require.NoError(t, err)
			assert.Equal(t, standard, contract)
		})
	}
}

func TestContractDigestMissingValue(t *testing.T) {
	_, err := ContractDigest(minerDomain, GameMinerOnboard{Owner: receiver, Miner: validator})
	require.ErrorIs(t, err, eip712.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "GameMinerOnboard")
}

func TestFromMessage(t *testing.T) {
	typed, err := FromMessage("remote-miner-onboard", eip712.Message{
		"owner":       receiver.Hex(),
		"gameMiner":   validator.Hex(),
		"miner":       rewardContract.Hex(),
		"minerType":   "2",
		"nonce":       "5",
		"feeRegister": "10",
		"deadline":    "1700000000",
	})
	require.NoError(t, err)
	assert.Equal(t, RemoteMinerOnboard{
		Owner: receiver, GameMiner: validator, Miner: rewardContract, MinerType: StandardMiner,
		Nonce: big.NewInt(5), FeeRegister: big.NewInt(10), Deadline: big.NewInt(1_700_000_000),
	}, typed)

	typed, err = FromMessage("miner-register", eip712.Message{
		"owner":       receiver.Hex(),
		"miners":      []any{validator.Hex()},
		"nonce":       "1",
		"feeRegister": "0",
		"deadline":    "2",
	})
	require.NoError(t, err)
	assert.Equal(t, []ethcommon.Address{validator}, typed.(MinerRegister).Miners)

	_, err = FromMessage("reward", eip712.Message{"receiver": receiver.Hex(), "value": "1"})
	assert.ErrorIs(t, err, eip712.ErrSchemaMismatch)

	_, err = FromMessage("transfer", eip712.Message{})
	assert.Error(t, err)

	assert.Equal(t, "receiver", NonceOwner("reward"))
	assert.Equal(t, "owner", NonceOwner("permit"))
}
