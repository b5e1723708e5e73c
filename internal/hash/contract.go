package hash

import (
	"math/big"

	"notary/internal/eip712"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// MinerTypeHash is the type hash the miner contract checks every
// registration and onboarding signature against, whatever the message.
var MinerTypeHash = crypto.Keccak256Hash([]byte("MinerRegister(address owner,address[] miners,uint256 nonce,uint256 feeRegister,uint256 deadline)"))

// ContractEncoded is a message whose on-chain struct hash departs from
// EIP-712: the miner contract abi.encodes its fields as-is and hashes once.
type ContractEncoded interface {
	Typed
	ContractStructHash() (ethcommon.Hash, error)
}

var (
	minerRegisterArgs      = mustArguments("bytes32", "address", "address[]", "uint256", "uint256", "uint256")
	gameMinerOnboardArgs   = mustArguments("bytes32", "address", "address", "bool", "uint256", "uint256", "uint256")
	remoteMinerOnboardArgs = mustArguments("bytes32", "address", "address", "address", "uint8", "uint256", "uint256", "uint256")
)

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, len(types))
	for i, typ := range types {
		ty, err := abi.NewType(typ, "", nil)
		if err != nil {
			panic(err)
		}
		args[i] = abi.Argument{Type: ty}
	}
	return args
}

// ContractDigest computes the digest the deployed contract recovers the
// signer from. It equals Digest for messages that follow EIP-712.
func ContractDigest(domain eip712.Domain, typed Typed) (ethcommon.Hash, error) {
	encoded, ok := typed.(ContractEncoded)
	if !ok {
		return Digest(domain, typed)
	}
	structHash, err := encoded.ContractStructHash()
	if err != nil {
		return ethcommon.Hash{}, errors.Wrapf(err, "failed to compute %s contract digest", typed.Type().Name)
	}
	return eip712.TypedDataHash(eip712.DomainSeparator(domain), structHash), nil
}

// contractStructHash checks msg against its schema, then hashes the
// abi encoding of MinerTypeHash followed by values.
func contractStructHash(typed Typed, args abi.Arguments, values ...any) (ethcommon.Hash, error) {
	if _, err := eip712.Normalize(typed.Type(), typed.Message()); err != nil {
		return ethcommon.Hash{}, err
	}
	packed, err := args.Pack(append([]any{[32]byte(MinerTypeHash)}, values...)...)
	if err != nil {
		return ethcommon.Hash{}, errors.Wrap(err, "abi encode")
	}
	return crypto.Keccak256Hash(packed), nil
}

func (m MinerRegister) ContractStructHash() (ethcommon.Hash, error) {
	miners := m.Miners
	if miners == nil {
		miners = []ethcommon.Address{}
	}
	return contractStructHash(m, minerRegisterArgs, m.Owner, miners, m.Nonce, m.FeeRegister, m.Deadline)
}

func (g GameMinerOnboard) ContractStructHash() (ethcommon.Hash, error) {
	return contractStructHash(g, gameMinerOnboardArgs, g.Owner, g.Miner, g.AirDrop, g.Nonce, g.FeeRegister, g.Deadline)
}

func (r RemoteMinerOnboard) ContractStructHash() (ethcommon.Hash, error) {
	return contractStructHash(r, remoteMinerOnboardArgs, r.Owner, r.GameMiner, r.Miner, uint8(r.MinerType), r.Nonce, r.FeeRegister, r.Deadline)
}

// Schemas lists the builders FromMessage accepts, by CLI name.
var Schemas = []string{"permit", "reward", "miner-register", "game-miner-onboard", "remote-miner-onboard"}

// FromMessage builds the typed message named by schema from a loosely typed
// message, as decoded from JSON.
func FromMessage(schema string, msg eip712.Message) (Typed, error) {
	var desc eip712.TypeDescriptor
	switch schema {
	case "permit":
		desc = PermitType()
	case "reward":
		desc = RewardType()
	case "miner-register":
		desc = MinerRegisterType()
	case "game-miner-onboard":
		desc = GameMinerOnboardType()
	case "remote-miner-onboard":
		desc = RemoteMinerOnboardType()
	default:
		return nil, errors.Errorf("unknown schema %q", schema)
	}

	n, err := eip712.Normalize(desc, msg)
	if err != nil {
		return nil, err
	}
	addr := func(k string) ethcommon.Address { return n[k].(ethcommon.Address) }
	num := func(k string) *big.Int { return n[k].(*big.Int) }

	switch schema {
	case "permit":
		return Permit{Owner: addr("owner"), Spender: addr("spender"), Value: num("value"), Nonce: num("nonce"), Deadline: num("deadline")}, nil
	case "reward":
		return Reward{Receiver: addr("receiver"), Value: num("value"), Nonce: num("nonce")}, nil
	case "miner-register":
		items := n["miners"].([]any)
		miners := make([]ethcommon.Address, len(items))
		for i, m := range items {
			miners[i] = m.(ethcommon.Address)
		}
		return MinerRegister{Owner: addr("owner"), Miners: miners, Nonce: num("nonce"), FeeRegister: num("feeRegister"), Deadline: num("deadline")}, nil
	case "game-miner-onboard":
		return GameMinerOnboard{
			Owner: addr("owner"), Miner: addr("miner"), AirDrop: n["bAirDrop"].(bool),
			Nonce: num("nonce"), FeeRegister: num("feeRegister"), Deadline: num("deadline"),
		}, nil
	default:
		return RemoteMinerOnboard{
			Owner: addr("owner"), GameMiner: addr("gameMiner"), Miner: addr("miner"), MinerType: MinerType(num("minerType").Uint64()),
			Nonce: num("nonce"), FeeRegister: num("feeRegister"), Deadline: num("deadline"),
		}, nil
	}
}

// NonceOwner names the field whose account the nonce of schema belongs to.
func NonceOwner(schema string) string {
	if schema == "reward" {
		return "receiver"
	}
	return "owner"
}
