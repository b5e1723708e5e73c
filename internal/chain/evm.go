package chain

import (
	"context"
	"math/big"
	"strings"

	"notary/internal/eip712"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrDomainMismatch is returned when the contract's separator differs from
// the one computed locally.
var ErrDomainMismatch = errors.New("domain separator mismatch")

// ABI JSON for the EIP-712 views exposed by the notary and reward contracts
const domainABI = `[
	{
		"inputs": [],
		"name": "DOMAIN_SEPARATOR",
		"outputs": [{"internalType": "bytes32", "name": "", "type": "bytes32"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "owner", "type": "address"}],
		"name": "nonces",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "eip712Domain",
		"outputs": [
			{"internalType": "bytes1", "name": "fields", "type": "bytes1"},
			{"internalType": "string", "name": "name", "type": "string"},
			{"internalType": "string", "name": "version", "type": "string"},
			{"internalType": "uint256", "name": "chainId", "type": "uint256"},
			{"internalType": "address", "name": "verifyingContract", "type": "address"},
			{"internalType": "bytes32", "name": "salt", "type": "bytes32"},
			{"internalType": "uint256[]", "name": "extensions", "type": "uint256[]"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// DomainABI returns the parsed ABI of the EIP-712 views.
func DomainABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(domainABI))
}

func boundContract(client *ethclient.Client, contract common.Address) (*bind.BoundContract, error) {
	parsed, err := DomainABI()
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(contract, parsed, client, client, client), nil
}

// FetchChainID returns the chain id reported by the node.
func FetchChainID(ctx context.Context, client *ethclient.Client) (*uint256.Int, error) {
	id, err := client.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch chain id")
	}
	chainID, overflow := uint256.FromBig(id)
	if overflow {
		return nil, errors.Errorf("chain id %s overflows uint256", id)
	}
	return chainID, nil
}

// FetchDomainSeparator calls DOMAIN_SEPARATOR() on contract.
func FetchDomainSeparator(ctx context.Context, client *ethclient.Client, contract common.Address) (common.Hash, error) {
	c, err := boundContract(client, contract)
	if err != nil {
		return common.Hash{}, err
	}

	var out []any
	if err := c.Call(&bind.CallOpts{Context: ctx}, &out, "DOMAIN_SEPARATOR"); err != nil {
		return common.Hash{}, errors.Wrapf(err, "DOMAIN_SEPARATOR() on %s", contract.Hex())
	}

	separator, ok := out[0].([32]byte)
	if !ok {
		return common.Hash{}, errors.New("failed to unpack domain separator")
	}
	return common.Hash(separator), nil
}

// FetchNonce calls nonces(owner) on contract.
func FetchNonce(ctx context.Context, client *ethclient.Client, contract, owner common.Address) (*big.Int, error) {
	c, err := boundContract(client, contract)
	if err != nil {
		return nil, err
	}

	var out []any
	if err := c.Call(&bind.CallOpts{Context: ctx}, &out, "nonces", owner); err != nil {
		return nil, errors.Wrapf(err, "nonces(%s) on %s", owner.Hex(), contract.Hex())
	}

	nonce, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("failed to unpack nonce")
	}
	return nonce, nil
}

// FetchDomain reads the EIP-5267 eip712Domain() view of contract.
func FetchDomain(ctx context.Context, client *ethclient.Client, contract common.Address) (eip712.Domain, error) {
	c, err := boundContract(client, contract)
	if err != nil {
		return eip712.Domain{}, err
	}

	var out []any
	if err := c.Call(&bind.CallOpts{Context: ctx}, &out, "eip712Domain"); err != nil {
		return eip712.Domain{}, errors.Wrapf(err, "eip712Domain() on %s", contract.Hex())
	}
	if len(out) != 7 {
		return eip712.Domain{}, errors.Errorf("eip712Domain() returned %d values", len(out))
	}

	name, ok1 := out[1].(string)
	version, ok2 := out[2].(string)
	chainID, ok3 := out[3].(*big.Int)
	verifying, ok4 := out[4].(common.Address)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return eip712.Domain{}, errors.New("failed to unpack eip712Domain")
	}

	return eip712.Domain{
		Name:              name,
		Version:           version,
		ChainID:           uint256.MustFromBig(chainID),
		VerifyingContract: verifying,
	}, nil
}

// CheckDomain compares the locally computed separator of domain with the
// one stored by domain.VerifyingContract.
func CheckDomain(ctx context.Context, client *ethclient.Client, domain eip712.Domain, logger *zap.Logger) (common.Hash, error) {
	local := eip712.DomainSeparator(domain)
	remote, err := FetchDomainSeparator(ctx, client, domain.VerifyingContract)
	if err != nil {
		return local, err
	}

	logger.Debug("domain separator",
		zap.String("contract", domain.VerifyingContract.Hex()),
		zap.String("local", local.Hex()),
		zap.String("onchain", remote.Hex()),
	)

	if local != remote {
		return local, errors.Wrapf(ErrDomainMismatch, "local %s, on-chain %s", local.Hex(), remote.Hex())
	}
	return local, nil
}
