package cmd

import (
	"math/big"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"notary/internal/chain"
	"notary/internal/eip712"
	"notary/internal/hash"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	rewardProxy = ethcommon.HexToAddress("0x516aEEf988C3D90276422758347d11a8100C2460")
	receiver    = ethcommon.HexToAddress("0x8c3C6aD4e6d4B02e5E51a6aC9aB85F6f05D1C0e7")
	miner       = ethcommon.HexToAddress("0x2161DedC3Be05B7Bb5aa16154BcbD254E9e9eb68")
)

// contractNode answers the domain views of a single contract over HTTP.
type contractNode struct {
	abi    abi.ABI
	domain eip712.Domain
	nonce  *big.Int
}

func (n *contractNode) ChainId() *hexutil.Big {
	return (*hexutil.Big)(n.domain.ChainID.ToBig())
}

func (n *contractNode) Call(args map[string]interface{}, block string) (hexutil.Bytes, error) {
	input, _ := args["input"].(string)
	if input == "" {
		input, _ = args["data"].(string)
	}
	data, err := hexutil.Decode(input)
	if err != nil || len(data) < 4 {
		return nil, errors.New("bad call data")
	}
	method, err := n.abi.MethodById(data[:4])
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "DOMAIN_SEPARATOR":
		return method.Outputs.Pack([32]byte(eip712.DomainSeparator(n.domain)))
	case "nonces":
		return method.Outputs.Pack(n.nonce)
	case "eip712Domain":
		return method.Outputs.Pack(
			[1]byte{0x0f},
			n.domain.Name,
			n.domain.Version,
			n.domain.ChainID.ToBig(),
			n.domain.VerifyingContract,
			[32]byte{},
			[]*big.Int{},
		)
	}
	return nil, errors.Errorf("unexpected method %s", method.Name)
}

func newContractNode(t *testing.T, node *contractNode) string {
	t.Helper()
	parsed, err := chain.DomainABI()
	require.NoError(t, err)
	node.abi = parsed

	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", node))
	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		ts.Close()
		server.Stop()
	})
	return ts.URL
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	return file
}

func TestDomainCmdFillsFromContract(t *testing.T) {
	domain := eip712.NewDomain("Arkreen Reward", "2", 80002, rewardProxy)
	url := newContractNode(t, &contractNode{domain: domain, nonce: big.NewInt(0)})

	out, err := run(t, "domain", "--"+optionNameContract, rewardProxy.Hex(), "--"+optionNameRPC, url)
	require.NoError(t, err)
	assert.Equal(t, eip712.DomainSeparator(domain).Hex()+" (matches on-chain)\n", out)

	// explicit flags win over the contract view
	_, err = run(t, "domain", "--"+optionNameContract, rewardProxy.Hex(), "--"+optionNameRPC, url, "--"+optionNameVersion, "1")
	assert.ErrorIs(t, err, chain.ErrDomainMismatch)
}

func TestDigestSchemaCmd(t *testing.T) {
	domain := eip712.NewDomain("Arkreen Reward", "1", 137, rewardProxy)
	msg := writeFile(t, "reward.json", `{"receiver": "`+receiver.Hex()+`", "value": 1000000, "nonce": 3}`)

	out, err := run(t, "digest",
		"--"+optionNameSchema, "reward",
		"--"+optionNameMessage, msg,
		"--"+optionNameName, "Arkreen Reward",
		"--"+optionNameContract, rewardProxy.Hex(),
	)
	require.NoError(t, err)

	want, err := hash.Digest(domain, hash.Reward{Receiver: receiver, Value: big.NewInt(1_000_000), Nonce: big.NewInt(3)})
	require.NoError(t, err)
	assert.Contains(t, out, "digest          "+want.Hex()+"\n")
	assert.Contains(t, out, "contractDigest  "+want.Hex()+"\n")

	_, err = run(t, "digest", "--"+optionNameSchema, "transfer", "--"+optionNameMessage, msg, "--"+optionNameContract, rewardProxy.Hex())
	assert.Error(t, err)

	_, err = run(t, "digest", "--"+optionNameSchema, "reward")
	assert.Error(t, err)
}

func TestDigestSchemaCmdMinerRegister(t *testing.T) {
	domain := eip712.NewDomain("Arkreen Miner", "1", 137, rewardProxy)
	msg := writeFile(t, "register.json", `{
		"owner": "`+receiver.Hex()+`",
		"miners": ["`+miner.Hex()+`"],
		"nonce": "1",
		"feeRegister": "0",
		"deadline": "1700000000"
	}`)

	out, err := run(t, "digest",
		"--"+optionNameSchema, "miner-register",
		"--"+optionNameMessage, msg,
		"--"+optionNameName, "Arkreen Miner",
		"--"+optionNameContract, rewardProxy.Hex(),
	)
	require.NoError(t, err)

	register := hash.MinerRegister{
		Owner: receiver, Miners: []ethcommon.Address{miner},
		Nonce: big.NewInt(1), FeeRegister: big.NewInt(0), Deadline: big.NewInt(1_700_000_000),
	}
	standard, err := hash.Digest(domain, register)
	require.NoError(t, err)
	contract, err := hash.ContractDigest(domain, register)
	require.NoError(t, err)
	assert.Contains(t, out, "digest          "+standard.Hex()+"\n")
	assert.Contains(t, out, "contractDigest  "+contract.Hex()+"\n")
}

func TestDigestSchemaCmdNonceFromContract(t *testing.T) {
	domain := eip712.NewDomain("Arkreen Reward", "1", 80002, rewardProxy)
	url := newContractNode(t, &contractNode{domain: domain, nonce: big.NewInt(42)})
	msg := writeFile(t, "reward.json", `{"receiver": "`+receiver.Hex()+`", "value": "500"}`)

	out, err := run(t, "digest",
		"--"+optionNameSchema, "reward",
		"--"+optionNameMessage, msg,
		"--"+optionNameContract, rewardProxy.Hex(),
		"--"+optionNameRPC, url,
	)
	require.NoError(t, err)

	want, err := hash.Digest(domain, hash.Reward{Receiver: receiver, Value: big.NewInt(500), Nonce: big.NewInt(42)})
	require.NoError(t, err)
	assert.Contains(t, out, "digest          "+want.Hex()+"\n")
}
