package hash

import (
	"math/big"
	"reflect"

	"notary/internal/eip712"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const domainTypeName = "EIP712Domain"

// EIP712Domain defines the EIP712 domain type structure
var EIP712Domain = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

// ReferenceDigest computes the EIP712 hash for a given typed data with
// go-ethereum's signer implementation.
func ReferenceDigest(typedData apitypes.TypedData) (ethcommon.Hash, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return ethcommon.Hash{}, errors.Wrap(err, "failed to compute EIP712 hash")
	}
	return ethcommon.BytesToHash(hash), nil
}

// FromTypedData converts an eth_signTypedData_v4 payload. The domain type
// must declare exactly name, version, chainId and verifyingContract.
func FromTypedData(typedData apitypes.TypedData) (eip712.Domain, eip712.TypeDescriptor, eip712.Message, error) {
	domain, err := domainFromTypedData(typedData)
	if err != nil {
		return eip712.Domain{}, eip712.TypeDescriptor{}, nil, err
	}

	descs := make(map[string]*eip712.TypeDescriptor, len(typedData.Types))
	for name := range typedData.Types {
		if name == domainTypeName {
			continue
		}
		descs[name] = &eip712.TypeDescriptor{Name: name}
	}
	resolve := func(name string) (*eip712.TypeDescriptor, bool) {
		desc, ok := descs[name]
		return desc, ok
	}

	for name, desc := range descs {
		fields := typedData.Types[name]
		desc.Fields = make([]eip712.Field, len(fields))
		for i, field := range fields {
			typ, err := eip712.ParseType(field.Type, resolve)
			if err != nil {
				return eip712.Domain{}, eip712.TypeDescriptor{}, nil, errors.Wrapf(err, "type %s field %s", name, field.Name)
			}
			desc.Fields[i] = eip712.Field{Name: field.Name, Type: typ}
		}
	}

	primary, ok := descs[typedData.PrimaryType]
	if !ok {
		return eip712.Domain{}, eip712.TypeDescriptor{}, nil, errors.Wrapf(eip712.ErrUnsupportedType, "primary type %q is not declared", typedData.PrimaryType)
	}

	return domain, *primary, eip712.Message(typedData.Message), nil
}

func domainFromTypedData(typedData apitypes.TypedData) (eip712.Domain, error) {
	declared := typedData.Types[domainTypeName]
	if len(declared) != len(EIP712Domain) {
		return eip712.Domain{}, errors.Wrapf(eip712.ErrUnsupportedType, "domain must be %s", eip712.DomainTypeSignature)
	}
	for i, field := range declared {
		if field.Name != EIP712Domain[i].Name || field.Type != EIP712Domain[i].Type {
			return eip712.Domain{}, errors.Wrapf(eip712.ErrUnsupportedType, "domain must be %s", eip712.DomainTypeSignature)
		}
	}

	d := typedData.Domain
	if d.ChainId == nil {
		return eip712.Domain{}, errors.Wrap(eip712.ErrSchemaMismatch, "domain chainId is missing")
	}
	chainID, overflow := uint256.FromBig((*big.Int)(d.ChainId))
	if overflow || (*big.Int)(d.ChainId).Sign() < 0 {
		return eip712.Domain{}, errors.Wrapf(eip712.ErrSchemaMismatch, "domain chainId %s out of range", (*big.Int)(d.ChainId))
	}
	contract, err := hexutil.Decode(d.VerifyingContract)
	if err != nil || len(contract) != ethcommon.AddressLength {
		return eip712.Domain{}, errors.Wrapf(eip712.ErrSchemaMismatch, "domain verifyingContract %q is not an address", d.VerifyingContract)
	}

	return eip712.Domain{
		Name:              d.Name,
		Version:           d.Version,
		ChainID:           chainID,
		VerifyingContract: ethcommon.BytesToAddress(contract),
	}, nil
}

// ToTypedData renders a domain, schema and message as an
// eth_signTypedData_v4 payload, e.g. for wallets or ReferenceDigest.
func ToTypedData(domain eip712.Domain, desc eip712.TypeDescriptor, msg eip712.Message) (apitypes.TypedData, error) {
	normalized, err := eip712.Normalize(desc, msg)
	if err != nil {
		return apitypes.TypedData{}, err
	}

	deps, err := eip712.Dependencies(desc)
	if err != nil {
		return apitypes.TypedData{}, err
	}

	types := apitypes.Types{domainTypeName: EIP712Domain}
	for _, d := range append([]*eip712.TypeDescriptor{&desc}, deps...) {
		fields := make([]apitypes.Type, len(d.Fields))
		for i, f := range d.Fields {
			fields[i] = apitypes.Type{Name: f.Name, Type: f.Type.String()}
		}
		types[d.Name] = fields
	}

	chainID := new(big.Int)
	if domain.ChainID != nil {
		chainID = domain.ChainID.ToBig()
	}

	return apitypes.TypedData{
		Types:       types,
		PrimaryType: desc.Name,
		Domain: apitypes.TypedDataDomain{
			Name:              domain.Name,
			Version:           domain.Version,
			ChainId:           (*math.HexOrDecimal256)(chainID),
			VerifyingContract: domain.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage(toTypedValue(normalized).(map[string]interface{})),
	}, nil
}

// toTypedValue converts normalized values into the shapes apitypes expects.
func toTypedValue(v any) any {
	switch x := v.(type) {
	case eip712.Message:
		out := make(map[string]interface{}, len(x))
		for k, fv := range x {
			out[k] = toTypedValue(fv)
		}
		return out
	case []any:
		out := make([]interface{}, len(x))
		for i, ev := range x {
			out[i] = toTypedValue(ev)
		}
		return out
	case ethcommon.Address:
		return x.Hex()
	case []byte:
		return hexutil.Bytes(x)
	case *big.Int, bool, string:
		return x
	}
	panic("hash: unexpected normalized value " + reflect.TypeOf(v).String())
}
