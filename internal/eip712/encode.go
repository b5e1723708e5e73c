package eip712

import (
	"encoding/json"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// EncodeType returns the canonical type signature of desc followed by the
// signatures of every struct it references, sorted by name.
func EncodeType(desc TypeDescriptor) (string, error) {
	if err := validateDescriptor(&desc, map[string]*TypeDescriptor{}); err != nil {
		return "", err
	}
	return encodeType(&desc), nil
}

// TypeHash returns keccak256(EncodeType(desc)).
func TypeHash(desc TypeDescriptor) (ethcommon.Hash, error) {
	sig, err := EncodeType(desc)
	if err != nil {
		return ethcommon.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte(sig)), nil
}

// Dependencies returns the struct types referenced by desc, directly or
// transitively, sorted by name. desc itself is not included.
func Dependencies(desc TypeDescriptor) ([]*TypeDescriptor, error) {
	if err := validateDescriptor(&desc, map[string]*TypeDescriptor{}); err != nil {
		return nil, err
	}
	return dependencies(&desc), nil
}

func dependencies(desc *TypeDescriptor) []*TypeDescriptor {
	deps := map[string]*TypeDescriptor{}
	for _, f := range desc.Fields {
		collectDeps(f.Type, deps)
	}
	delete(deps, desc.Name)

	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*TypeDescriptor, len(names))
	for i, name := range names {
		out[i] = deps[name]
	}
	return out
}

func encodeType(desc *TypeDescriptor) string {
	var sb strings.Builder
	sb.WriteString(structSignature(desc))
	for _, dep := range dependencies(desc) {
		sb.WriteString(structSignature(dep))
	}
	return sb.String()
}

func collectDeps(t FieldType, deps map[string]*TypeDescriptor) {
	switch t.Kind {
	case KindArray:
		collectDeps(*t.Elem, deps)
	case KindStruct:
		if _, seen := deps[t.Struct.Name]; seen {
			return
		}
		deps[t.Struct.Name] = t.Struct
		for _, f := range t.Struct.Fields {
			collectDeps(f.Type, deps)
		}
	}
}

// structSignature renders Name(type1 name1,type2 name2,...).
func structSignature(desc *TypeDescriptor) string {
	var sb strings.Builder
	sb.WriteString(desc.Name)
	sb.WriteByte('(')
	for i, f := range desc.Fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(f.Type.String())
		sb.WriteByte(' ')
		sb.WriteString(f.Name)
	}
	sb.WriteByte(')')
	return sb.String()
}

// validateDescriptor checks names and field types of desc and of every
// struct reachable from it. Two different schemas sharing a name are rejected.
func validateDescriptor(desc *TypeDescriptor, seen map[string]*TypeDescriptor) error {
	if !isStructName(desc.Name) {
		return errUnsupported("struct " + strconv.Quote(desc.Name))
	}
	if prev, ok := seen[desc.Name]; ok {
		if prev != desc && structSignature(prev) != structSignature(desc) {
			return &FieldError{Type: desc.Name, Reason: "conflicting definitions", Err: ErrUnsupportedType}
		}
		return nil
	}
	seen[desc.Name] = desc

	names := make(map[string]struct{}, len(desc.Fields))
	for _, f := range desc.Fields {
		path := desc.Name + "." + f.Name
		if f.Name == "" {
			return &FieldError{Field: path, Type: f.Type.String(), Reason: "empty field name", Err: ErrSchemaMismatch}
		}
		if _, dup := names[f.Name]; dup {
			return &FieldError{Field: path, Type: f.Type.String(), Reason: "duplicate field name", Err: ErrSchemaMismatch}
		}
		names[f.Name] = struct{}{}

		if err := f.Type.validate(); err != nil {
			return withField(err, path)
		}
		for t := f.Type; ; t = *t.Elem {
			if t.Kind == KindStruct {
				if err := validateDescriptor(t.Struct, seen); err != nil {
					return err
				}
			}
			if t.Kind != KindArray {
				break
			}
		}
	}
	return nil
}

// Normalize validates msg against desc and converts every value into its
// canonical Go representation: ethcommon.Address, bool, *big.Int, string,
// []byte, []any for arrays and Message for nested structs.
// No hashing happens here.
func Normalize(desc TypeDescriptor, msg Message) (Message, error) {
	if err := validateDescriptor(&desc, map[string]*TypeDescriptor{}); err != nil {
		return nil, err
	}
	return normalizeStruct("", &desc, msg)
}

func normalizeStruct(prefix string, desc *TypeDescriptor, msg map[string]any) (Message, error) {
	out := make(Message, len(desc.Fields))
	declared := make(map[string]struct{}, len(desc.Fields))
	for _, f := range desc.Fields {
		declared[f.Name] = struct{}{}
		path := joinPath(prefix, f.Name)

		v, ok := msg[f.Name]
		if !ok {
			return nil, mismatch(path, f.Type, "missing from message")
		}
		nv, err := normalizeValue(path, f.Type, v)
		if err != nil {
			return nil, err
		}
		out[f.Name] = nv
	}

	var extra []string
	for k := range msg {
		if _, ok := declared[k]; !ok {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, &FieldError{
			Field:  joinPath(prefix, extra[0]),
			Type:   desc.Name,
			Reason: "not declared in schema",
			Err:    ErrSchemaMismatch,
		}
	}
	return out, nil
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func normalizeValue(path string, t FieldType, v any) (any, error) {
	switch t.Kind {
	case KindAddress:
		return toAddress(path, t, v)
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, mismatch(path, t, "expected bool, got %T", v)
		}
		return b, nil
	case KindUint, KindInt:
		return toInteger(path, t, v)
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, mismatch(path, t, "expected string, got %T", v)
		}
		return s, nil
	case KindBytes:
		return toBytes(path, t, v)
	case KindFixedBytes:
		b, err := toBytes(path, t, v)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, mismatch(path, t, "expected %d bytes, got %d", t.Size, len(b))
		}
		return b, nil
	case KindArray:
		return toArray(path, t, v)
	case KindStruct:
		var m map[string]any
		switch x := v.(type) {
		case Message:
			m = x
		case map[string]any:
			m = x
		default:
			return nil, mismatch(path, t, "expected struct value, got %T", v)
		}
		return normalizeStruct(path, t.Struct, m)
	}
	return nil, withField(errUnsupported(t.String()), path)
}

func toAddress(path string, t FieldType, v any) (ethcommon.Address, error) {
	switch x := v.(type) {
	case ethcommon.Address:
		return x, nil
	case *ethcommon.Address:
		if x == nil {
			return ethcommon.Address{}, mismatch(path, t, "nil address")
		}
		return *x, nil
	case [20]byte:
		return ethcommon.Address(x), nil
	case string:
		b, err := hexutil.Decode(x)
		if err != nil {
			return ethcommon.Address{}, mismatch(path, t, "invalid hex %q: %v", x, err)
		}
		if len(b) != ethcommon.AddressLength {
			return ethcommon.Address{}, mismatch(path, t, "expected 20 bytes, got %d", len(b))
		}
		return ethcommon.BytesToAddress(b), nil
	case []byte:
		if len(x) != ethcommon.AddressLength {
			return ethcommon.Address{}, mismatch(path, t, "expected 20 bytes, got %d", len(x))
		}
		return ethcommon.BytesToAddress(x), nil
	}
	return ethcommon.Address{}, mismatch(path, t, "expected address, got %T", v)
}

func toBytes(path string, t FieldType, v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return append([]byte{}, x...), nil
	case hexutil.Bytes:
		return append([]byte{}, x...), nil
	case ethcommon.Hash:
		return x.Bytes(), nil
	case [32]byte:
		return append([]byte{}, x[:]...), nil
	case string:
		b, err := hexutil.Decode(x)
		if err != nil {
			return nil, mismatch(path, t, "invalid hex %q: %v", x, err)
		}
		return b, nil
	}
	return nil, mismatch(path, t, "expected bytes, got %T", v)
}

// maxSafeFloat bounds the integers a float64 (a JSON number decoded without
// UseNumber) carries without rounding.
const maxSafeFloat = 1 << 53

func toInteger(path string, t FieldType, v any) (*big.Int, error) {
	var n *big.Int
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, mismatch(path, t, "nil integer")
		}
		n = new(big.Int).Set(x)
	case *uint256.Int:
		if x == nil {
			return nil, mismatch(path, t, "nil integer")
		}
		n = x.ToBig()
	case *math.HexOrDecimal256:
		if x == nil {
			return nil, mismatch(path, t, "nil integer")
		}
		n = new(big.Int).Set((*big.Int)(x))
	case int:
		n = big.NewInt(int64(x))
	case int8:
		n = big.NewInt(int64(x))
	case int16:
		n = big.NewInt(int64(x))
	case int32:
		n = big.NewInt(int64(x))
	case int64:
		n = big.NewInt(x)
	case uint:
		n = new(big.Int).SetUint64(uint64(x))
	case uint8:
		n = new(big.Int).SetUint64(uint64(x))
	case uint16:
		n = new(big.Int).SetUint64(uint64(x))
	case uint32:
		n = new(big.Int).SetUint64(uint64(x))
	case uint64:
		n = new(big.Int).SetUint64(x)
	case float64:
		// 2^53 itself is excluded since 2^53+1 rounds onto it.
		if x >= maxSafeFloat || x <= -maxSafeFloat || x != float64(int64(x)) {
			return nil, mismatch(path, t, "number %v is not an exact integer", x)
		}
		n = big.NewInt(int64(x))
	case json.Number:
		var ok bool
		if n, ok = new(big.Int).SetString(x.String(), 10); !ok {
			return nil, mismatch(path, t, "invalid integer %q", x.String())
		}
	case string:
		var ok bool
		if strings.HasPrefix(x, "0x") || strings.HasPrefix(x, "0X") {
			n, ok = new(big.Int).SetString(x[2:], 16)
		} else {
			n, ok = new(big.Int).SetString(x, 10)
		}
		if !ok {
			return nil, mismatch(path, t, "invalid integer %q", x)
		}
	default:
		return nil, mismatch(path, t, "expected integer, got %T", v)
	}

	if t.Kind == KindUint {
		if n.Sign() < 0 {
			return nil, mismatch(path, t, "negative value %s", n)
		}
		if n.BitLen() > t.Size {
			return nil, mismatch(path, t, "value %s overflows %d bits", n, t.Size)
		}
		return n, nil
	}

	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
		return nil, mismatch(path, t, "value %s overflows %d bits", n, t.Size)
	}
	return n, nil
}

func toArray(path string, t FieldType, v any) ([]any, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, mismatch(path, t, "expected array, got %T", v)
	}
	if t.Size > 0 && rv.Len() != t.Size {
		return nil, mismatch(path, t, "expected %d elements, got %d", t.Size, rv.Len())
	}

	out := make([]any, rv.Len())
	for i := range out {
		elem, err := normalizeValue(path+"["+strconv.Itoa(i)+"]", *t.Elem, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out[i] = elem
	}
	return out, nil
}

// encodeData returns typeHash ++ enc(field1) ++ ... for a normalized message.
func encodeData(desc *TypeDescriptor, msg Message) []byte {
	buf := make([]byte, 0, 32*(len(desc.Fields)+1))
	buf = append(buf, crypto.Keccak256([]byte(encodeType(desc)))...)
	for _, f := range desc.Fields {
		buf = append(buf, encodeValue(f.Type, msg[f.Name])...)
	}
	return buf
}

func hashStruct(desc *TypeDescriptor, msg Message) []byte {
	return crypto.Keccak256(encodeData(desc, msg))
}

// encodeValue returns the 32-byte slot of a normalized value.
func encodeValue(t FieldType, v any) []byte {
	switch t.Kind {
	case KindAddress:
		addr := v.(ethcommon.Address)
		return ethcommon.LeftPadBytes(addr.Bytes(), 32)
	case KindBool:
		slot := make([]byte, 32)
		if v.(bool) {
			slot[31] = 1
		}
		return slot
	case KindUint:
		u := uint256.MustFromBig(v.(*big.Int))
		slot := u.Bytes32()
		return slot[:]
	case KindInt:
		return math.U256Bytes(new(big.Int).Set(v.(*big.Int)))
	case KindString:
		return crypto.Keccak256([]byte(v.(string)))
	case KindBytes:
		return crypto.Keccak256(v.([]byte))
	case KindFixedBytes:
		return ethcommon.RightPadBytes(v.([]byte), 32)
	case KindArray:
		elems := v.([]any)
		buf := make([]byte, 0, 32*len(elems))
		for _, elem := range elems {
			buf = append(buf, encodeValue(*t.Elem, elem)...)
		}
		return crypto.Keccak256(buf)
	case KindStruct:
		return hashStruct(t.Struct, v.(Message))
	}
	panic("eip712: encode of unvalidated type " + t.String())
}
