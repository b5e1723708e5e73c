package eip712

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the family of an EIP-712 field type.
type Kind int

const (
	KindInvalid Kind = iota
	KindAddress
	KindBool
	KindUint
	KindInt
	KindBytes
	KindString
	KindFixedBytes
	KindArray
	KindStruct
)

// FieldType describes the declared type of a single struct member.
//
// Size carries the bit width for integers, the byte length for fixed bytes
// and the element count for fixed arrays (0 for dynamic arrays).
type FieldType struct {
	Kind   Kind
	Size   int
	Elem   *FieldType
	Struct *TypeDescriptor
}

// Field is a named member of a TypeDescriptor.
type Field struct {
	Name string
	Type FieldType
}

// TypeDescriptor is an EIP-712 struct schema. Field order is significant.
type TypeDescriptor struct {
	Name   string
	Fields []Field
}

// Message is a struct value keyed by field name.
type Message map[string]any

func Address() FieldType         { return FieldType{Kind: KindAddress} }
func Bool() FieldType            { return FieldType{Kind: KindBool} }
func Uint(bits int) FieldType    { return FieldType{Kind: KindUint, Size: bits} }
func Int(bits int) FieldType     { return FieldType{Kind: KindInt, Size: bits} }
func Bytes() FieldType           { return FieldType{Kind: KindBytes} }
func String() FieldType          { return FieldType{Kind: KindString} }
func FixedBytes(n int) FieldType { return FieldType{Kind: KindFixedBytes, Size: n} }

// ArrayOf returns a dynamic array type T[].
func ArrayOf(elem FieldType) FieldType {
	return FieldType{Kind: KindArray, Elem: &elem}
}

// FixedArrayOf returns a fixed-length array type T[n].
func FixedArrayOf(elem FieldType, n int) FieldType {
	return FieldType{Kind: KindArray, Elem: &elem, Size: n}
}

// StructOf returns a field type referencing a nested struct schema.
func StructOf(desc *TypeDescriptor) FieldType {
	return FieldType{Kind: KindStruct, Struct: desc}
}

// String returns the canonical EIP-712 name of the type, e.g. "uint256",
// "bytes32", "address[]" or the struct name.
func (t FieldType) String() string {
	switch t.Kind {
	case KindAddress:
		return "address"
	case KindBool:
		return "bool"
	case KindUint:
		return "uint" + strconv.Itoa(t.Size)
	case KindInt:
		return "int" + strconv.Itoa(t.Size)
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindFixedBytes:
		return "bytes" + strconv.Itoa(t.Size)
	case KindArray:
		if t.Elem == nil {
			return "[]"
		}
		if t.Size > 0 {
			return fmt.Sprintf("%s[%d]", t.Elem.String(), t.Size)
		}
		return t.Elem.String() + "[]"
	case KindStruct:
		if t.Struct == nil {
			return ""
		}
		return t.Struct.Name
	default:
		return fmt.Sprintf("invalid(%d)", int(t.Kind))
	}
}

// IsDynamic reports whether values of the type are hashed before being
// placed into their 32-byte slot.
func (t FieldType) IsDynamic() bool {
	switch t.Kind {
	case KindBytes, KindString, KindArray, KindStruct:
		return true
	}
	return false
}

// validate checks that the type belongs to the supported set.
func (t FieldType) validate() error {
	switch t.Kind {
	case KindAddress, KindBool, KindBytes, KindString:
		return nil
	case KindUint, KindInt:
		if t.Size < 8 || t.Size > 256 || t.Size%8 != 0 {
			return errUnsupported(t.String())
		}
		return nil
	case KindFixedBytes:
		if t.Size < 1 || t.Size > 32 {
			return errUnsupported(t.String())
		}
		return nil
	case KindArray:
		if t.Elem == nil || t.Size < 0 {
			return errUnsupported(t.String())
		}
		return t.Elem.validate()
	case KindStruct:
		if t.Struct == nil || !isStructName(t.Struct.Name) {
			return errUnsupported(t.String())
		}
		return nil
	}
	return errUnsupported(t.String())
}

// isStructName reports whether name can label a struct. Names that parse
// as a primitive (address, uint8, bytes32, ...) would make encodeType
// ambiguous.
func isStructName(name string) bool {
	if !isIdentifier(name) {
		return false
	}
	_, err := ParseType(name, nil)
	return err != nil
}

// ParseType parses a canonical type name. Struct names are looked up with
// resolve, which may be nil when only primitive types are expected.
func ParseType(name string, resolve func(string) (*TypeDescriptor, bool)) (FieldType, error) {
	if strings.HasSuffix(name, "]") {
		open := strings.LastIndexByte(name, '[')
		if open <= 0 {
			return FieldType{}, errUnsupported(name)
		}
		elem, err := ParseType(name[:open], resolve)
		if err != nil {
			return FieldType{}, err
		}
		length := name[open+1 : len(name)-1]
		if length == "" {
			return ArrayOf(elem), nil
		}
		n, err := strconv.Atoi(length)
		if err != nil || n <= 0 {
			return FieldType{}, errUnsupported(name)
		}
		return FixedArrayOf(elem, n), nil
	}

	var t FieldType
	switch {
	case name == "address":
		t = Address()
	case name == "bool":
		t = Bool()
	case name == "string":
		t = String()
	case name == "bytes":
		t = Bytes()
	case sizedPrefix(name, "uint"):
		t = FieldType{Kind: KindUint, Size: parseSize(name[4:])}
	case sizedPrefix(name, "int"):
		t = FieldType{Kind: KindInt, Size: parseSize(name[3:])}
	case sizedPrefix(name, "bytes"):
		t = FieldType{Kind: KindFixedBytes, Size: parseSize(name[5:])}
	default:
		if resolve == nil {
			return FieldType{}, errUnsupported(name)
		}
		desc, ok := resolve(name)
		if !ok || desc == nil {
			return FieldType{}, errUnsupported(name)
		}
		t = StructOf(desc)
	}

	if err := t.validate(); err != nil {
		return FieldType{}, err
	}
	return t, nil
}

// sizedPrefix reports whether name is prefix followed by digits only.
func sizedPrefix(name, prefix string) bool {
	if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
		return false
	}
	for _, r := range name[len(prefix):] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseSize parses the numeric suffix of sized types. Leading zeros are
// not canonical and yield -1, which fails validation.
func parseSize(suffix string) int {
	if suffix[0] == '0' {
		return -1
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return -1
	}
	return n
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
