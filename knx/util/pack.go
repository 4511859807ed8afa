// Package util provides the wire primitives shared by the cemi and knxnet
// packages: big-endian packing helpers and a small logging facility.
package util

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
)

// Packable is implemented by anything that can be serialized into a
// byte buffer of a known, fixed size.
type Packable interface {
	// Size returns the number of bytes Pack will write.
	Size() uint

	// Pack writes the value into buffer, which must be at least Size() bytes.
	Pack(buffer []byte)
}

// Unpackable is implemented by anything that can initialize itself from a
// byte buffer, returning the number of bytes consumed.
type Unpackable interface {
	Unpack(data []byte) (n uint, err error)
}

// PackSome packs a sequence of values into buffer one after another,
// advancing the offset by each value's packed size. Besides []byte and
// anything implementing Packable, values of kind uint8, uint16 or uint32
// (including named types such as cemi.IndividualAddr) and fixed-size byte
// arrays are packed big-endian by reflection, and struct values whose
// pointer implements Packable are packed through that pointer. Any other
// value makes it panic.
func PackSome(buffer []byte, values ...any) {
	offset := uint(0)

	for _, value := range values {
		offset += packValue(buffer[offset:], value)
	}
}

func packValue(buffer []byte, value any) uint {
	switch v := value.(type) {
	case []byte:
		copy(buffer, v)
		return uint(len(v))

	case Packable:
		v.Pack(buffer)
		return v.Size()
	}

	rv := reflect.ValueOf(value)

	switch rv.Kind() {
	case reflect.Uint8:
		buffer[0] = uint8(rv.Uint())
		return 1

	case reflect.Uint16:
		binary.BigEndian.PutUint16(buffer, uint16(rv.Uint()))
		return 2

	case reflect.Uint32:
		binary.BigEndian.PutUint32(buffer, uint32(rv.Uint()))
		return 4

	case reflect.Array:
		n := rv.Len()
		for i := 0; i < n; i++ {
			buffer[i] = uint8(rv.Index(i).Uint())
		}
		return uint(n)

	case reflect.Struct:
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)

		if p, ok := ptr.Interface().(Packable); ok {
			p.Pack(buffer)
			return p.Size()
		}
	}

	panic(fmt.Sprintf("util: PackSome: unsupported type %T", value))
}

// UnpackSome unpacks a sequence of values from data one after another,
// advancing the offset by each value's consumed size. Besides []byte and
// anything implementing Unpackable, pointers to values of kind uint8,
// uint16 or uint32 (including named types) and pointers to fixed-size byte
// arrays are unpacked big-endian by reflection.
func UnpackSome(data []byte, values ...any) (n uint, err error) {
	offset := uint(0)

	for _, value := range values {
		nn, err := unpackValue(data[offset:], value)
		if err != nil {
			return offset, err
		}
		offset += nn
	}

	return offset, nil
}

func unpackValue(data []byte, value any) (uint, error) {
	switch v := value.(type) {
	case []byte:
		if len(data) < len(v) {
			return 0, io.ErrUnexpectedEOF
		}
		copy(v, data[:len(v)])
		return uint(len(v)), nil

	case Unpackable:
		return v.Unpack(data)
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("util: UnpackSome: unsupported type %T", value))
	}

	elem := rv.Elem()

	switch elem.Kind() {
	case reflect.Uint8:
		if len(data) < 1 {
			return 0, io.ErrUnexpectedEOF
		}
		elem.SetUint(uint64(data[0]))
		return 1, nil

	case reflect.Uint16:
		if len(data) < 2 {
			return 0, io.ErrUnexpectedEOF
		}
		elem.SetUint(uint64(binary.BigEndian.Uint16(data)))
		return 2, nil

	case reflect.Uint32:
		if len(data) < 4 {
			return 0, io.ErrUnexpectedEOF
		}
		elem.SetUint(uint64(binary.BigEndian.Uint32(data)))
		return 4, nil

	case reflect.Array:
		n := elem.Len()
		if len(data) < n {
			return 0, io.ErrUnexpectedEOF
		}
		for i := 0; i < n; i++ {
			elem.Index(i).SetUint(uint64(data[i]))
		}
		return uint(n), nil
	}

	panic(fmt.Sprintf("util: UnpackSome: unsupported type %T", value))
}
