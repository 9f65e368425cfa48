package rtc

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// The token signature is computed over the exact encoded byte sequence, so
// every pack function here must be deterministic: little-endian integers,
// 2-byte length prefixes for strings, and map entries emitted in the order
// they were inserted.

func packUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func packUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func packString(buf *bytes.Buffer, s string) error {
	if len(s) > 0xffff {
		return fmt.Errorf("string of %d bytes exceeds uint16 length prefix", len(s))
	}
	packUint16(buf, uint16(len(s)))
	buf.WriteString(s)
	return nil
}

// packPrivileges emits a 2-byte entry count followed by 2-byte kind and
// 4-byte expiry pairs, preserving insertion order.
func packPrivileges(buf *bytes.Buffer, privileges *PrivilegeSet) {
	packUint16(buf, uint16(privileges.Len()))
	for _, entry := range privileges.Entries() {
		packUint16(buf, uint16(entry.Kind))
		packUint32(buf, entry.ExpireAt)
	}
}

// reader is a cursor over an encoded message, used to reverse the pack
// functions above when parsing a token.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) uint16() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, fmt.Errorf("truncated message: need 2 bytes at offset %d", r.pos)
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) uint32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("truncated message: need 4 bytes at offset %d", r.pos)
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) str() (string, error) {
	n, err := r.uint16()
	if err != nil {
		return "", err
	}
	if r.pos+int(n) > len(r.data) {
		return "", fmt.Errorf("truncated string: need %d bytes at offset %d", n, r.pos)
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *reader) privileges() (*PrivilegeSet, error) {
	count, err := r.uint16()
	if err != nil {
		return nil, err
	}
	set := NewPrivilegeSet()
	for i := 0; i < int(count); i++ {
		kind, err := r.uint16()
		if err != nil {
			return nil, err
		}
		expireAt, err := r.uint32()
		if err != nil {
			return nil, err
		}
		set.Grant(Privilege(kind), expireAt)
	}
	return set, nil
}

func (r *reader) remaining() int { return len(r.data) - r.pos }
