package flame

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ObjectRef is a reference to a cached object. A zero-value ObjectRef with no
// URL and no inline payload means "no object". An ObjectRef may instead carry
// an inline payload when the object cache is not configured and the caller
// tolerates inline data (§4.2 short-circuit); the receiver distinguishes the
// two by the presence of URL.
type ObjectRef struct {
	URL     string `json:"url,omitempty"`
	Version int64  `json:"version"`
	// Inline holds the payload directly when URL is empty. Never set
	// together with a non-empty URL.
	Inline []byte `json:"inline,omitempty"`
}

// IsNull reports whether the reference points to nothing at all: no remote
// URL and no inline payload.
func (r *ObjectRef) IsNull() bool {
	return r == nil || (r.URL == "" && len(r.Inline) == 0)
}

// IsInline reports whether the object's payload travels with the reference
// itself rather than living behind URL.
func (r *ObjectRef) IsInline() bool {
	return r != nil && r.URL == "" && len(r.Inline) > 0
}

const objectRefWireVersion byte = 1

// Encode serializes r to a stable, length-prefixed binary form suitable for
// crossing the wire inline within Task/Session payloads (§3 ObjectRef:
// "Encoding to wire bytes is stable round-trip"). A nil ref encodes the same
// bytes as a zero-value ObjectRef: the version byte followed by an empty URL,
// a zero version and an empty inline payload.
func (r *ObjectRef) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteByte(objectRefWireVersion)
	if r == nil {
		writeLPString(&buf, "")
		writeLPInt64(&buf, 0)
		writeLPBytes(&buf, nil)
		return buf.Bytes()
	}
	writeLPString(&buf, r.URL)
	writeLPInt64(&buf, r.Version)
	writeLPBytes(&buf, r.Inline)
	return buf.Bytes()
}

// DecodeObjectRef is the inverse of (*ObjectRef).Encode. decode(encode(ref))
// reproduces ref byte-for-byte per the §8 testable property.
func DecodeObjectRef(data []byte) (*ObjectRef, error) {
	r := bytes.NewReader(data)
	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("decode object ref: read version: %w", err)
	}
	if version != objectRefWireVersion {
		return nil, fmt.Errorf("decode object ref: unsupported wire version %d", version)
	}
	url, err := readLPString(r)
	if err != nil {
		return nil, fmt.Errorf("decode object ref: read url: %w", err)
	}
	ver, err := readLPInt64(r)
	if err != nil {
		return nil, fmt.Errorf("decode object ref: read version field: %w", err)
	}
	inline, err := readLPBytes(r)
	if err != nil {
		return nil, fmt.Errorf("decode object ref: read inline: %w", err)
	}
	return &ObjectRef{URL: url, Version: ver, Inline: inline}, nil
}

func writeLPBytes(buf *bytes.Buffer, b []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(b)))
	buf.Write(length[:])
	buf.Write(b)
}

func writeLPString(buf *bytes.Buffer, s string) {
	writeLPBytes(buf, []byte(s))
}

func writeLPInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func readLPBytes(r *bytes.Reader) ([]byte, error) {
	var length [4]byte
	if _, err := r.Read(length[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(length[:])
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

func readLPString(r *bytes.Reader) (string, error) {
	b, err := readLPBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readLPInt64(r *bytes.Reader) (int64, error) {
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}
