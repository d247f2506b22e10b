// Package pack writes and reads the packed resource container.
//
// Layout, all integers little endian:
//
//	header   magic "NRCP" | version u16 | flags u16 | count u32 |
//	         names_len u32 | payload_len u32 | fingerprint [32]byte
//	index    count x { name_off u32, name_len u32, payload_off u32, payload_len u32 }
//	names    concatenated UTF-8 names, no terminators
//	payload  concatenated resource bytes
//
// Offsets in the index are relative to the start of their region. Entries
// appear in name order.
package pack

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/nappgui/nrc/pkg/nrc/types"
)

// Container format constants.
const (
	Magic      = "NRCP"
	Version    = 1
	HeaderSize = 4 + 2 + 2 + 4 + 4 + 4 + types.FingerprintSize
	IndexSize  = 16
)

// ErrMalformed is returned by Open for data that is not a valid container.
var ErrMalformed = errors.New("malformed resource pack")

// Encoder produces packed containers. The zero value uses the full u32
// range of the format.
type Encoder struct {
	// Limit caps the names and payload regions. Zero means math.MaxUint32.
	Limit uint64
}

// Encode packs set, which must be sorted, recording fp in the header.
func Encode(set types.ResourceSet, fp types.Fingerprint) ([]byte, error) {
	return Encoder{}.Encode(set, fp)
}

// Encode packs set, which must be sorted, recording fp in the header.
func (e Encoder) Encode(set types.ResourceSet, fp types.Fingerprint) ([]byte, error) {
	limit := e.Limit
	if limit == 0 || limit > math.MaxUint32 {
		limit = math.MaxUint32
	}

	var namesLen, payloadLen uint64
	for _, entry := range set {
		namesLen += uint64(len(entry.Name))
		payloadLen += uint64(len(entry.Data))
		if namesLen > limit {
			return nil, types.NewPathError("pack", entry.Name, types.ErrResourceTooLarge,
				fmt.Errorf("names region exceeds %d bytes", limit))
		}
		if payloadLen > limit {
			return nil, types.NewPathError("pack", entry.Name, types.ErrResourceTooLarge,
				fmt.Errorf("payload region exceeds %d bytes", limit))
		}
	}
	if uint64(len(set)) > (math.MaxInt-HeaderSize)/IndexSize {
		return nil, fmt.Errorf("pack: %d entries: %w", len(set), types.ErrResourceTooLarge)
	}

	indexLen := len(set) * IndexSize
	total := HeaderSize + indexLen + int(namesLen) + int(payloadLen)
	buf := make([]byte, total)

	copy(buf[0:4], Magic)
	le := binary.LittleEndian
	le.PutUint16(buf[4:], Version)
	le.PutUint16(buf[6:], 0)
	le.PutUint32(buf[8:], uint32(len(set)))
	le.PutUint32(buf[12:], uint32(namesLen))
	le.PutUint32(buf[16:], uint32(payloadLen))
	copy(buf[20:HeaderSize], fp[:])

	index := buf[HeaderSize : HeaderSize+indexLen]
	names := buf[HeaderSize+indexLen : HeaderSize+indexLen+int(namesLen)]
	payload := buf[HeaderSize+indexLen+int(namesLen):]

	var nameOff, payloadOff int
	for i, entry := range set {
		rec := index[i*IndexSize:]
		le.PutUint32(rec[0:], uint32(nameOff))
		le.PutUint32(rec[4:], uint32(len(entry.Name)))
		le.PutUint32(rec[8:], uint32(payloadOff))
		le.PutUint32(rec[12:], uint32(len(entry.Data)))
		nameOff += copy(names[nameOff:], entry.Name)
		payloadOff += copy(payload[payloadOff:], entry.Data)
	}

	return buf, nil
}

// ReadFingerprint returns the fingerprint recorded in a container header
// without validating the rest of the data.
func ReadFingerprint(header []byte) (types.Fingerprint, error) {
	var fp types.Fingerprint
	if len(header) < HeaderSize {
		return fp, fmt.Errorf("%w: %d byte header", ErrMalformed, len(header))
	}
	if string(header[0:4]) != Magic {
		return fp, fmt.Errorf("%w: bad magic %q", ErrMalformed, header[0:4])
	}
	if v := binary.LittleEndian.Uint16(header[4:]); v != Version {
		return fp, fmt.Errorf("%w: unsupported version %d", ErrMalformed, v)
	}
	copy(fp[:], header[20:HeaderSize])
	return fp, nil
}
