package pack

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/nappgui/nrc/pkg/nrc/types"
)

// Entry describes one resource inside a container.
type Entry struct {
	Name string `json:"name" yaml:"name"`
	// Offset is the position of the data within the payload region.
	Offset uint32 `json:"offset" yaml:"offset"`
	Size   uint32 `json:"size" yaml:"size"`
}

// Container is a validated, read-only view of packed data. It references
// the slice passed to Open.
type Container struct {
	fp      types.Fingerprint
	entries []Entry
	payload []byte
}

// Open validates data and returns a view of it. Every index record must
// lie strictly within its region and names must be unique and sorted.
func Open(data []byte) (*Container, error) {
	fp, err := ReadFingerprint(data)
	if err != nil {
		return nil, err
	}

	le := binary.LittleEndian
	count := uint64(le.Uint32(data[8:]))
	namesLen := uint64(le.Uint32(data[12:]))
	payloadLen := uint64(le.Uint32(data[16:]))

	want := uint64(HeaderSize) + count*IndexSize + namesLen + payloadLen
	if uint64(len(data)) != want {
		return nil, fmt.Errorf("%w: size %d, header describes %d", ErrMalformed, len(data), want)
	}

	indexEnd := uint64(HeaderSize) + count*IndexSize
	index := data[HeaderSize:indexEnd]
	names := data[indexEnd : indexEnd+namesLen]
	payload := data[indexEnd+namesLen:]

	entries := make([]Entry, count)
	for i := range entries {
		rec := index[i*IndexSize:]
		nameOff := uint64(le.Uint32(rec[0:]))
		nameLen := uint64(le.Uint32(rec[4:]))
		dataOff := le.Uint32(rec[8:])
		dataLen := le.Uint32(rec[12:])

		if nameOff+nameLen > namesLen {
			return nil, fmt.Errorf("%w: entry %d name out of bounds", ErrMalformed, i)
		}
		if uint64(dataOff)+uint64(dataLen) > payloadLen {
			return nil, fmt.Errorf("%w: entry %d payload out of bounds", ErrMalformed, i)
		}

		name := string(names[nameOff : nameOff+nameLen])
		if name == "" {
			return nil, fmt.Errorf("%w: entry %d has an empty name", ErrMalformed, i)
		}
		if i > 0 && entries[i-1].Name >= name {
			if entries[i-1].Name == name {
				return nil, fmt.Errorf("%w: duplicate name %q", ErrMalformed, name)
			}
			return nil, fmt.Errorf("%w: names out of order at %q", ErrMalformed, name)
		}

		entries[i] = Entry{Name: name, Offset: dataOff, Size: dataLen}
	}

	return &Container{fp: fp, entries: entries, payload: payload}, nil
}

// Fingerprint returns the fingerprint recorded in the header.
func (c *Container) Fingerprint() types.Fingerprint {
	return c.fp
}

// Len returns the number of resources.
func (c *Container) Len() int {
	return len(c.entries)
}

// Entries returns the index in name order.
func (c *Container) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// PayloadSize returns the size of the payload region.
func (c *Container) PayloadSize() int64 {
	return int64(len(c.payload))
}

// Lookup returns the bytes of the named resource. The result aliases the
// container data and must not be modified.
func (c *Container) Lookup(name string) ([]byte, bool) {
	i := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].Name >= name })
	if i == len(c.entries) || c.entries[i].Name != name {
		return nil, false
	}
	e := c.entries[i]
	return c.payload[e.Offset : e.Offset+e.Size : e.Offset+e.Size], true
}

// Set copies every resource out of the container.
func (c *Container) Set() types.ResourceSet {
	set := make(types.ResourceSet, len(c.entries))
	for i, e := range c.entries {
		data := make([]byte, e.Size)
		copy(data, c.payload[e.Offset:])
		set[i] = types.ResourceEntry{Name: e.Name, Data: data}
	}
	return set
}
