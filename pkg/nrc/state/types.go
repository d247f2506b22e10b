package state

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"time"
)

// FormatVersion is incremented when the record encoding changes.
const FormatVersion = 1

// Key prefixes. Record keys sort by time so iteration order is
// chronological.
const (
	recordPrefix = "rec\x00"
	idPrefix     = "id\x00"
)

// Record describes one compile invocation.
type Record struct {
	ID          string        `json:"id" yaml:"id"`
	Time        time.Time     `json:"time" yaml:"time"`
	Src         string        `json:"src" yaml:"src"`
	Dest        string        `json:"dest" yaml:"dest"`
	Mode        string        `json:"mode" yaml:"mode"`
	Regenerated bool          `json:"regenerated" yaml:"regenerated"`
	Entries     int           `json:"entries" yaml:"entries"`
	Bytes       int64         `json:"bytes" yaml:"bytes"`
	Fingerprint string        `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Warnings    int           `json:"warnings" yaml:"warnings"`
	Errors      int           `json:"errors" yaml:"errors"`
	ExitCode    int           `json:"exit_code" yaml:"exit_code"`
	Elapsed     time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Encode serializes the record using gob.
func (r *Record) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(FormatVersion)
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes data produced by Encode.
func (r *Record) Decode(data []byte) error {
	if len(data) == 0 || data[0] != FormatVersion {
		return ErrVersion
	}
	return gob.NewDecoder(bytes.NewReader(data[1:])).Decode(r)
}

// recordKey builds rec\x00<unix nanos, big endian><id>.
func recordKey(t time.Time, id string) []byte {
	key := make([]byte, 0, len(recordPrefix)+8+len(id))
	key = append(key, recordPrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(t.UnixNano()))
	return append(key, id...)
}

// keyTime extracts the timestamp from a record key.
func keyTime(key []byte) time.Time {
	if len(key) < len(recordPrefix)+8 {
		return time.Time{}
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(key[len(recordPrefix):])))
}

func idKey(id string) []byte {
	return []byte(idPrefix + id)
}
