package csource

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nappgui/nrc/pkg/nrc/types"
)

// ErrMalformed is returned when a file was not produced by Encode.
var ErrMalformed = errors.New("malformed resource source")

// headerLines bounds how far ReadFingerprint looks for the tag.
const headerLines = 8

// Resource is one record of a decoded lookup table.
type Resource struct {
	Name  string
	Ident string
	Data  []byte
}

// File is the decoded form of a generated source file.
type File struct {
	Fingerprint types.Fingerprint
	Resources   []Resource
}

// Set returns the decoded resources as a sorted ResourceSet.
func (f *File) Set() types.ResourceSet {
	set := make(types.ResourceSet, len(f.Resources))
	for i, r := range f.Resources {
		set[i] = types.ResourceEntry{Name: r.Name, Data: r.Data}
	}
	set.Sort()
	return set
}

// ReadFingerprint returns the fingerprint recorded in the header comment.
func ReadFingerprint(r io.Reader) (types.Fingerprint, error) {
	sc := bufio.NewScanner(r)
	for n := 0; n < headerLines && sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "/* "+FingerprintTag) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 || fields[3] != "*/" {
			return types.Fingerprint{}, fmt.Errorf("%w: bad fingerprint line %q", ErrMalformed, line)
		}
		fp, err := types.ParseFingerprint(fields[2])
		if err != nil {
			return types.Fingerprint{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return fp, nil
	}
	if err := sc.Err(); err != nil {
		return types.Fingerprint{}, err
	}
	return types.Fingerprint{}, fmt.Errorf("%w: no fingerprint header", ErrMalformed)
}

// Decode parses a file produced by Encode.
func Decode(src []byte) (*File, error) {
	fp, err := ReadFingerprint(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}

	d := decoder{arrays: make(map[string][]byte), count: -1}
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for lineNo := 1; sc.Scan(); lineNo++ {
		if err := d.line(strings.TrimSpace(sc.Text())); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if d.state != stateDone {
		return nil, fmt.Errorf("%w: unterminated %s", ErrMalformed, d.state)
	}
	if d.count != len(d.table) {
		return nil, fmt.Errorf("%w: count %d does not match %d table records", ErrMalformed, d.count, len(d.table))
	}

	return &File{Fingerprint: fp, Resources: d.table}, nil
}

type decodeState int

const (
	stateTop decodeState = iota
	stateArray
	stateTable
	stateDone
)

func (s decodeState) String() string {
	switch s {
	case stateArray:
		return "byte array"
	case stateTable:
		return "lookup table"
	case stateTop:
		return "file"
	default:
		return "count"
	}
}

type decoder struct {
	state  decodeState
	ident  string
	cur    []byte
	arrays map[string][]byte
	table  []Resource
	count  int
}

var (
	arrayPrefix = "static const unsigned char "
	tableLine   = "const " + TypeName + " " + TableName + "[] = {"
	countPrefix = "const size_t " + CountName + " = "
)

func (d *decoder) line(line string) error {
	switch d.state {
	case stateTop:
		switch {
		case strings.HasPrefix(line, arrayPrefix) && strings.HasSuffix(line, "[] = {"):
			d.ident = strings.TrimSuffix(strings.TrimPrefix(line, arrayPrefix), "[] = {")
			if _, dup := d.arrays[d.ident]; dup {
				return fmt.Errorf("array %s declared twice", d.ident)
			}
			d.cur = nil
			d.state = stateArray
		case line == tableLine:
			d.state = stateTable
		case strings.HasPrefix(line, countPrefix):
			return fmt.Errorf("count before lookup table")
		}
		return nil

	case stateArray:
		if line == "};" {
			d.arrays[d.ident] = d.cur
			d.state = stateTop
			return nil
		}
		for _, tok := range strings.Split(line, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			v, err := strconv.ParseUint(tok, 0, 8)
			if err != nil {
				return fmt.Errorf("array %s: %v", d.ident, err)
			}
			d.cur = append(d.cur, byte(v))
		}
		return nil

	case stateTable:
		if line == "{ NULL, NULL, 0 }" {
			return nil
		}
		if line == "};" {
			d.state = stateDone
			return nil
		}
		r, err := d.record(line)
		if err != nil {
			return err
		}
		d.table = append(d.table, r)
		return nil

	default:
		if strings.HasPrefix(line, countPrefix) {
			n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(line, countPrefix), ";"))
			if err != nil {
				return fmt.Errorf("count: %v", err)
			}
			d.count = n
		}
		return nil
	}
}

// record parses `{ "name", ident, size },`.
func (d *decoder) record(line string) (Resource, error) {
	body, ok := strings.CutPrefix(line, "{ ")
	if ok {
		body, ok = strings.CutSuffix(body, " },")
	}
	if !ok || !strings.HasPrefix(body, `"`) {
		return Resource{}, fmt.Errorf("bad table record %q", line)
	}

	// Quotes inside names are always escaped, so the literal ends at the
	// next quote.
	end := strings.IndexByte(body[1:], '"') + 1
	if end == 0 {
		return Resource{}, fmt.Errorf("unterminated name in %q", line)
	}
	name, err := strconv.Unquote(body[:end+1])
	if err != nil {
		return Resource{}, fmt.Errorf("name %s: %v", body[:end+1], err)
	}

	rest := strings.Split(strings.TrimPrefix(body[end+1:], ", "), ", ")
	if len(rest) != 2 {
		return Resource{}, fmt.Errorf("bad table record %q", line)
	}
	ident := rest[0]
	size, err := strconv.Atoi(rest[1])
	if err != nil || size < 0 {
		return Resource{}, fmt.Errorf("bad size in %q", line)
	}

	data, ok := d.arrays[ident]
	if !ok {
		return Resource{}, fmt.Errorf("record %q references undeclared array %s", name, ident)
	}
	if size > len(data) {
		return Resource{}, fmt.Errorf("record %q size %d exceeds array of %d bytes", name, size, len(data))
	}

	return Resource{Name: name, Ident: ident, Data: data[:size:size]}, nil
}
