// Package csource renders a resource set as a C translation unit and reads
// such files back.
//
// The generated file declares one byte array per resource, a lookup table
// of {name, data, size} records terminated by a NULL record, and the number
// of records. The fingerprint of the inputs is stored in a header comment so
// the up-to-date check can read it without compiling the file.
package csource

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/nappgui/nrc/pkg/nrc/types"
)

// Names declared by every generated file.
const (
	TypeName  = "nrc_resource_t"
	TableName = "nrc_resources"
	CountName = "nrc_resource_count"
)

// FingerprintTag prefixes the fingerprint comment.
const FingerprintTag = "nrc-fingerprint:"

const bytesPerRow = 16

const hexDigits = "0123456789abcdef"

// Encode renders set, which must be sorted, as C source recording fp.
// Resources whose identifiers collide produce a warning; the
// lexicographically later name keeps the identifier and the other resource
// is left out of the output.
func Encode(set types.ResourceSet, fp types.Fingerprint) ([]byte, []types.Diagnostic) {
	entries, diags := resolve(set)

	var buf bytes.Buffer
	buf.Grow(int(set.TotalSize())*6 + 1024)

	buf.WriteString("/* Automatically generated by nrc. Do not edit. */\n")
	fmt.Fprintf(&buf, "/* %s %s */\n\n", FingerprintTag, fp)
	buf.WriteString("#include <stddef.h>\n\n")
	fmt.Fprintf(&buf, "typedef struct {\n\tconst char *name;\n\tconst unsigned char *data;\n\tsize_t size;\n} %s;\n", TypeName)

	for _, e := range entries {
		fmt.Fprintf(&buf, "\n/* %s */\nstatic const unsigned char %s[] = {\n", commentSafe(e.entry.Name), e.ident)
		writeBytes(&buf, e.entry.Data)
		buf.WriteString("};\n")
	}

	fmt.Fprintf(&buf, "\nconst %s %s[] = {\n", TypeName, TableName)
	for _, e := range entries {
		fmt.Fprintf(&buf, "\t{ %s, %s, %d },\n", quote(e.entry.Name), e.ident, len(e.entry.Data))
	}
	buf.WriteString("\t{ NULL, NULL, 0 }\n};\n\n")
	fmt.Fprintf(&buf, "const size_t %s = %d;\n", CountName, len(entries))

	return buf.Bytes(), diags
}

// Collisions returns the warnings Encode would report for set without
// rendering it.
func Collisions(set types.ResourceSet) []types.Diagnostic {
	_, diags := resolve(set)
	return diags
}

type identified struct {
	entry types.ResourceEntry
	ident string
}

// resolve assigns identifiers and keeps, for each identifier, the
// lexicographically last name. Survivors stay in name order.
func resolve(set types.ResourceSet) ([]identified, []types.Diagnostic) {
	var diags []types.Diagnostic
	idents := make([]string, len(set))
	winner := make(map[string]int, len(set))

	for i, e := range set {
		id := Identifier(e.Name)
		idents[i] = id
		if prev, ok := winner[id]; ok {
			diags = append(diags, types.Warningf("duplicate resource identifier '%s': '%s' overrides '%s'", id, e.Name, set[prev].Name))
		}
		winner[id] = i
	}

	out := make([]identified, 0, len(winner))
	for i, e := range set {
		if winner[idents[i]] == i {
			out = append(out, identified{entry: e, ident: idents[i]})
		}
	}
	return out, diags
}

func writeBytes(buf *bytes.Buffer, data []byte) {
	if len(data) == 0 {
		// Zero length arrays are not valid C.
		buf.WriteString("\t0x00\n")
		return
	}
	for i := 0; i < len(data); i += bytesPerRow {
		end := i + bytesPerRow
		if end > len(data) {
			end = len(data)
		}
		buf.WriteByte('\t')
		for j := i; j < end; j++ {
			c := data[j]
			buf.WriteString("0x")
			buf.WriteByte(hexDigits[c>>4])
			buf.WriteByte(hexDigits[c&0x0f])
			if j < len(data)-1 {
				buf.WriteByte(',')
				if j < end-1 {
					buf.WriteByte(' ')
				}
			}
		}
		buf.WriteByte('\n')
	}
}

// commentSafe keeps a resource name from closing the comment it labels.
func commentSafe(name string) string {
	s := strconv.QuoteToASCII(name)
	return strings.ReplaceAll(s[1:len(s)-1], "*/", "*\\/")
}
