package csource

import "strings"

// C keywords through C23, the <stddef.h> names the generated file pulls in
// and the names it declares itself.
var reserved = map[string]struct{}{
	"auto": {}, "break": {}, "case": {}, "char": {}, "const": {}, "continue": {},
	"default": {}, "do": {}, "double": {}, "else": {}, "enum": {}, "extern": {},
	"float": {}, "for": {}, "goto": {}, "if": {}, "inline": {}, "int": {},
	"long": {}, "register": {}, "restrict": {}, "return": {}, "short": {},
	"signed": {}, "sizeof": {}, "static": {}, "struct": {}, "switch": {},
	"typedef": {}, "union": {}, "unsigned": {}, "void": {}, "volatile": {},
	"while": {}, "alignas": {}, "alignof": {}, "bool": {}, "constexpr": {},
	"false": {}, "nullptr": {}, "static_assert": {}, "thread_local": {},
	"true": {}, "typeof": {}, "typeof_unqual": {},
	"_Alignas": {}, "_Alignof": {}, "_Atomic": {}, "_Bool": {}, "_Complex": {},
	"_Generic": {}, "_Imaginary": {}, "_Noreturn": {}, "_Static_assert": {},
	"_Thread_local": {},
	"NULL": {}, "size_t": {}, "ptrdiff_t": {}, "wchar_t": {}, "offsetof": {},
	"max_align_t": {}, "nullptr_t": {}, "unreachable": {},
	TableName: {}, CountName: {}, TypeName: {},
}

// Identifier maps a resource name to the C identifier of its data array.
// Every byte outside [A-Za-z0-9_] becomes '_', a leading digit gets a '_'
// prefix and keywords or reserved names get a '_' suffix.
func Identifier(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 1)
	if len(name) == 0 || isDigit(name[0]) {
		b.WriteByte('_')
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isIdentByte(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('_')
		}
	}
	id := b.String()
	if _, ok := reserved[id]; ok {
		id += "_"
	}
	return id
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentByte(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// quote renders s as a C string literal. Bytes outside printable ASCII, and
// the characters that would end or alter the literal, use three digit octal
// escapes so the literal has a single reading in both C and Go.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\' || c == '?':
			writeOctal(&b, c)
		case c >= 0x20 && c < 0x7f:
			b.WriteByte(c)
		default:
			writeOctal(&b, c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func writeOctal(b *strings.Builder, c byte) {
	b.WriteByte('\\')
	b.WriteByte('0' + c>>6)
	b.WriteByte('0' + (c>>3)&7)
	b.WriteByte('0' + c&7)
}
