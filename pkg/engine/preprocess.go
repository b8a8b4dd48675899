package engine

import "strings"

// preprocessSource rewrites job source into something the zygomys reader
// accepts:
//
//   - :keyword becomes the string literal "__kw_keyword", so keyword
//     arguments never collide with user variables;
//   - kebab-case identifiers become snake_case (library-tool becomes
//     library_tool) because zygomys reads a hyphen as subtraction;
//   - ; and ;; line comments become // comments.
//
// String literals and comment text pass through untouched.
func preprocessSource(source string) string {
	r := rewriter{src: source}
	r.out.Grow(len(source) + len(source)/4)
	for r.pos < len(r.src) {
		switch c := r.src[r.pos]; {
		case c == '"' || c == '`':
			r.quoted(c)
		case c == ';':
			r.comment()
		case c == ':' && r.keyword():
		case c == '-' && r.kebab():
		default:
			r.out.WriteByte(c)
			r.pos++
		}
	}
	return r.out.String()
}

// rewriter walks the source once, copying or rewriting as it goes.
type rewriter struct {
	src string
	pos int
	out strings.Builder
}

func (r *rewriter) peek(off int) byte {
	if i := r.pos + off; i >= 0 && i < len(r.src) {
		return r.src[i]
	}
	return 0
}

// quoted copies a literal delimited by q. Backslash escapes apply to
// double-quoted strings only.
func (r *rewriter) quoted(q byte) {
	start := r.pos
	r.pos++
	for r.pos < len(r.src) && r.src[r.pos] != q {
		if q == '"' && r.src[r.pos] == '\\' && r.pos+1 < len(r.src) {
			r.pos++
		}
		r.pos++
	}
	if r.pos < len(r.src) {
		r.pos++
	}
	r.out.WriteString(r.src[start:r.pos])
}

func (r *rewriter) comment() {
	for r.peek(0) == ';' {
		r.pos++
	}
	end := strings.IndexByte(r.src[r.pos:], '\n')
	if end < 0 {
		end = len(r.src) - r.pos
	}
	r.out.WriteString("//")
	r.out.WriteString(r.src[r.pos : r.pos+end])
	r.pos += end
}

// keyword rewrites :name and reports whether it consumed anything. := is
// copied as is.
func (r *rewriter) keyword() bool {
	next := r.peek(1)
	if next == '=' {
		r.out.WriteString(":=")
		r.pos += 2
		return true
	}
	if !isLetter(next) {
		return false
	}
	end := r.pos + 1
	for end < len(r.src) && isKWChar(r.src[end]) {
		end++
	}
	r.out.WriteByte('"')
	r.out.WriteString(kwPrefix)
	r.out.WriteString(r.src[r.pos+1 : end])
	r.out.WriteByte('"')
	r.pos = end
	return true
}

// kebab turns a hyphen joining two identifier parts into an underscore.
// A hyphen anywhere else is the minus operator and is left alone.
func (r *rewriter) kebab() bool {
	if !isIdentChar(r.peek(-1)) || !isLetter(r.peek(1)) {
		return false
	}
	r.out.WriteByte('_')
	r.pos++
	return true
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}
func isKWChar(c byte) bool { return isIdentChar(c) || c == '-' }
