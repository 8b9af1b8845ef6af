package selector

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokPlus
	tokComma
	tokBang
	tokAt
	tokLParen
	tokRParen
)

type token struct {
	kind     tokenKind
	text     string
	pos, end int
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelim(c byte) bool {
	switch c {
	case '+', ',', '!', '@', '(', ')':
		return true
	}
	return isSpace(c)
}

var punct = map[byte]tokenKind{
	'+': tokPlus,
	',': tokComma,
	'!': tokBang,
	'@': tokAt,
	'(': tokLParen,
	')': tokRParen,
}

// lex splits input into tokens. Whitespace only separates tokens; the
// parser recovers adjacency from the offsets.
func lex(input string) []token {
	var toks []token
	for i := 0; i < len(input); {
		c := input[i]
		if isSpace(c) {
			i++
			continue
		}
		if kind, ok := punct[c]; ok {
			toks = append(toks, token{kind: kind, text: input[i : i+1], pos: i, end: i + 1})
			i++
			continue
		}
		start := i
		for i < len(input) && !isDelim(input[i]) {
			i++
		}
		toks = append(toks, token{kind: tokWord, text: input[start:i], pos: start, end: i})
	}
	return append(toks, token{kind: tokEOF, pos: len(input), end: len(input)})
}
