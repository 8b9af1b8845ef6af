package selector

import (
	"fmt"
	"strconv"
	"strings"
)

// noTraversal marks a graph operator that is absent.
const noTraversal = -2

type parser struct {
	input string
	toks  []token
	pos   int
}

// Parse turns a selector string into its AST.
func Parse(input string) (Expr, error) {
	p := &parser{input: input, toks: lex(input)}
	if p.peek().kind == tokEOF {
		return nil, p.errorf(ErrMalformed, p.peek(), "empty expression")
	}

	e, err := p.parseUnion()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(ErrMalformed, t, "unexpected %q", t.text)
	}
	return e, nil
}

// MustParse is like Parse but panics on error.
func MustParse(input string) Expr {
	e, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return e
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(kind error, at token, format string, args ...any) *SelectorError {
	return &SelectorError{Kind: kind, Input: p.input, Pos: at.pos, Msg: fmt.Sprintf(format, args...)}
}

func startsTerm(t token) bool {
	switch t.kind {
	case tokWord, tokPlus, tokBang, tokAt, tokLParen:
		return true
	}
	return false
}

func (p *parser) parseUnion() (Expr, error) {
	first, err := p.parseIntersect()
	if err != nil {
		return nil, err
	}
	terms := []Expr{first}
	for startsTerm(p.peek()) {
		t, err := p.parseIntersect()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return &Union{Terms: terms}, nil
}

func (p *parser) parseIntersect() (Expr, error) {
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	terms := []Expr{first}
	for p.peek().kind == tokComma {
		p.next()
		t, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return &Intersect{Terms: terms}, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.peek().kind == tokBang {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{X: x}, nil
	}
	return p.parseGraph()
}

func (p *parser) parseGraph() (Expr, error) {
	start := p.peek()
	at := false
	if start.kind == tokAt {
		p.next()
		at = true
	}

	up := noTraversal
	switch t := p.peek(); {
	case t.kind == tokWord && isDepthLiteral(t.text) && p.peekAt(1).kind == tokPlus && t.end == p.peekAt(1).pos:
		d, err := p.parseDepth(t)
		if err != nil {
			return nil, err
		}
		p.next()
		plus := p.next()
		if err := p.requireAdjacent(plus); err != nil {
			return nil, err
		}
		up = d
	case t.kind == tokPlus:
		plus := p.next()
		if err := p.requireAdjacent(plus); err != nil {
			return nil, err
		}
		up = Unbounded
	}

	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	down := noTraversal
	last := p.toks[p.pos-1]
	if t := p.peek(); t.kind == tokPlus && t.pos == last.end {
		plus := p.next()
		down = Unbounded
		if w := p.peek(); w.kind == tokWord && w.pos == plus.end && isDepthLiteral(w.text) {
			d, err := p.parseDepth(w)
			if err != nil {
				return nil, err
			}
			p.next()
			down = d
		}
	}

	switch {
	case at && (up != noTraversal || down != noTraversal):
		return nil, p.errorf(ErrMalformed, start, "@ cannot be combined with +")
	case at:
		return &ChildrenParents{X: atom}, nil
	case up != noTraversal && down != noTraversal:
		return &Union{Terms: []Expr{&Ancestors{X: atom, Depth: up}, &Descendants{X: atom, Depth: down}}}, nil
	case up != noTraversal:
		return &Ancestors{X: atom, Depth: up}, nil
	case down != noTraversal:
		return &Descendants{X: atom, Depth: down}, nil
	default:
		return atom, nil
	}
}

// requireAdjacent rejects a prefix operator separated from its operand.
func (p *parser) requireAdjacent(op token) error {
	if t := p.peek(); t.pos != op.end || t.kind == tokEOF {
		return p.errorf(ErrMalformed, op, "dangling %q", op.text)
	}
	return nil
}

func (p *parser) parseAtom() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		e, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errorf(ErrMalformed, closing, "missing closing parenthesis for offset %d", t.pos)
		}
		return e, nil
	case tokWord:
		return p.leaf(t)
	case tokEOF:
		return nil, p.errorf(ErrMalformed, t, "unexpected end of expression")
	default:
		return nil, p.errorf(ErrMalformed, t, "unexpected %q", t.text)
	}
}

func (p *parser) leaf(t token) (Expr, error) {
	method, value, ok := strings.Cut(t.text, ":")
	if !ok {
		return &Leaf{Value: t.text}, nil
	}
	if method == "" || value == "" {
		return nil, p.errorf(ErrMalformed, t, "expected method:value, got %q", t.text)
	}
	return &Leaf{Method: method, Value: value}, nil
}

func isDepthLiteral(s string) bool {
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (p *parser) parseDepth(t token) (int, error) {
	if strings.HasPrefix(t.text, "-") {
		return 0, p.errorf(ErrInvalidDepth, t, "depth %s is negative", t.text)
	}
	d, err := strconv.Atoi(t.text)
	if err != nil {
		return 0, p.errorf(ErrInvalidDepth, t, "depth %s is out of range", t.text)
	}
	return d, nil
}
