package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var (
	// ErrUnknownAttribute is returned during evaluation when a predicate
	// references an attribute the environment does not provide.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrNotNumeric is returned when an ordered comparison (< <= > >=) is
	// applied to a value that cannot be parsed as a number.
	ErrNotNumeric = errors.New("value is not numeric")
)

// Env supplies attribute values during evaluation.
// The second return value reports whether the attribute exists at all;
// an existing attribute may legitimately hold the empty string.
type Env interface {
	Attr(name string) (string, bool)
}

// MapEnv is the simplest Env: a map from attribute name to value.
type MapEnv map[string]string

// Attr looks up name in the map.
func (m MapEnv) Attr(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Predicate is a parsed, reusable boolean expression.
// A Predicate is immutable and safe for concurrent evaluation.
type Predicate struct {
	root   node
	source string
}

// Parse compiles a predicate string. The returned Predicate can be
// evaluated any number of times against different environments.
func Parse(input string) (*Predicate, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("unexpected %q at end of predicate", p.peek().text)
	}
	return &Predicate{root: root, source: input}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// for predicates embedded in source code.
func MustParse(input string) *Predicate {
	p, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return p
}

// Eval evaluates the predicate against env.
func (p *Predicate) Eval(env Env) (bool, error) {
	return p.root.eval(env)
}

// String returns the original predicate source text.
func (p *Predicate) String() string { return p.source }

// Attrs returns the attribute names the predicate references, in first
// occurrence order. Useful for validating a predicate against a table
// schema before evaluating it row by row.
func (p *Predicate) Attrs() []string {
	seen := make(map[string]struct{})
	var out []string
	p.root.attrs(func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	})
	return out
}

// =============================================================================
// AST
// =============================================================================

type node interface {
	eval(env Env) (bool, error)
	attrs(visit func(name string))
}

type binaryNode struct {
	op       string // "==", "!=", "<", "<=", ">", ">="
	lhs, rhs operand
}

func (n *binaryNode) eval(env Env) (bool, error) {
	lv, err := n.lhs.value(env)
	if err != nil {
		return false, err
	}
	rv, err := n.rhs.value(env)
	if err != nil {
		return false, err
	}

	switch n.op {
	case "==":
		return lv == rv, nil
	case "!=":
		return lv != rv, nil
	}

	lf, err := toFloat(lv)
	if err != nil {
		return false, err
	}
	rf, err := toFloat(rv)
	if err != nil {
		return false, err
	}
	switch n.op {
	case "<":
		return lf < rf, nil
	case "<=":
		return lf <= rf, nil
	case ">":
		return lf > rf, nil
	case ">=":
		return lf >= rf, nil
	}
	return false, fmt.Errorf("unknown operator %q", n.op)
}

func (n *binaryNode) attrs(visit func(string)) {
	n.lhs.visitAttr(visit)
	n.rhs.visitAttr(visit)
}

type inNode struct {
	lhs    operand
	values []string
}

func (n *inNode) eval(env Env) (bool, error) {
	lv, err := n.lhs.value(env)
	if err != nil {
		return false, err
	}
	for _, v := range n.values {
		if lv == v {
			return true, nil
		}
	}
	return false, nil
}

func (n *inNode) attrs(visit func(string)) { n.lhs.visitAttr(visit) }

type andNode struct{ lhs, rhs node }

func (n *andNode) eval(env Env) (bool, error) {
	l, err := n.lhs.eval(env)
	if err != nil {
		return false, err
	}
	if !l {
		return false, nil
	}
	return n.rhs.eval(env)
}

func (n *andNode) attrs(visit func(string)) {
	n.lhs.attrs(visit)
	n.rhs.attrs(visit)
}

type orNode struct{ lhs, rhs node }

func (n *orNode) eval(env Env) (bool, error) {
	l, err := n.lhs.eval(env)
	if err != nil {
		return false, err
	}
	if l {
		return true, nil
	}
	return n.rhs.eval(env)
}

func (n *orNode) attrs(visit func(string)) {
	n.lhs.attrs(visit)
	n.rhs.attrs(visit)
}

type notNode struct{ inner node }

func (n *notNode) eval(env Env) (bool, error) {
	v, err := n.inner.eval(env)
	if err != nil {
		return false, err
	}
	return !v, nil
}

func (n *notNode) attrs(visit func(string)) { n.inner.attrs(visit) }

// operand is either an attribute reference or a literal.
type operand struct {
	attr    string // attribute name when literal is false
	lit     string
	literal bool
}

func (o operand) value(env Env) (string, error) {
	if o.literal {
		return o.lit, nil
	}
	v, ok := env.Attr(o.attr)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, o.attr)
	}
	return v, nil
}

func (o operand) visitAttr(visit func(string)) {
	if !o.literal {
		visit(o.attr)
	}
}

func toFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	return f, nil
}

// =============================================================================
// Lexer
// =============================================================================

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokOp     // == != < <= > >=
	tokLParen // (
	tokRParen // )
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := rune(input[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		case c == '\'' || c == '"':
			s, next, err := lexString(input, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{tokString, s})
			i = next
		case c == '=' || c == '!' || c == '<' || c == '>':
			op, next, err := lexOp(input, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{tokOp, op})
			i = next
		case c == '&' || c == '|':
			if i+1 < len(input) && input[i+1] == input[i] {
				word := "and"
				if c == '|' {
					word = "or"
				}
				toks = append(toks, token{tokIdent, word})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected character %q at offset %d", c, i)
			}
		case unicode.IsDigit(c) || c == '-' || c == '+':
			j := i + 1
			for j < len(input) && (unicode.IsDigit(rune(input[j])) || input[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, input[i:j]})
			i = j
		case unicode.IsLetter(c) || c == '_':
			j := i + 1
			for j < len(input) && isIdentRune(rune(input[j])) {
				j++
			}
			toks = append(toks, token{tokIdent, input[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", c, i)
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks, nil
}

func isIdentRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '.'
}

func lexString(input string, start int) (string, int, error) {
	quote := input[start]
	i := start + 1
	var b strings.Builder
	for i < len(input) {
		if input[i] == quote {
			return b.String(), i + 1, nil
		}
		if input[i] == '\\' && i+1 < len(input) {
			i++
		}
		b.WriteByte(input[i])
		i++
	}
	return "", 0, fmt.Errorf("unterminated string at offset %d", start)
}

func lexOp(input string, start int) (string, int, error) {
	if start+1 < len(input) && input[start+1] == '=' {
		return input[start : start+2], start + 2, nil
	}
	switch input[start] {
	case '<', '>':
		return input[start : start+1], start + 1, nil
	case '!':
		return "!", start + 1, nil
	}
	return "", 0, fmt.Errorf("incomplete operator %q at offset %d", input[start], start)
}

// =============================================================================
// Parser
// =============================================================================

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) atEnd() bool { return p.peek().kind == tokEOF }

func (p *parser) acceptWord(word string) bool {
	if p.peek().kind == tokIdent && p.peek().text == word {
		p.next()
		return true
	}
	return false
}

func (p *parser) parseOr() (node, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptWord("or") {
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = &orNode{lhs: lhs, rhs: rhs}
	}
	return lhs, nil
}

func (p *parser) parseAnd() (node, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.acceptWord("and") {
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = &andNode{lhs: lhs, rhs: rhs}
	}
	return lhs, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.acceptWord("not") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notNode{inner: inner}, nil
	}
	if p.peek().kind == tokOp && p.peek().text == "!" {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notNode{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, fmt.Errorf("expected ')', got %q", p.peek().text)
		}
		p.next()
		return inner, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (node, error) {
	lhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	if p.acceptWord("in") {
		return p.parseInList(lhs)
	}

	t := p.peek()
	if t.kind != tokOp || t.text == "!" {
		return nil, fmt.Errorf("expected comparison operator, got %q", t.text)
	}
	p.next()
	rhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &binaryNode{op: t.text, lhs: lhs, rhs: rhs}, nil
}

func (p *parser) parseInList(lhs operand) (node, error) {
	if p.peek().kind != tokLParen {
		return nil, fmt.Errorf("expected '(' after 'in', got %q", p.peek().text)
	}
	p.next()

	var values []string
	for {
		t := p.next()
		if t.kind != tokString && t.kind != tokNumber {
			return nil, fmt.Errorf("expected literal in 'in' list, got %q", t.text)
		}
		values = append(values, t.text)

		t = p.next()
		if t.kind == tokRParen {
			break
		}
		if t.kind != tokComma {
			return nil, fmt.Errorf("expected ',' or ')' in 'in' list, got %q", t.text)
		}
	}
	return &inNode{lhs: lhs, values: values}, nil
}

func (p *parser) parseOperand() (operand, error) {
	t := p.next()
	switch t.kind {
	case tokIdent:
		switch t.text {
		case "and", "or", "not", "in":
			return operand{}, fmt.Errorf("unexpected keyword %q", t.text)
		}
		return operand{attr: t.text}, nil
	case tokString, tokNumber:
		return operand{lit: t.text, literal: true}, nil
	default:
		return operand{}, fmt.Errorf("expected operand, got %q", t.text)
	}
}
