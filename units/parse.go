package units

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/rmera/goff"
)

type tokKind int

const (
	tNum tokKind = iota
	tName
	tContext
	tMul
	tDiv
	tPow
	tLParen
	tRParen
	tMinus
	tPlus
)

type token struct {
	kind tokKind
	text string
	num  float64
}

func isNameRune(r rune, first bool) bool {
	if unicode.IsLetter(r) || r == '_' || r == 'µ' || r == 'Å' {
		return true
	}
	return !first && unicode.IsDigit(r)
}

func tokenize(expr string) ([]token, error) {
	rs := []rune(expr)
	toks := make([]token, 0, len(rs)/2)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '*':
			if i+1 < len(rs) && rs[i+1] == '*' {
				toks = append(toks, token{kind: tPow, text: "**"})
				i += 2
				continue
			}
			toks = append(toks, token{kind: tMul, text: "*"})
			i++
		case r == '^':
			toks = append(toks, token{kind: tPow, text: "^"})
			i++
		case r == '/':
			toks = append(toks, token{kind: tDiv, text: "/"})
			i++
		case r == '(':
			toks = append(toks, token{kind: tLParen, text: "("})
			i++
		case r == ')':
			toks = append(toks, token{kind: tRParen, text: ")"})
			i++
		case r == '-':
			toks = append(toks, token{kind: tMinus, text: "-"})
			i++
		case r == '+':
			toks = append(toks, token{kind: tPlus, text: "+"})
			i++
		case r == '[':
			end := strings.IndexRune(string(rs[i:]), ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed context in unit expression %q", goff.ErrType, expr)
			}
			ctx := string(rs[i:])[:end+1]
			toks = append(toks, token{kind: tContext, text: strings.ReplaceAll(ctx, " ", "")})
			i += len([]rune(ctx))
		case unicode.IsDigit(r) || r == '.':
			j := i
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.') {
				j++
			}
			//scientific notation, only if a digit (or sign+digit) follows the 'e'
			if j < len(rs) && (rs[j] == 'e' || rs[j] == 'E') {
				k := j + 1
				if k < len(rs) && (rs[k] == '-' || rs[k] == '+') {
					k++
				}
				if k < len(rs) && unicode.IsDigit(rs[k]) {
					j = k
					for j < len(rs) && unicode.IsDigit(rs[j]) {
						j++
					}
				}
			}
			v, err := strconv.ParseFloat(string(rs[i:j]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad number %q in unit expression %q", goff.ErrType, string(rs[i:j]), expr)
			}
			toks = append(toks, token{kind: tNum, text: string(rs[i:j]), num: v})
			i = j
		case isNameRune(r, true):
			j := i
			for j < len(rs) && isNameRune(rs[j], false) {
				j++
			}
			toks = append(toks, token{kind: tName, text: string(rs[i:j])})
			i = j
		default:
			return nil, fmt.Errorf("%w: unexpected character %q in unit expression %q", goff.ErrType, r, expr)
		}
	}
	return toks, nil
}

// a small recursive-descent parser:
//
//	expr   := term (('*'|'/'|implicit) term)*
//	term   := factor (('**'|'^') ['-'|'+'] number)?
//	factor := number | name | context | '(' expr ')'
type parser struct {
	expr  string
	toks  []token
	pos   int
	depth int
}

func newParser(expr string) (*parser, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("%w: empty unit expression", goff.ErrType)
	}
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	return &parser{expr: expr, toks: toks}, nil
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) errorf(format string, a ...any) error {
	return fmt.Errorf("%w: %s in unit expression %q", goff.ErrType, fmt.Sprintf(format, a...), p.expr)
}

func (p *parser) parse() (Quantity, error) {
	q, err := p.expression()
	if err != nil {
		return Quantity{}, err
	}
	if t, ok := p.peek(); ok {
		return Quantity{}, p.errorf("unexpected %q", t.text)
	}
	return q, nil
}

func (p *parser) expression() (Quantity, error) {
	q, err := p.term()
	if err != nil {
		return Quantity{}, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind == tRParen {
			return q, nil
		}
		div := false
		switch t.kind {
		case tMul:
			p.pos++
		case tDiv:
			p.pos++
			div = true
		case tNum, tName, tContext, tLParen:
			//implicit multiplication, as in "kJ mol**-1"
		default:
			return Quantity{}, p.errorf("unexpected %q", t.text)
		}
		o, err := p.term()
		if err != nil {
			return Quantity{}, err
		}
		if div {
			q = q.Div(o)
		} else {
			q = q.Mul(o)
		}
	}
}

func (p *parser) term() (Quantity, error) {
	q, err := p.factor()
	if err != nil {
		return Quantity{}, err
	}
	t, ok := p.peek()
	if !ok || t.kind != tPow {
		return q, nil
	}
	p.pos++
	sign := 1.0
	t, ok = p.peek()
	if ok && (t.kind == tMinus || t.kind == tPlus) {
		if t.kind == tMinus {
			sign = -1
		}
		p.pos++
	}
	t, ok = p.peek()
	if !ok || t.kind != tNum {
		return Quantity{}, p.errorf("exponent must be a number")
	}
	p.pos++
	return q.Pow(sign * t.num), nil
}

func (p *parser) factor() (Quantity, error) {
	t, ok := p.peek()
	if !ok {
		return Quantity{}, p.errorf("unexpected end")
	}
	p.pos++
	switch t.kind {
	case tNum:
		return Quantity{Value: t.num}, nil
	case tName:
		return lookup(t.text)
	case tContext:
		return p.context(t.text)
	case tLParen:
		q, err := p.expression()
		if err != nil {
			return Quantity{}, err
		}
		if c, ok := p.peek(); !ok || c.kind != tRParen {
			return Quantity{}, p.errorf("missing ')'")
		}
		p.pos++
		return q, nil
	}
	return Quantity{}, p.errorf("unexpected %q", t.text)
}

func (p *parser) context(ctx string) (Quantity, error) {
	u, ok := contexts[ctx]
	if !ok {
		return Quantity{}, fmt.Errorf("%w: unknown unit context %s", goff.ErrKey, ctx)
	}
	if p.depth > 8 { //a context that ends up referring to itself
		return Quantity{}, p.errorf("context %s nests too deep", ctx)
	}
	sub, err := newParser(u)
	if err != nil {
		return Quantity{}, err
	}
	sub.depth = p.depth + 1
	return sub.parse()
}
