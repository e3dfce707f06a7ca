package expr

import (
	"fmt"
	"strconv"

	"github.com/weftui/weft/internal/lexer"
)

// Parse parses an expression source string. pos is the position of the
// expression within the enclosing template and anchors error reporting.
func Parse(src string, pos lexer.Position) (*Expr, error) {
	toks, err := scanExpr(src, pos)
	if err != nil {
		return nil, err
	}
	p := &exprParser{toks: toks, pos: pos}
	e, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, syntaxErrorf(pos, "unexpected %q in expression %q", p.peek().text, src)
	}
	return e, nil
}

type exprTokKind int

const (
	tokEOF exprTokKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString
	tokOp     // one of the operator strings
	tokLParen // (
	tokRParen // )
	tokLBrack // [
	tokRBrack // ]
	tokDot    // .
)

type exprTok struct {
	kind exprTokKind
	text string
}

func scanExpr(src string, pos lexer.Position) ([]exprTok, error) {
	var toks []exprTok
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentChar(src[i]) {
				i++
			}
			toks = append(toks, exprTok{tokIdent, src[start:i]})
		case c >= '0' && c <= '9':
			start := i
			kind := tokInt
			for i < len(src) && (src[i] >= '0' && src[i] <= '9') {
				i++
			}
			if i < len(src) && src[i] == '.' && i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9' {
				kind = tokFloat
				i++
				for i < len(src) && (src[i] >= '0' && src[i] <= '9') {
					i++
				}
			}
			toks = append(toks, exprTok{kind, src[start:i]})
		case c == '\'' || c == '"':
			quote := c
			i++
			start := i
			for i < len(src) && src[i] != quote {
				i++
			}
			if i == len(src) {
				return nil, syntaxErrorf(pos, "unterminated string in expression %q", src)
			}
			toks = append(toks, exprTok{tokString, src[start:i]})
			i++
		case c == '(':
			toks = append(toks, exprTok{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, exprTok{tokRParen, ")"})
			i++
		case c == '[':
			toks = append(toks, exprTok{tokLBrack, "["})
			i++
		case c == ']':
			toks = append(toks, exprTok{tokRBrack, "]"})
			i++
		case c == '.':
			toks = append(toks, exprTok{tokDot, "."})
			i++
		default:
			// Multi-character operators first.
			two := ""
			if i+1 < len(src) {
				two = src[i : i+2]
			}
			switch two {
			case "==", "!=", "<=", ">=", "&&", "||":
				toks = append(toks, exprTok{tokOp, two})
				i += 2
				continue
			}
			switch c {
			case '+', '-', '*', '/', '%', '<', '>', '!':
				toks = append(toks, exprTok{tokOp, string(c)})
				i++
			default:
				return nil, syntaxErrorf(pos, "unexpected character %q in expression %q", string(c), src)
			}
		}
	}
	toks = append(toks, exprTok{kind: tokEOF})
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

type exprParser struct {
	toks []exprTok
	i    int
	pos  lexer.Position
}

func (p *exprParser) peek() exprTok { return p.toks[p.i] }

func (p *exprParser) next() exprTok {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

// binaryOps maps operator text to its op and binding power.
var binaryOps = map[string]struct {
	op   op
	prec int
}{
	"||": {opOr, 1},
	"&&": {opAnd, 2},
	"==": {opEq, 3},
	"!=": {opNe, 3},
	"<":  {opLt, 4},
	"<=": {opLe, 4},
	">":  {opGt, 4},
	">=": {opGe, 4},
	"+":  {opAdd, 5},
	"-":  {opSub, 5},
	"*":  {opMul, 6},
	"/":  {opDiv, 6},
	"%":  {opMod, 6},
}

func (p *exprParser) parseBinary(minPrec int) (*Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp {
			return left, nil
		}
		info, ok := binaryOps[t.text]
		if !ok || info.prec < minPrec {
			return left, nil
		}
		p.next()
		right, err := p.parseBinary(info.prec + 1)
		if err != nil {
			return nil, err
		}
		left = &Expr{op: info.op, left: left, right: right, pos: p.pos}
	}
}

func (p *exprParser) parseUnary() (*Expr, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "!" || t.text == "-") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		o := opNot
		if t.text == "-" {
			o = opNeg
		}
		return &Expr{op: o, left: operand, pos: p.pos}, nil
	}
	return p.parsePostfix()
}

func (p *exprParser) parsePostfix() (*Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().kind {
		case tokDot:
			p.next()
			name := p.next()
			if name.kind != tokIdent {
				return nil, syntaxErrorf(p.pos, "expected field name after '.'")
			}
			e = &Expr{op: opField, left: e, name: name.text, pos: p.pos}
		case tokLBrack:
			p.next()
			idx, err := p.parseBinary(0)
			if err != nil {
				return nil, err
			}
			if p.next().kind != tokRBrack {
				return nil, syntaxErrorf(p.pos, "missing ']' in expression")
			}
			e = &Expr{op: opIndex, left: e, right: idx, pos: p.pos}
		default:
			return e, nil
		}
	}
}

func (p *exprParser) parsePrimary() (*Expr, error) {
	t := p.next()
	switch t.kind {
	case tokIdent:
		switch t.text {
		case "true":
			return &Expr{op: opLit, lit: true, pos: p.pos}, nil
		case "false":
			return &Expr{op: opLit, lit: false, pos: p.pos}, nil
		}
		return &Expr{op: opIdent, name: t.text, pos: p.pos}, nil
	case tokInt:
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, syntaxErrorf(p.pos, "bad integer literal %q", t.text)
		}
		return &Expr{op: opLit, lit: n, pos: p.pos}, nil
	case tokFloat:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, syntaxErrorf(p.pos, "bad float literal %q", t.text)
		}
		return &Expr{op: opLit, lit: f, pos: p.pos}, nil
	case tokString:
		return &Expr{op: opLit, lit: t.text, pos: p.pos}, nil
	case tokLParen:
		e, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, syntaxErrorf(p.pos, "missing ')' in expression")
		}
		return e, nil
	case tokEOF:
		return nil, syntaxErrorf(p.pos, "empty expression")
	}
	return nil, syntaxErrorf(p.pos, "unexpected %q in expression", t.text)
}

func syntaxErrorf(pos lexer.Position, format string, args ...interface{}) error {
	return &lexer.SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
