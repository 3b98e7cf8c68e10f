// Package expr parses and evaluates single-variable mathematical
// expressions over a closed grammar: numbers, the variable x, the constants
// pi and e, the operators + - * / and ** (^ is an alias), parentheses, and
// calls to sin, cos, tan, exp, log, log10, sqrt and abs. Expressions are
// compiled to a small AST and evaluated by walking it; no user input is ever
// executed.
//
// The package also produces symbolic derivatives, so callers get an
// analytic f' for Newton's method without finite differences.
package expr

import "fmt"

// ParseError reports a syntax or validation failure, with the 1-based
// column it was detected at.
type ParseError struct {
	Pos Pos
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at column %d: %s", e.Pos, e.Msg)
}

func parseErrorf(pos Pos, format string, args ...any) error {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

const (
	// maxSourceLen bounds the accepted expression size.
	maxSourceLen = 4096
	// maxDepth bounds recursion for nested and unary-chained input.
	maxDepth = 64
)

// Parse compiles src into an evaluable expression tree. Unknown
// identifiers, unknown functions, wrong arities, trailing input, over-long
// and over-nested sources all fail with a *ParseError.
func Parse(src string) (Expr, error) {
	if len(src) > maxSourceLen {
		return nil, parseErrorf(1, "expression longer than %d bytes", maxSourceLen)
	}
	p := &parser{sc: scanner{src: src}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, parseErrorf(p.tok.pos, "unexpected %s after expression", describe(p.tok))
	}
	return e, nil
}

type parser struct {
	sc    scanner
	tok   token
	depth int
}

func (p *parser) advance() error {
	tok, err := p.sc.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return parseErrorf(p.tok.pos, "expression nested deeper than %d levels", maxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// parseExpr handles the additive level: term (('+'|'-') term)*.
func (p *parser) parseExpr() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokPlus || p.tok.kind == tokMinus {
		op := p.tok.kind
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if op == tokPlus {
			left = add{left, right}
		} else {
			left = sub{left, right}
		}
	}
	return left, nil
}

// parseTerm handles the multiplicative level: unary (('*'|'/') unary)*.
func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokStar || p.tok.kind == tokSlash {
		op := p.tok.kind
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op == tokStar {
			left = mul{left, right}
		} else {
			left = div{left, right}
		}
	}
	return left, nil
}

// parseUnary handles prefix signs. Power binds tighter on its left, so
// -x**2 parses as -(x**2), matching Python.
func (p *parser) parseUnary() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	switch p.tok.kind {
	case tokMinus:
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return neg{operand}, nil
	case tokPlus:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseUnary()
	}
	return p.parsePower()
}

// parsePower handles the right-associative exponent: primary ('**' unary)?.
// The right operand re-enters unary so 2**-3 stays legal.
func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokPow {
		return base, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	exponent, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return pow{base, exponent}, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.tok.kind {
	case tokNumber:
		e := num{p.tok.val}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return e, nil

	case tokIdent:
		name, pos := p.tok.text, p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind == tokLParen {
			if !knownFunc(name) {
				return nil, parseErrorf(pos, "unknown function %q", name)
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.tok.kind != tokRParen {
				return nil, parseErrorf(p.tok.pos, "expected ')' to close %s(, got %s", name, describe(p.tok))
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			return call{name: name, arg: arg}, nil
		}
		switch name {
		case "x":
			return variable{}, nil
		case "pi":
			return constant{name: "pi", val: pi}, nil
		case "e":
			return constant{name: "e", val: eulerE}, nil
		}
		if knownFunc(name) {
			return nil, parseErrorf(pos, "%s is a function and needs an argument, like %s(x)", name, name)
		}
		return nil, parseErrorf(pos, "unknown identifier %q (the variable is x)", name)

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, parseErrorf(p.tok.pos, "expected ')', got %s", describe(p.tok))
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, parseErrorf(p.tok.pos, "expected a number, x or a function, got %s", describe(p.tok))
}
