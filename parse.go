package fpsem

import (
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Expr = num | name | Call | Neg | Plus | Add | Sub | Mul | Div | Pow | '(' Expr ')' | '[' Expr ']' | '{' Expr '}'
// Call = funcname '(' Expr { ',' Expr } ')'
// Neg = '-' Expr
// Plus = '+' Expr
// Add = Expr '+' Expr
// Sub = Expr '-' Expr
// Mul = Expr '*' Expr | Expr '×' Expr
// Div = Expr '/' Expr | Expr '÷' Expr
// Pow = Expr '^' Expr
//
// The function set is fixed: the unary operator names, min, max, pow,
// fma, floor_power2, the rounding operators rnd16/rnd32/rnd64/rnd128,
// and no_rnd. Unknown identifiers are variables.

// Parse parses an expression so it can be simplified and evaluated.
func Parse(src io.RuneScanner) (Expr, error) {
	scan := lex(src)
	n, err := parseterm(scan, exprprec)
	if err != nil {
		return nil, err
	}
	tok := scan.must()
	if n == nil {
		return nil, itShouldNotHaveEndedThisWay(tok, -1)
	}
	if tok.kind != tokenEOF {
		return nil, itShouldNotHaveEndedThisWay(tok, -1)
	}
	return n, nil
}

// ParseString is a shortcut to parse an expression from a string.
func ParseString(src string) (Expr, error) {
	return Parse(strings.NewReader(src))
}

// parseterm parses a single term. If there is no error, then parseterm pushes
// the last token it scans, including EOF. If the input is an empty
// subexpression, the result is nil with no error; callers must create an
// error in contexts where empty subexpressions are illegal.
func parseterm(scan *lexer, until operator) (Expr, error) {
	n, err := parselhs(scan, until)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	for {
		tok, err := scan.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenOp:
			prec, ok := binop(tok.text)
			if !ok {
				return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: false}
			}
			if !prec.moreBinding(until) {
				scan.push(tok)
				return n, nil
			}
			rhs, err := parseterm(scan, prec)
			if err != nil {
				return nil, err
			}
			if rhs == nil {
				end := scan.must()
				return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
			}
			n = &BinaryExpr{Op: prec.op, X: n, Y: rhs}
		case tokenClose, tokenSep, tokenEOF:
			// End of expression.
			scan.push(tok)
			return n, nil
		default:
			// A term directly following a term. This grammar has no
			// implicit multiplication, so an operator is missing.
			return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: false}
		}
	}
}

// parselhs parses the first component of a term. I.e., operators are unary,
// and any encountered token must be valid as the start of a subexpression.
func parselhs(scan *lexer, until operator) (Expr, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case tokenNum:
		return numExpr(tok)
	case tokenIdent:
		fn, ok := funcTable[tok.text]
		if !ok {
			return &Variable{Name: tok.text}, nil
		}
		return parsecall(scan, tok.text, fn)
	case tokenOp:
		// Unary operator.
		prec, neg, ok := unop(tok.text)
		if !ok {
			return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: true}
		}
		if !prec.moreBinding(until) {
			// x^-y -> x^(-y)
			// Just use the new operator's precedence to simplify.
			prec.prec, prec.right = until.prec, until.right
		}
		rhs, err := parseterm(scan, prec)
		if err != nil {
			return nil, err
		}
		if rhs == nil {
			end := scan.must()
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		if !neg {
			return rhs, nil
		}
		// Fold negation into rational literals so that -2 is
		// structurally a constant.
		if c, ok := rhs.(*Constant); ok && c.Val != nil {
			return &Constant{Val: new(big.Rat).Neg(c.Val)}, nil
		}
		return &UnaryExpr{Op: OpNeg, X: rhs}, nil
	case tokenOpen:
		match := rightbracket(tok.text)
		rhs, err := parseterm(scan, exprprec)
		if err != nil {
			return nil, err
		}
		end := scan.must()
		if end.kind != tokenClose || end.text != closebrackets[match] {
			return nil, itShouldNotHaveEndedThisWay(end, match)
		}
		if rhs == nil {
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		return rhs, nil
	case tokenClose:
		// Let the caller decide what to do.
		scan.push(tok)
		return nil, nil
	case tokenSep:
		return nil, &SeparatorError{Col: tok.pos, Sep: tok.text}
	case tokenEOF:
		scan.push(tok)
		return nil, nil
	default:
		panic("fpsem: unknown token: " + tok.String())
	}
}

// parsecall parses the bracketed argument list of a call of a fixed
// function and builds its node.
func parsecall(scan *lexer, name string, fn builtin) (Expr, error) {
	tok, err := scan.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokenOpen {
		return nil, &CallError{Col: tok.pos, Func: name, Len: 0}
	}
	match := rightbracket(tok.text)
	var args []Expr
	for {
		rhs, err := parseterm(scan, exprprec)
		if err != nil {
			// Reporting mismatched brackets is more helpful than empty
			// expression, if that's what we'd do here.
			if ee, _ := err.(*EmptyExpressionError); ee != nil {
				err = &BracketError{Col: ee.Col, Left: tok.text}
			}
			return nil, err
		}
		end := scan.must()
		switch end.kind {
		case tokenClose:
			if end.text != closebrackets[match] {
				return nil, &BracketError{Col: end.pos, Left: tok.text, Right: end.text}
			}
			if rhs == nil {
				if len(args) != 0 {
					// f(a,) is not allowed.
					return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
				}
			} else {
				args = append(args, rhs)
			}
			if len(args) != fn.arity {
				return nil, &CallError{Col: end.pos, Func: name, Len: len(args)}
			}
			return fn.build(args), nil
		case tokenSep:
			if rhs == nil {
				return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
			}
			args = append(args, rhs)
		case tokenEOF:
			return nil, &BracketError{Col: end.pos, Left: tok.text, Right: ""}
		default:
			panic("fpsem: parsecall ended on non-end token " + end.String())
		}
	}
}

// numExpr builds the constant node for a number token.
func numExpr(tok lexToken) (Expr, error) {
	switch tok.text {
	case "inf", "Inf", "∞":
		return &Constant{Enc: Interval{math.Inf(1), math.Inf(1)}}, nil
	}
	r, ok := new(big.Rat).SetString(tok.text)
	if !ok {
		return nil, &LexError{Text: tok.text, Kind: "number", Col: tok.pos}
	}
	return &Constant{Val: r}, nil
}

// builtin is a fixed function of the grammar.
type builtin struct {
	arity int
	build func(args []Expr) Expr
}

func unaryFn(op UnaryOp) builtin {
	return builtin{1, func(a []Expr) Expr { return &UnaryExpr{Op: op, X: a[0]} }}
}

func binaryFn(op BinaryOp) builtin {
	return builtin{2, func(a []Expr) Expr { return &BinaryExpr{Op: op, X: a[0], Y: a[1]} }}
}

func rndFn(f Format) builtin {
	return builtin{1, func(a []Expr) Expr { return &Rounded{Rnd: RoundingFor(f, ToNearest), X: a[0]} }}
}

var funcTable = map[string]builtin{
	"abs":          unaryFn(OpAbs),
	"inv":          unaryFn(OpInv),
	"sqrt":         unaryFn(OpSqrt),
	"exp":          unaryFn(OpExp),
	"log":          unaryFn(OpLog),
	"sin":          unaryFn(OpSin),
	"cos":          unaryFn(OpCos),
	"tan":          unaryFn(OpTan),
	"asin":         unaryFn(OpAsin),
	"acos":         unaryFn(OpAcos),
	"atan":         unaryFn(OpAtan),
	"sinh":         unaryFn(OpSinh),
	"cosh":         unaryFn(OpCosh),
	"tanh":         unaryFn(OpTanh),
	"asinh":        unaryFn(OpAsinh),
	"acosh":        unaryFn(OpAcosh),
	"atanh":        unaryFn(OpAtanh),
	"floor_power2": unaryFn(OpFloorPow2),
	"min":          binaryFn(OpMin),
	"max":          binaryFn(OpMax),
	"pow":          binaryFn(OpNatPow),
	"fma": {3, func(a []Expr) Expr {
		return &VariadicExpr{Op: OpFma, Args: []Expr{a[0], a[1], a[2]}}
	}},
	"rnd16":  rndFn(Binary16),
	"rnd32":  rndFn(Binary32),
	"rnd64":  rndFn(Binary64),
	"rnd128": rndFn(Binary128),
	"no_rnd": {1, func(a []Expr) Expr { return &Rounded{Rnd: NoRounding, X: a[0]} }},
}

// rightbracket gets the closing bracket index for an opening bracket.
func rightbracket(left string) int {
	r, sz := utf8.DecodeRuneInString(left)
	k := strings.IndexRune(OpenBrackets, r)
	if k < 0 || sz != len(left) {
		panic("fpsem: invalid bracket " + strconv.Quote(left))
	}
	return k
}

// leftbracket gets the opening bracket matching right. If right is no bracket,
// then the result is the empty string.
func leftbracket(right int) string {
	if right == -1 {
		return ""
	}
	return openbrackets[right]
}

// itShouldNotHaveEndedThisWay returns an error appropriate for an unexpected
// token at the end of a subexpression. match is the bracket rune index that
// the expression should have matched, or -1 if none.
func itShouldNotHaveEndedThisWay(tok lexToken, match int) error {
	switch tok.kind {
	case tokenEOF:
		if match == -1 {
			return &EmptyExpressionError{Col: tok.pos, End: ""}
		}
		// Unexpected EOF implies an open bracket that was not closed.
		return &BracketError{Col: tok.pos, Left: leftbracket(match), Right: ""}
	case tokenClose:
		// A bracket could be the wrong bracket for the opening brace or any
		// bracket at the end of an input.
		return &BracketError{Col: tok.pos, Left: leftbracket(match), Right: tok.text}
	case tokenSep:
		// Separator outside a function call.
		return &SeparatorError{Col: tok.pos, Sep: tok.text}
	default:
		panic("fpsem: it really should not have ended this way: " + tok.String())
	}
}

type operator struct {
	// prec is the precedence value. Lower is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the binary operator to build when this operator is selected.
	op BinaryOp
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for a token string.
func binop(text string) (operator, bool) {
	switch text {
	case "+":
		return operator{1, false, OpAdd}, true
	case "-":
		return operator{1, false, OpSub}, true
	case "*", "×":
		return operator{5, false, OpMul}, true
	case "/", "÷":
		return operator{5, false, OpDiv}, true
	case "^":
		return operator{15, true, OpNatPow}, true
	default:
		return operator{}, false
	}
}

// unop gets a unary operator for a token string. neg reports whether it
// negates.
func unop(text string) (p operator, neg, ok bool) {
	switch text {
	case "+":
		return operator{10, true, 0}, false, true
	case "-":
		return operator{10, true, 0}, true, true
	default:
		return operator{}, false, false
	}
}

var (
	// exprprec is the precedence required to parse an entire subexpression.
	exprprec = operator{prec: -128, right: true}
)
