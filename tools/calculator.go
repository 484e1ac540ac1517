package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

const (
	calculatorBlocked     = "Blocked: only numbers and + - * / ( ) allowed."
	calculatorErrorPrefix = "Calculator error: "
)

var calculatorAllowed = regexp.MustCompile(`^[\d()+\-*/.\s]+$`)

// CalculatorTool evaluates plain arithmetic with float semantics.
type CalculatorTool struct{}

// Def returns the tool definition.
func (t *CalculatorTool) Def() Def {
	return Def{
		Name:        "calculator",
		Description: "Evaluate an arithmetic expression using numbers, + - * / ** // and parentheses.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"expression": stringParam("The expression to evaluate, for example (2+3)*4."),
			},
			"required": []string{"expression"},
		},
	}
}

type calculatorArgs struct {
	Expression string `json:"expression"`
}

// Run executes the tool.
func (t *CalculatorTool) Run(ctx context.Context, args json.RawMessage) (string, error) {
	var a calculatorArgs
	if err := parseArgs(args, &a); err != nil {
		return "", err
	}
	return Calculate(ctx, a.Expression), nil
}

// Calculate evaluates expr and returns the result or a message explaining
// why it could not. "**" is exponentiation and "//" floor division.
func Calculate(ctx context.Context, expr string) string {
	if !calculatorAllowed.MatchString(expr) {
		return calculatorBlocked
	}
	src, err := translateExpr(expr)
	if err != nil {
		return calculatorErrorPrefix + err.Error()
	}

	i := interp.New(interp.Options{})
	if strings.Contains(src, "math.") {
		if err := i.Use(stdlib.Symbols); err != nil {
			return calculatorErrorPrefix + err.Error()
		}
		if _, err := i.EvalWithContext(ctx, `import "math"`); err != nil {
			return calculatorErrorPrefix + trimPosition(err.Error())
		}
	}
	v, err := i.EvalWithContext(ctx, "float64("+src+")")
	if err != nil {
		msg := trimPosition(err.Error())
		if strings.Contains(msg, "division by zero") {
			msg = "division by zero"
		}
		return calculatorErrorPrefix + msg
	}
	f := v.Float()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return calculatorErrorPrefix + "division by zero"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var errCalcSyntax = errors.New("invalid syntax")

// translateExpr parses expr with Python operator precedence and returns an
// equivalent Go expression over float constants.
func translateExpr(expr string) (string, error) {
	toks, err := calcTokens(expr)
	if err != nil {
		return "", err
	}
	p := &calcParser{toks: toks}
	out, err := p.sum()
	if err != nil {
		return "", err
	}
	if p.pos != len(p.toks) {
		return "", errCalcSyntax
	}
	return out, nil
}

func calcTokens(expr string) ([]string, error) {
	var toks []string
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f':
			i++
		case isNumberByte(c):
			j := i
			for j < len(expr) && isNumberByte(expr[j]) {
				j++
			}
			lit := expr[i:j]
			if _, err := strconv.ParseFloat(lit, 64); err != nil || lit == "." {
				return nil, fmt.Errorf("invalid number %q", lit)
			}
			toks = append(toks, floatLiteral(lit))
			i = j
		case (c == '*' || c == '/') && i+1 < len(expr) && expr[i+1] == c:
			toks = append(toks, expr[i:i+2])
			i += 2
		default:
			toks = append(toks, string(c))
			i++
		}
	}
	return toks, nil
}

// floatLiteral rewrites an integer literal as a float literal ("7" -> "7.")
// so that division is never truncated.
func floatLiteral(lit string) string {
	if strings.Contains(lit, ".") {
		return lit
	}
	return lit + "."
}

func isNumberByte(c byte) bool {
	return c == '.' || ('0' <= c && c <= '9')
}

type calcParser struct {
	toks []string
	pos  int
}

func (p *calcParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *calcParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *calcParser) sum() (string, error) {
	l, err := p.product()
	if err != nil {
		return "", err
	}
	for op := p.peek(); op == "+" || op == "-"; op = p.peek() {
		p.next()
		r, err := p.product()
		if err != nil {
			return "", err
		}
		l = "(" + l + op + r + ")"
	}
	return l, nil
}

func (p *calcParser) product() (string, error) {
	l, err := p.unary()
	if err != nil {
		return "", err
	}
	for op := p.peek(); op == "*" || op == "/" || op == "//"; op = p.peek() {
		p.next()
		r, err := p.unary()
		if err != nil {
			return "", err
		}
		if op == "//" {
			l = "math.Floor(" + l + "/" + r + ")"
		} else {
			l = "(" + l + op + r + ")"
		}
	}
	return l, nil
}

// unary binds looser than "**", so -2**2 is -(2**2).
func (p *calcParser) unary() (string, error) {
	if op := p.peek(); op == "+" || op == "-" {
		p.next()
		u, err := p.unary()
		if err != nil {
			return "", err
		}
		return "(" + op + u + ")", nil
	}
	return p.power()
}

// power is right associative; its exponent may carry a sign.
func (p *calcParser) power() (string, error) {
	base, err := p.atom()
	if err != nil {
		return "", err
	}
	if p.peek() != "**" {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return "", err
	}
	return "math.Pow(" + base + ", " + exp + ")", nil
}

func (p *calcParser) atom() (string, error) {
	t := p.next()
	switch {
	case t == "(":
		inner, err := p.sum()
		if err != nil {
			return "", err
		}
		if p.next() != ")" {
			return "", errCalcSyntax
		}
		return "(" + inner + ")", nil
	case t != "" && isNumberByte(t[0]):
		return t, nil
	}
	return "", errCalcSyntax
}

// trimPosition drops the "file.go:line:col: " prefix the interpreter puts on
// errors.
func trimPosition(msg string) string {
	if head, rest, ok := strings.Cut(msg, ":"); ok && strings.HasSuffix(head, ".go") {
		msg = strings.TrimSpace(rest)
	}
	for range 2 {
		head, rest, ok := strings.Cut(msg, ":")
		if !ok {
			return msg
		}
		if _, err := strconv.Atoi(head); err != nil {
			return msg
		}
		msg = strings.TrimSpace(rest)
	}
	return msg
}
