package mathexpr

import (
	"math"
	"strconv"
	"strings"
)

// Evaluate extracts an arithmetic expression from free-form text and
// computes it. The second return is false when no acceptable expression
// was found; callers treat that as "no math intent", not an error.
//
// Everything outside an explicit allow-list is rejected: characters,
// operators, names. The evaluator is a tree walk over our own parse
// tree; it never hands input to any general-purpose interpreter.
func Evaluate(text string) (string, bool) {
	expr, ok := Extract(text)
	if !ok {
		return "", false
	}
	v, ok := evalString(expr)
	if !ok {
		return "", false
	}
	return formatResult(v), true
}

// fillers are phrasings wrapped around the actual expression; stripping
// them keeps the allowed-character scan from tripping on ordinary words.
var fillers = []string{
	"sa bejne", "sa bëjnë", "sa eshte", "sa është", "sa ben", "sa bën",
	"how much is", "what is", "equals", "llogarit", "calculate", "?", "=",
}

const allowedChars = "0123456789.,+-*/%()^ "

// Extract returns the digit-bearing candidate expression from text,
// normalized (comma to period, trimmed). Any character outside the
// allow-list anywhere in the stripped text rejects the whole input;
// partial extraction around forbidden tokens is exactly the hole a
// sandbox must not have.
func Extract(text string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	for _, f := range fillers {
		s = strings.ReplaceAll(s, f, " ")
	}
	for _, r := range s {
		if !strings.ContainsRune(allowedChars, r) && !(r >= 'a' && r <= 'z') {
			return "", false
		}
	}

	best := strings.TrimSpace(s)
	if !strings.ContainsAny(best, "0123456789") {
		return "", false
	}
	best = strings.ReplaceAll(best, ",", ".")
	// A bare number is not an arithmetic request.
	if !strings.ContainsAny(best, "+-*/%^") {
		return "", false
	}
	return best, true
}

func evalString(expr string) (float64, bool) {
	if len(expr) > 200 {
		return 0, false
	}
	toks, ok := tokenize(expr)
	if !ok || len(toks) == 0 {
		return 0, false
	}
	p := &parser{toks: toks}
	v, ok := p.parseExpr(0)
	if !ok || p.pos != len(p.toks) {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func formatResult(v float64) string {
	r := math.Round(v)
	if math.Abs(v-r) < 1e-12 {
		return strconv.FormatFloat(r, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ---- Tokenizer ----

type tokKind int

const (
	tokNumber tokKind = iota
	tokName
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokSlashSlash
	tokPercent
	tokPow
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	num  float64
	name string
}

var allowedNames = map[string]bool{
	"pi": true, "e": true,
	"sqrt": true, "abs": true, "round": true,
}

func tokenize(s string) ([]token, bool) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ':
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			dots := 0
			for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
				if s[j] == '.' {
					dots++
				}
				j++
			}
			if dots > 1 {
				return nil, false
			}
			n, err := strconv.ParseFloat(s[i:j], 64)
			if err != nil {
				return nil, false
			}
			toks = append(toks, token{kind: tokNumber, num: n})
			i = j
		case c >= 'a' && c <= 'z':
			j := i
			for j < len(s) && s[j] >= 'a' && s[j] <= 'z' {
				j++
			}
			name := s[i:j]
			if !allowedNames[name] {
				return nil, false
			}
			toks = append(toks, token{kind: tokName, name: name})
			i = j
		case c == '+':
			toks = append(toks, token{kind: tokPlus})
			i++
		case c == '-':
			toks = append(toks, token{kind: tokMinus})
			i++
		case c == '*':
			if i+1 < len(s) && s[i+1] == '*' {
				toks = append(toks, token{kind: tokPow})
				i += 2
			} else {
				toks = append(toks, token{kind: tokStar})
				i++
			}
		case c == '/':
			if i+1 < len(s) && s[i+1] == '/' {
				toks = append(toks, token{kind: tokSlashSlash})
				i += 2
			} else {
				toks = append(toks, token{kind: tokSlash})
				i++
			}
		case c == '%':
			toks = append(toks, token{kind: tokPercent})
			i++
		case c == '^':
			toks = append(toks, token{kind: tokPow})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen})
			i++
		default:
			return nil, false
		}
	}
	if len(toks) > 64 {
		return nil, false
	}
	return toks, true
}

// ---- Parser / evaluator ----

type parser struct {
	toks  []token
	pos   int
	depth int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

const maxDepth = 32

func (p *parser) parseExpr(depth int) (float64, bool) {
	if depth > maxDepth {
		return 0, false
	}
	left, ok := p.parseTerm(depth + 1)
	if !ok {
		return 0, false
	}
	for {
		t, ok := p.peek()
		if !ok || (t.kind != tokPlus && t.kind != tokMinus) {
			return left, true
		}
		p.pos++
		right, ok := p.parseTerm(depth + 1)
		if !ok {
			return 0, false
		}
		if t.kind == tokPlus {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) parseTerm(depth int) (float64, bool) {
	if depth > maxDepth {
		return 0, false
	}
	left, ok := p.parseUnary(depth + 1)
	if !ok {
		return 0, false
	}
	for {
		t, ok := p.peek()
		if !ok {
			return left, true
		}
		switch t.kind {
		case tokStar, tokSlash, tokSlashSlash, tokPercent:
			p.pos++
			right, rok := p.parseUnary(depth + 1)
			if !rok {
				return 0, false
			}
			switch t.kind {
			case tokStar:
				left *= right
			case tokSlash:
				if right == 0 {
					return 0, false
				}
				left /= right
			case tokSlashSlash:
				if right == 0 {
					return 0, false
				}
				left = math.Floor(left / right)
			case tokPercent:
				if right == 0 {
					return 0, false
				}
				left = math.Mod(left, right)
			}
		default:
			return left, true
		}
	}
}

func (p *parser) parseUnary(depth int) (float64, bool) {
	if depth > maxDepth {
		return 0, false
	}
	t, ok := p.peek()
	if !ok {
		return 0, false
	}
	if t.kind == tokPlus || t.kind == tokMinus {
		p.pos++
		v, vok := p.parseUnary(depth + 1)
		if !vok {
			return 0, false
		}
		if t.kind == tokMinus {
			return -v, true
		}
		return v, true
	}
	return p.parsePower(depth + 1)
}

func (p *parser) parsePower(depth int) (float64, bool) {
	if depth > maxDepth {
		return 0, false
	}
	base, ok := p.parseAtom(depth + 1)
	if !ok {
		return 0, false
	}
	if t, tok := p.peek(); tok && t.kind == tokPow {
		p.pos++
		// Right-associative; exponent may carry its own sign.
		exp, eok := p.parseUnary(depth + 1)
		if !eok {
			return 0, false
		}
		return math.Pow(base, exp), true
	}
	return base, true
}

func (p *parser) parseAtom(depth int) (float64, bool) {
	if depth > maxDepth {
		return 0, false
	}
	t, ok := p.peek()
	if !ok {
		return 0, false
	}
	switch t.kind {
	case tokNumber:
		p.pos++
		return t.num, true
	case tokLParen:
		p.pos++
		v, vok := p.parseExpr(depth + 1)
		if !vok {
			return 0, false
		}
		if nt, nok := p.peek(); !nok || nt.kind != tokRParen {
			return 0, false
		}
		p.pos++
		return v, true
	case tokName:
		p.pos++
		switch t.name {
		case "pi":
			return math.Pi, true
		case "e":
			return math.E, true
		}
		// Function call: name must be followed by a parenthesized argument.
		nt, nok := p.peek()
		if !nok || nt.kind != tokLParen {
			return 0, false
		}
		p.pos++
		arg, aok := p.parseExpr(depth + 1)
		if !aok {
			return 0, false
		}
		if ct, cok := p.peek(); !cok || ct.kind != tokRParen {
			return 0, false
		}
		p.pos++
		switch t.name {
		case "sqrt":
			if arg < 0 {
				return 0, false
			}
			return math.Sqrt(arg), true
		case "abs":
			return math.Abs(arg), true
		case "round":
			return math.Round(arg), true
		}
		return 0, false
	default:
		return 0, false
	}
}
