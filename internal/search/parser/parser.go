// Package parser turns boolean query text such as
// "free AND (social OR hiking) AND NOT online" into an expression tree.
// Terms are expected to be already normalized by the external tokenization
// pipeline; the parser only recognises the AND/OR/NOT operators and
// parentheses.
package parser

import (
	"net/http"
	"strings"

	"github.com/Harryjl046/eventsearch/internal/search/booleval"
	apperrors "github.com/Harryjl046/eventsearch/pkg/errors"
)

// Parse builds a booleval expression from query text. Adjacent terms with no
// operator are treated as an implicit AND.
func Parse(query string) (booleval.Expr, error) {
	toks := tokenize(query)
	if len(toks) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "empty query")
	}
	p := &parser{toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"unexpected token %q", p.toks[p.pos])
	}
	return expr, nil
}

func tokenize(query string) []string {
	query = strings.ReplaceAll(query, "(", " ( ")
	query = strings.ReplaceAll(query, ")", " ) ")
	return strings.Fields(query)
}

type parser struct {
	toks []string
	pos  int
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.toks) {
		return "", false
	}
	return p.toks[p.pos], true
}

func (p *parser) parseOr() (booleval.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	operands := []booleval.Expr{left}
	for {
		tok, ok := p.peek()
		if !ok || !strings.EqualFold(tok, "OR") {
			break
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
	}
	if len(operands) == 1 {
		return left, nil
	}
	return &booleval.Or{Operands: operands}, nil
}

func (p *parser) parseAnd() (booleval.Expr, error) {
	node := &booleval.And{}
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	node.Operands = append(node.Operands, first)
	for {
		tok, ok := p.peek()
		if !ok || tok == ")" || strings.EqualFold(tok, "OR") {
			break
		}
		negated := false
		if strings.EqualFold(tok, "AND") {
			p.pos++
			tok, ok = p.peek()
			if !ok {
				return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
					"query ends after AND")
			}
		}
		if strings.EqualFold(tok, "NOT") {
			p.pos++
			negated = true
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if negated {
			node.Excludes = append(node.Excludes, operand)
		} else {
			node.Operands = append(node.Operands, operand)
		}
	}
	if len(node.Operands) == 1 && len(node.Excludes) == 0 {
		return node.Operands[0], nil
	}
	return node, nil
}

func (p *parser) parseUnary() (booleval.Expr, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"unexpected end of query")
	}
	switch {
	case tok == "(":
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.peek()
		if !ok || closing != ")" {
			return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
				"missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	case tok == ")":
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"unexpected closing parenthesis")
	case strings.EqualFold(tok, "AND"), strings.EqualFold(tok, "OR"), strings.EqualFold(tok, "NOT"):
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"operator %q without operand", tok)
	default:
		p.pos++
		return booleval.Term(tok), nil
	}
}
