/*
Copyright 2025 Prism Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEmptyQuery reports an input with no statement in it
var ErrEmptyQuery = errors.New("empty query")

// Parser builds a Query from a token stream
type Parser struct {
	lex *Lexer
	tok Token
}

// Parse parses one SELECT statement of the supported subset:
//
//	SELECT expr [, expr]... FROM table
//	  [WHERE expr]
//	  [ORDER BY column [ASC|DESC]]
//	  [LIMIT n [OFFSET m]]
//
// Aggregate calls COUNT(expr) and SUM(expr) may appear in the select list;
// when present, the remaining select expressions form the grouping key.
// A query without LIMIT gets DefaultLimit.
func Parse(input string) (*Query, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyQuery
	}
	p := &Parser{lex: NewLexer(input)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	q, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	if p.isSymbol(";") {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.tok.Type != TokenEOF {
		return nil, fmt.Errorf("unexpected input %q at position %d", p.tok.Text, p.tok.Pos)
	}
	return q, nil
}

func (p *Parser) parseSelect() (*Query, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	q := &Query{OrderByIndex: -1, Limit: LimitClause{Limit: DefaultLimit}}
	for {
		if err := p.parseSelectItem(q); err != nil {
			return nil, err
		}
		if !p.isSymbol(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	if p.tok.Type != TokenIdent {
		return nil, fmt.Errorf("expected table name at position %d", p.tok.Pos)
	}
	q.Table = p.tok.Text
	if err := p.advance(); err != nil {
		return nil, err
	}

	if p.isKeyword("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		filter, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		q.Filter = filter
	}

	if p.isKeyword("ORDER") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		if p.tok.Type != TokenIdent {
			return nil, fmt.Errorf("expected column name after ORDER BY at position %d", p.tok.Pos)
		}
		q.OrderBy = p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isKeyword("DESC") {
			q.OrderDesc = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else if p.isKeyword("ASC") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}

	if p.isKeyword("LIMIT") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		limit, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		q.Limit.Limit = limit
		if p.isKeyword("OFFSET") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			offset, err := p.parseInt()
			if err != nil {
				return nil, err
			}
			q.Limit.Offset = offset
		}
	}

	if q.OrderBy != "" {
		if len(q.Aggregate) > 0 {
			return nil, errors.New("ORDER BY is not supported with aggregates")
		}
		for i, expr := range q.Select {
			if ref, ok := expr.(*ColRef); ok && ref.Name == q.OrderBy {
				q.OrderByIndex = i
				break
			}
		}
		if q.OrderByIndex < 0 {
			return nil, fmt.Errorf("ORDER BY column %q must appear in the select list", q.OrderBy)
		}
	}
	return q, nil
}

func (p *Parser) parseSelectItem(q *Query) error {
	if p.tok.Type == TokenIdent {
		var agg Aggregator
		isAgg := true
		switch {
		case strings.EqualFold(p.tok.Text, "COUNT"):
			agg = AggCount
		case strings.EqualFold(p.tok.Text, "SUM"):
			agg = AggSum
		default:
			isAgg = false
		}
		if isAgg {
			if err := p.advance(); err != nil {
				return err
			}
			if err := p.expectSymbol("("); err != nil {
				return err
			}
			expr, err := p.parseExpr()
			if err != nil {
				return err
			}
			if err := p.expectSymbol(")"); err != nil {
				return err
			}
			q.Aggregate = append(q.Aggregate, AggExpr{Agg: agg, Expr: expr})
			return nil
		}
	}
	expr, err := p.parseExpr()
	if err != nil {
		return err
	}
	q.Select = append(q.Select, expr)
	return nil
}

func (p *Parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.isKeyword("NOT") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Expr: inner}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]BinaryOp{
	"=": OpEq, "<>": OpNe, "!=": OpNe,
	"<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe,
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.tok.Type == TokenSymbol {
		if op, ok := comparisonOps[p.tok.Text]; ok {
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			return &BinaryExpr{Op: op, Left: left, Right: right}, nil
		}
	}
	return left, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	switch {
	case p.tok.Type == TokenNumber:
		n, err := strconv.ParseInt(p.tok.Text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer literal %q: %w", p.tok.Text, err)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &IntLit{Value: n}, nil

	case p.isSymbol("-"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Type != TokenNumber {
			return nil, fmt.Errorf("expected number after '-' at position %d", p.tok.Pos)
		}
		n, err := strconv.ParseInt(p.tok.Text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer literal %q: %w", p.tok.Text, err)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &IntLit{Value: -n}, nil

	case p.tok.Type == TokenString:
		s := p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &StrLit{Value: s}, nil

	case p.isSymbol("*"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ColRef{Name: "*"}, nil

	case p.isSymbol("("):
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return inner, nil

	case p.tok.Type == TokenIdent:
		name := p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ColRef{Name: name}, nil
	}
	return nil, fmt.Errorf("unexpected token %q at position %d", p.tok.Text, p.tok.Pos)
}

func (p *Parser) parseInt() (int64, error) {
	if p.tok.Type != TokenNumber {
		return 0, fmt.Errorf("expected number at position %d", p.tok.Pos)
	}
	n, err := strconv.ParseInt(p.tok.Text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", p.tok.Text, err)
	}
	if err := p.advance(); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) isKeyword(kw string) bool {
	return p.tok.Type == TokenIdent && strings.EqualFold(p.tok.Text, kw)
}

func (p *Parser) isSymbol(sym string) bool {
	return p.tok.Type == TokenSymbol && p.tok.Text == sym
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return fmt.Errorf("expected %s at position %d, got %q", kw, p.tok.Pos, p.tok.Text)
	}
	return p.advance()
}

func (p *Parser) expectSymbol(sym string) error {
	if !p.isSymbol(sym) {
		return fmt.Errorf("expected %q at position %d, got %q", sym, p.tok.Pos, p.tok.Text)
	}
	return p.advance()
}
