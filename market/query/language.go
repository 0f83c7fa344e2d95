// Package query implements the filter language of item searches.
//
//	materials = "Clay" && (created >= 1700000000 || name ~ "lamp")
//	$owner = "0x..." && !(id < 10)
//
// String fields are name, description, materials and uri. They support =, !=
// and ~ (case insensitive substring). Numeric fields are id and created (unix
// seconds) and support every comparison. $owner and $artisan compare
// addresses.
package query

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/chennaiartisanal/provenance/market/gateway"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/text/cases"
)

// Define the lexer with distinct tokens for each operator and parentheses.
var lex = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\n\r]+`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "And", Pattern: `&&`},
	{Name: "Or", Pattern: `\|\|`},
	{Name: "Neq", Pattern: `!=`},
	{Name: "Not", Pattern: `!`},
	{Name: "Match", Pattern: `~`},
	{Name: "Geqt", Pattern: `>=`},
	{Name: "Leqt", Pattern: `<=`},
	{Name: "Eq", Pattern: `=`},
	{Name: "Gt", Pattern: `>`},
	{Name: "Lt", Pattern: `<`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	// Meta fields start with $
	{Name: "Owner", Pattern: `\$owner`},
	{Name: "Artisan", Pattern: `\$artisan`},
})

type fieldKind int

const (
	stringField fieldKind = iota
	numberField
)

var fields = map[string]fieldKind{
	"name":        stringField,
	"description": stringField,
	"materials":   stringField,
	"uri":         stringField,
	"id":          numberField,
	"created":     numberField,
}

// Expression is the top-level rule.
type Expression struct {
	Or *OrExpression `parser:"@@"`
}

func (e *Expression) Match(it *gateway.Item) bool {
	return e.Or.Match(it)
}

func (e *Expression) check() error {
	return e.Or.check()
}

// OrExpression handles expressions connected with ||.
type OrExpression struct {
	Left  *AndExpression `parser:"@@"`
	Right []*OrRHS       `parser:"@@*"`
}

func (e *OrExpression) Match(it *gateway.Item) bool {
	if e.Left.Match(it) {
		return true
	}
	for _, rhs := range e.Right {
		if rhs.Expr.Match(it) {
			return true
		}
	}
	return false
}

func (e *OrExpression) check() error {
	if err := e.Left.check(); err != nil {
		return err
	}
	for _, rhs := range e.Right {
		if err := rhs.Expr.check(); err != nil {
			return err
		}
	}
	return nil
}

// OrRHS represents the right-hand side of an OR.
type OrRHS struct {
	Expr *AndExpression `parser:"Or @@"`
}

// AndExpression handles expressions connected with &&.
type AndExpression struct {
	Left  *Term     `parser:"@@"`
	Right []*AndRHS `parser:"@@*"`
}

func (e *AndExpression) Match(it *gateway.Item) bool {
	if !e.Left.Match(it) {
		return false
	}
	for _, rhs := range e.Right {
		if !rhs.Expr.Match(it) {
			return false
		}
	}
	return true
}

func (e *AndExpression) check() error {
	if err := e.Left.check(); err != nil {
		return err
	}
	for _, rhs := range e.Right {
		if err := rhs.Expr.check(); err != nil {
			return err
		}
	}
	return nil
}

// AndRHS represents the right-hand side of an AND.
type AndRHS struct {
	Expr *Term `parser:"And @@"`
}

// Term is an optionally negated EqualExpr.
type Term struct {
	Not  bool       `parser:"@Not?"`
	Expr *EqualExpr `parser:"@@"`
}

func (t *Term) Match(it *gateway.Item) bool {
	return t.Expr.Match(it) != t.Not
}

func (t *Term) check() error {
	return t.Expr.check()
}

// EqualExpr can be either a comparison or a parenthesized expression.
type EqualExpr struct {
	Paren   *Expression `parser:"  \"(\" @@ \")\""`
	Owner   *Ownership  `parser:"| @@"`
	Artisan *Authorship `parser:"| @@"`
	Compare *Comparison `parser:"| @@"`
}

func (e *EqualExpr) Match(it *gateway.Item) bool {
	switch {
	case e.Paren != nil:
		return e.Paren.Match(it)
	case e.Owner != nil:
		return it.Owner == e.Owner.address()
	case e.Artisan != nil:
		return it.Artisan == e.Artisan.address()
	case e.Compare != nil:
		return e.Compare.Match(it)
	}
	panic("This should not happen!")
}

func (e *EqualExpr) check() error {
	switch {
	case e.Paren != nil:
		return e.Paren.check()
	case e.Owner != nil:
		return checkAddress("$owner", e.Owner.Owner)
	case e.Artisan != nil:
		return checkAddress("$artisan", e.Artisan.Artisan)
	case e.Compare != nil:
		return e.Compare.check()
	}
	return nil
}

func checkAddress(field, s string) error {
	if !common.IsHexAddress(s) {
		return fmt.Errorf("%s needs an address, got %q", field, s)
	}
	return nil
}

// Ownership represents an ownership query, $owner = "0x...".
type Ownership struct {
	Owner string `parser:"Owner Eq @String"`
}

func (o *Ownership) address() common.Address {
	return common.HexToAddress(o.Owner)
}

// Authorship represents an artisan query, $artisan = "0x...".
type Authorship struct {
	Artisan string `parser:"Artisan Eq @String"`
}

func (a *Authorship) address() common.Address {
	return common.HexToAddress(a.Artisan)
}

// Comparison compares a field with a literal (e.g. id >= 3).
type Comparison struct {
	Var   string `parser:"@Ident"`
	Op    string `parser:"@(Eq | Neq | Match | Geqt | Leqt | Gt | Lt)"`
	Value *Value `parser:"@@"`
}

func (c *Comparison) check() error {
	kind, ok := fields[c.Var]
	if !ok {
		return fmt.Errorf("unknown field %q", c.Var)
	}
	switch kind {
	case stringField:
		if c.Value.String == nil {
			return fmt.Errorf("%s needs a quoted string", c.Var)
		}
		if c.Op != "=" && c.Op != "!=" && c.Op != "~" {
			return fmt.Errorf("operator %s does not apply to %s", c.Op, c.Var)
		}
	case numberField:
		if c.Value.Number == nil {
			return fmt.Errorf("%s needs a number", c.Var)
		}
		if c.Op == "~" {
			return fmt.Errorf("operator ~ does not apply to %s", c.Var)
		}
	}
	return nil
}

func (c *Comparison) Match(it *gateway.Item) bool {
	switch c.Var {
	case "name":
		return c.matchString(it.Name)
	case "description":
		return c.matchString(it.Description)
	case "materials":
		return c.matchString(it.Materials)
	case "uri":
		return c.matchString(it.TokenURI)
	case "id":
		return c.matchNumber(it.TokenID)
	case "created":
		if it.CreatedAt.IsZero() {
			return false
		}
		return c.matchNumber(uint64(it.CreatedAt.Unix()))
	}
	return false
}

func (c *Comparison) matchString(v string) bool {
	want := *c.Value.String
	switch c.Op {
	case "=":
		return v == want
	case "!=":
		return v != want
	case "~":
		fold := cases.Fold()
		return strings.Contains(fold.String(v), fold.String(want))
	}
	return false
}

func (c *Comparison) matchNumber(v uint64) bool {
	want := *c.Value.Number
	switch c.Op {
	case "=":
		return v == want
	case "!=":
		return v != want
	case ">":
		return v > want
	case ">=":
		return v >= want
	case "<":
		return v < want
	case "<=":
		return v <= want
	}
	return false
}

// Value is a literal value (a number or a string).
type Value struct {
	String *string `parser:"  @String"`
	Number *uint64 `parser:"| @Number"`
}

var Parser = participle.MustBuild[Expression](
	participle.Lexer(lex),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
)

// Parse parses and type checks a filter. Errors are failure.ErrInvalidInput.
func Parse(s string) (*Expression, error) {
	v, err := Parser.ParseString("", s)
	if err != nil {
		return nil, failure.Wrap(failure.ErrInvalidInput, "parse query", err, "invalid query: "+err.Error())
	}
	if err := v.check(); err != nil {
		return nil, failure.Wrap(failure.ErrInvalidInput, "parse query", err, "invalid query: "+err.Error())
	}
	return v, nil
}
