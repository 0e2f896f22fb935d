package libsimplex

import (
	"math"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"

	"github.com/fine-structures/simplex.SDK/gosimplex"
)

// EnergyExpr is an edge energy expression over wi, wj, and J = (wi+wj)/2, e.g. "J^2 - wi*wj".
type EnergyExpr struct {
	Head *EnergyTerm   `@@`
	Tail []*EnergyTerm `@@*`
}

type EnergyTerm struct {
	Op     string         `@("+" | "-")?`
	Head   *EnergyFactor  `@@`
	Factor []*EnergyScale `@@*`
}

type EnergyScale struct {
	Op     string        `@("*" | "/")`
	Factor *EnergyFactor `@@`
}

type EnergyFactor struct {
	Negate *EnergyFactor `  "-" @@`
	Power  *EnergyPower  `| @@`
}

type EnergyPower struct {
	Base *EnergyValue  `@@`
	Exp  *EnergyFactor `("^" @@)?`
}

type EnergyValue struct {
	Number *float64    `  @Number`
	Var    *string     `| @Ident`
	Sub    *EnergyExpr `| "(" @@ ")"`
}

var energyLexer = lexer.MustSimple([]lexer.SimpleRule{
	{"Number", `(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{"Ident", `[A-Za-z_][A-Za-z0-9_]*`},
	{"Punct", `[-+*/^()]`},
	{"whitespace", `[ \t\r\n]+`},
})

var parseEnergyExpr = participle.MustBuild[EnergyExpr](
	participle.Lexer(energyLexer),
)

// energyVars holds the variable values an expression is evaluated against.
type energyVars struct {
	wi, wj, J float64
}

// ParseEnergyFunc returns the edge energy function named or described by expr.
//
// "linear" and "quadratic" name the built-in functions; anything else is parsed as an arithmetic expression
// over wi, wj, and J with + - * / ^, unary minus, and parentheses.
func ParseEnergyFunc(expr string) (gosimplex.EnergyFunc, error) {
	switch strings.ToLower(strings.TrimSpace(expr)) {
	case "", "linear":
		return gosimplex.LinearEnergy, nil
	case "quadratic":
		return gosimplex.QuadraticEnergy, nil
	}

	tree, err := parseEnergyExpr.ParseString("", expr)
	if err != nil {
		return nil, errors.Wrapf(gosimplex.ErrBadEnergyExpr, "%q: %v", expr, err)
	}
	if err = tree.check(); err != nil {
		return nil, errors.Wrapf(gosimplex.ErrBadEnergyExpr, "%q: %v", expr, err)
	}

	return func(wi, wj int) float64 {
		vars := energyVars{
			wi: float64(wi),
			wj: float64(wj),
			J:  float64(wi+wj) / 2,
		}
		return tree.eval(&vars)
	}, nil
}

func (expr *EnergyExpr) check() error {
	if err := expr.Head.check(); err != nil {
		return err
	}
	for _, term := range expr.Tail {
		if term.Op == "" {
			return errors.New("missing operator between terms")
		}
		if err := term.check(); err != nil {
			return err
		}
	}
	return nil
}

func (term *EnergyTerm) check() error {
	if err := term.Head.check(); err != nil {
		return err
	}
	for _, scale := range term.Factor {
		if err := scale.Factor.check(); err != nil {
			return err
		}
	}
	return nil
}

func (f *EnergyFactor) check() error {
	if f.Negate != nil {
		return f.Negate.check()
	}
	if err := f.Power.Base.check(); err != nil {
		return err
	}
	if f.Power.Exp != nil {
		return f.Power.Exp.check()
	}
	return nil
}

func (v *EnergyValue) check() error {
	switch {
	case v.Var != nil:
		switch *v.Var {
		case "wi", "wj", "J":
		default:
			return errors.Errorf("unknown variable %q", *v.Var)
		}
	case v.Sub != nil:
		return v.Sub.check()
	}
	return nil
}

func (expr *EnergyExpr) eval(vars *energyVars) float64 {
	sum := expr.Head.eval(vars)
	for _, term := range expr.Tail {
		sum += term.eval(vars)
	}
	return sum
}

func (term *EnergyTerm) eval(vars *energyVars) float64 {
	x := term.Head.eval(vars)
	for _, scale := range term.Factor {
		switch scale.Op {
		case "*":
			x *= scale.Factor.eval(vars)
		case "/":
			x /= scale.Factor.eval(vars)
		}
	}
	if term.Op == "-" {
		x = -x
	}
	return x
}

func (f *EnergyFactor) eval(vars *energyVars) float64 {
	if f.Negate != nil {
		return -f.Negate.eval(vars)
	}
	x := f.Power.Base.eval(vars)
	if f.Power.Exp != nil {
		x = math.Pow(x, f.Power.Exp.eval(vars))
	}
	return x
}

func (v *EnergyValue) eval(vars *energyVars) float64 {
	switch {
	case v.Number != nil:
		return *v.Number
	case v.Var != nil:
		switch *v.Var {
		case "wi":
			return vars.wi
		case "wj":
			return vars.wj
		}
		return vars.J
	}
	return v.Sub.eval(vars)
}
