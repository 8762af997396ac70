package chargen

import (
	"fmt"
	"slices"

	"github.com/google/cel-go/cel"
)

// Facts is the view of a build a Condition is evaluated against.
type Facts struct {
	Qualities []string
	Augments  []string
	Awakening string
	Metatype  string
}

// FactsOf extracts the condition inputs from a state. Augment ids are sorted.
func FactsOf(s *CharacterState) Facts {
	return Facts{
		Qualities: slices.Clone(s.Qualities),
		Augments:  sortedKeys(s.Augments),
		Awakening: string(s.Awakening),
		Metatype:  s.Metatype,
	}
}

// Condition decides whether a rule modifier applies to a build.
type Condition interface {
	Match(f Facts) bool
}

// AnyOf matches when the build carries any listed quality or augment.
type AnyOf struct {
	Qualities []string
	Augments  []string
}

func (a AnyOf) Match(f Facts) bool {
	for _, q := range a.Qualities {
		if slices.Contains(f.Qualities, q) {
			return true
		}
	}
	for _, id := range a.Augments {
		if slices.Contains(f.Augments, id) {
			return true
		}
	}
	return false
}

// CELCondition is a compiled boolean CEL expression over the variables
// qualities, augments (lists of ids), awakening and metatype (strings).
type CELCondition struct {
	expr string
	prg  cel.Program
}

// NewCELCondition compiles expr. The expression must evaluate to a bool.
func NewCELCondition(expr string) (*CELCondition, error) {
	env, err := cel.NewEnv(
		cel.Variable("qualities", cel.ListType(cel.StringType)),
		cel.Variable("augments", cel.ListType(cel.StringType)),
		cel.Variable("awakening", cel.StringType),
		cel.Variable("metatype", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("chargen: cel env: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("chargen: compile %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("chargen: condition %q must be bool, got %s", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("chargen: program %q: %w", expr, err)
	}
	return &CELCondition{expr: expr, prg: prg}, nil
}

// Match evaluates the expression. Evaluation errors count as no match.
func (c *CELCondition) Match(f Facts) bool {
	qualities := f.Qualities
	if qualities == nil {
		qualities = []string{}
	}
	augments := f.Augments
	if augments == nil {
		augments = []string{}
	}
	out, _, err := c.prg.Eval(map[string]any{
		"qualities": qualities,
		"augments":  augments,
		"awakening": f.Awakening,
		"metatype":  f.Metatype,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

func (c *CELCondition) String() string { return c.expr }
