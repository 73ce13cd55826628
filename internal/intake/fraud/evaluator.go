// internal/intake/fraud/evaluator.go
package fraud

import (
	"fmt"
	"math"

	"github.com/google/cel-go/cel"

	"loan-intake/internal/models"
)

const (
	// FailThreshold is the score at which an application fails even without
	// a reason-bearing rule.
	FailThreshold = 50
	// MaxScore caps the reported risk score.
	MaxScore = 100

	costLimit = 100000
)

type compiledRule struct {
	Rule
	program cel.Program
}

// Evaluator scores a profile against compiled CEL rules. It is safe for
// concurrent use once constructed.
type Evaluator struct {
	rules []compiledRule
}

// NewEvaluator compiles DefaultRules.
func NewEvaluator() (*Evaluator, error) {
	return NewEvaluatorWithRules(DefaultRules)
}

// NewEvaluatorWithRules compiles rules against the fact environment. Every
// expression must type-check to bool.
func NewEvaluatorWithRules(rules []Rule) (*Evaluator, error) {
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		ast, issues := env.Compile(r.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rule %s: compile error: %w", r.ID, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %s: expression must return bool, got %s", r.ID, ast.OutputType())
		}

		prog, err := env.Program(ast, cel.CostLimit(costLimit))
		if err != nil {
			return nil, fmt.Errorf("rule %s: program creation error: %w", r.ID, err)
		}
		compiled = append(compiled, compiledRule{Rule: r, program: prog})
	}

	return &Evaluator{rules: compiled}, nil
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("declaredIncome", cel.IntType),
		cel.Variable("docIncome", cel.IntType),
		cel.Variable("mismatchRatio", cel.DoubleType),
		cel.Variable("employment", cel.StringType),
		cel.Variable("age", cel.IntType),
		cel.Variable("panVerified", cel.BoolType),
		cel.Variable("kycVerified", cel.BoolType),
	)
}

// Facts builds the variable bindings for one evaluation. Missing numeric
// answers count as zero.
func Facts(profile models.Profile, flags models.Flags) map[string]any {
	declared := int64(profile.Income())
	var doc int64
	if profile.DocIncome != nil {
		doc = int64(*profile.DocIncome)
	}
	var age int64
	if profile.Age != nil {
		age = int64(*profile.Age)
	}

	return map[string]any{
		"declaredIncome": declared,
		"docIncome":      doc,
		"mismatchRatio":  MismatchRatio(declared, doc),
		"employment":     profile.Employment,
		"age":            age,
		"panVerified":    flags.PANVerified,
		"kycVerified":    flags.KYCVerified,
	}
}

// MismatchRatio is |doc-declared|/declared, or 0 when either side is absent.
func MismatchRatio(declared, doc int64) float64 {
	if declared <= 0 || doc <= 0 {
		return 0
	}
	return math.Abs(float64(doc-declared)) / float64(declared)
}

// Evaluate runs every rule. Reasons keep rule order; the score is capped at
// MaxScore. An application passes only with no reasons and a score under
// FailThreshold.
func (e *Evaluator) Evaluate(profile models.Profile, flags models.Flags) (models.FraudResult, error) {
	facts := Facts(profile, flags)

	reasons := []string{}
	score := 0
	for _, r := range e.rules {
		out, _, err := r.program.Eval(facts)
		if err != nil {
			return models.FraudResult{}, fmt.Errorf("rule %s: evaluation error: %w", r.ID, err)
		}
		matched, ok := out.Value().(bool)
		if !ok || !matched {
			continue
		}
		score += r.Points
		if r.Reason != "" {
			reasons = append(reasons, r.Reason)
		}
	}

	return models.FraudResult{
		Passed:    len(reasons) == 0 && score < FailThreshold,
		Reasons:   reasons,
		RiskScore: min(score, MaxScore),
	}, nil
}
