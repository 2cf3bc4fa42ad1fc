package guardrail

import (
	"log/slog"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// PolicyEngine evaluates operator-supplied CEL deny rules. A rule that
// evaluates to true rejects the query. Rules see the variables query,
// intent, confidence, response and user_role.
type PolicyEngine struct {
	programs []compiledPolicy
}

type compiledPolicy struct {
	expr    string
	program cel.Program
}

// NewPolicyEngine compiles semicolon-separated CEL expressions. It
// returns nil when source is empty.
func NewPolicyEngine(source string) (*PolicyEngine, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("query", cel.StringType),
		cel.Variable("intent", cel.StringType),
		cel.Variable("confidence", cel.DoubleType),
		cel.Variable("response", cel.StringType),
		cel.Variable("user_role", cel.StringType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}

	engine := &PolicyEngine{}
	for _, expr := range strings.Split(source, ";") {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}

		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, errors.Wrapf(issues.Err(), "invalid policy %q", expr)
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, errors.Errorf("policy %q must evaluate to bool", expr)
		}

		program, err := env.Program(ast)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build policy %q", expr)
		}
		engine.programs = append(engine.programs, compiledPolicy{expr: expr, program: program})
	}
	if len(engine.programs) == 0 {
		return nil, nil
	}
	return engine, nil
}

// Check evaluates every policy against the input. Evaluation errors
// are logged and treated as non-matching so a broken rule cannot take
// the service down.
func (e *PolicyEngine) Check(in Input) Result {
	vars := map[string]any{
		"query":      in.Query,
		"intent":     in.Intent,
		"confidence": in.Confidence,
		"response":   in.Response,
		"user_role":  in.UserRole,
	}

	for _, p := range e.programs {
		out, _, err := p.program.Eval(vars)
		if err != nil {
			slog.Warn("policy evaluation failed",
				slog.String("policy", p.expr), slog.Any("error", err))
			continue
		}
		if denied, ok := out.Value().(bool); ok && denied {
			slog.Warn("query denied by policy", slog.String("policy", p.expr))
			return Result{
				Check:  "policy",
				Reason: "Your query was blocked by an organization policy.",
			}
		}
	}
	return pass()
}
