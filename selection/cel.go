package selection

import (
	"context"
	"fmt"
	"maps"

	"github.com/google/cel-go/cel"

	"ocm.software/open-component-model/resolution/metadata"
)

// CELRule creates a rule rejecting candidates for which expression evaluates to true.
//
// The expression can refer to
//
//	candidate  {group, name, version}
//	metadata   {status, statusScheme, changing, attributes}
//	ivy        {branch, extraInfo}
//
// Metadata and the Ivy descriptor are only fetched for expressions referring to them.
func CELRule(name, expression, reason string) (Rule, error) {
	candidateVar := cel.Variable("candidate", cel.MapType(cel.StringType, cel.StringType))
	metadataVar := cel.Variable("metadata", cel.MapType(cel.StringType, cel.DynType))
	ivyVar := cel.Variable("ivy", cel.MapType(cel.StringType, cel.DynType))

	var (
		env   *cel.Env
		ast   *cel.Ast
		needs Needs
		err   error
	)
	for _, candidate := range []struct {
		needs Needs
		vars  []cel.EnvOption
	}{
		{0, []cel.EnvOption{candidateVar}},
		{NeedsMetadata, []cel.EnvOption{candidateVar, metadataVar}},
		{NeedsMetadata | NeedsIvyDescriptor, []cel.EnvOption{candidateVar, metadataVar, ivyVar}},
	} {
		if env, err = cel.NewEnv(candidate.vars...); err != nil {
			return Rule{}, fmt.Errorf("creating CEL env: %w", err)
		}
		var issues *cel.Issues
		ast, issues = env.Compile(expression)
		if err = issues.Err(); err == nil {
			needs = candidate.needs
			break
		}
	}
	if err != nil {
		return Rule{}, fmt.Errorf("compiling CEL rule %s: %w", name, err)
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return Rule{}, fmt.Errorf("CEL rule %s must evaluate to bool, got %s", name, ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return Rule{}, fmt.Errorf("building CEL program %s: %w", name, err)
	}
	if reason == "" {
		reason = fmt.Sprintf("rejected by rule %s", name)
	}

	return Rule{
		Name:  name,
		Needs: needs,
		Evaluate: func(ctx context.Context, c CandidateView) (Verdict, error) {
			id := c.ID()
			vars := map[string]any{
				"candidate": map[string]string{"group": id.Module.Group, "name": id.Module.Name, "version": id.Version},
			}
			if needs&NeedsMetadata != 0 {
				m, _ := c.Metadata(ctx)
				vars["metadata"] = metadataVars(m)
			}
			if needs&NeedsIvyDescriptor != 0 {
				ivy, _ := c.IvyDescriptor(ctx)
				vars["ivy"] = ivyVars(ivy)
			}
			val, _, err := prog.ContextEval(ctx, vars)
			if err != nil {
				return Verdict{}, fmt.Errorf("evaluating CEL rule %s: %w", name, err)
			}
			if rejected, _ := val.Value().(bool); rejected {
				return Reject(reason), nil
			}
			return Accept(), nil
		},
	}, nil
}

func metadataVars(m *metadata.Metadata) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	attributes := map[string]string{}
	maps.Copy(attributes, m.Attributes)
	return map[string]any{
		"status":       m.Status,
		"statusScheme": m.ComponentStatusScheme(),
		"changing":     m.Changing,
		"attributes":   attributes,
	}
}

func ivyVars(ivy *metadata.IvyDescriptor) map[string]any {
	if ivy == nil {
		return map[string]any{}
	}
	extra := map[string]string{}
	maps.Copy(extra, ivy.ExtraInfo)
	return map[string]any{"branch": ivy.Branch, "extraInfo": extra}
}
