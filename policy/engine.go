// Package policy evaluates findings against user-supplied OPA/rego
// exemption policies. Evaluation is read-only: policies mark findings
// exempt or flagged, they never execute anything.
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/open-policy-agent/opa/v1/rego"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vartija/vartija/telemetry"
	"github.com/vartija/vartija/types"
)

// opaExpressionValue is the dynamic value OPA returns. Policies shape
// their output at runtime, so this is the one place a map is allowed.
type opaExpressionValue map[string]interface{}

// Engine evaluates rego policies against findings.
type Engine struct {
	logger  *telemetry.Logger
	tracer  trace.Tracer
	queries map[string]rego.PreparedEvalQuery
}

// Input is the document policies see for each finding.
type Input struct {
	Finding     types.Finding `json:"finding"`
	Tags        types.Tags    `json:"tags"`
	Environment string        `json:"environment"`
	Timestamp   time.Time     `json:"timestamp"`
}

// Result is the aggregated policy decision for one finding.
type Result struct {
	Decision string   `json:"decision"` // "flag", "exempt", "allow"
	Reason   string   `json:"reason"`
	Policies []string `json:"policies"`
	// Metadata carries arbitrary policy-attached context.
	Metadata map[string]any `json:"metadata"`
}

// NewEngine creates an empty policy engine.
func NewEngine(logger *telemetry.Logger) *Engine {
	return &Engine{
		logger:  logger,
		tracer:  otel.Tracer("policy-engine"),
		queries: make(map[string]rego.PreparedEvalQuery),
	}
}

// LoadDir loads and compiles every .rego file in a directory. A
// missing directory is not an error, it just means no exemptions.
func (e *Engine) LoadDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read policy dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".rego") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		code, err := os.ReadFile(path) // #nosec G304 -- policy dir is user config
		if err != nil {
			return fmt.Errorf("failed to read policy %s: %w", path, err)
		}
		if err := e.LoadPolicy(ctx, entry.Name(), string(code)); err != nil {
			return err
		}
	}

	return nil
}

// LoadPolicy loads and compiles a single rego policy.
func (e *Engine) LoadPolicy(ctx context.Context, name string, regoCode string) error {
	ctx, span := e.tracer.Start(ctx, "policy_engine.load_policy",
		trace.WithAttributes(attribute.String("policy.name", name)))
	defer span.End()

	query := rego.New(
		rego.Query("data.vartija"),
		rego.Module(name, regoCode),
	)

	prepared, err := query.PrepareForEval(ctx)
	if err != nil {
		return fmt.Errorf("failed to compile policy %s: %w", name, err)
	}

	e.queries[name] = prepared

	e.logger.WithContext(ctx).Info().
		Str("policy_name", name).
		Msg("policy loaded")

	return nil
}

// PolicyCount reports how many policies are loaded.
func (e *Engine) PolicyCount() int {
	return len(e.queries)
}

// ApplyExemptions evaluates every finding and marks the exempted ones
// in place.
func (e *Engine) ApplyExemptions(ctx context.Context, findings []types.Finding) error {
	if len(e.queries) == 0 {
		return nil
	}

	for i := range findings {
		result, err := e.Evaluate(ctx, Input{
			Finding:   findings[i],
			Timestamp: time.Now(),
		})
		if err != nil {
			return err
		}
		if result.Decision == "exempt" {
			findings[i].Exempted = true
			findings[i].ExemptReason = result.Reason
		}
	}

	return nil
}

// Evaluate runs all loaded policies against one input.
func (e *Engine) Evaluate(ctx context.Context, input Input) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "policy_engine.evaluate",
		trace.WithAttributes(
			attribute.String("finding.check_id", input.Finding.CheckID),
			attribute.String("finding.resource_id", input.Finding.ResourceID)))
	defer span.End()

	var allResults []Result
	matchedPolicies := []string{}

	for policyName, query := range e.queries {
		result, err := e.evaluatePolicy(ctx, policyName, query, input)
		if err != nil {
			e.logger.WithContext(ctx).Error().
				Err(err).
				Str("policy_name", policyName).
				Msg("policy evaluation failed")
			continue
		}

		if result.Decision != "" {
			allResults = append(allResults, result)
			matchedPolicies = append(matchedPolicies, policyName)
		}
	}

	finalResult := aggregateResults(allResults)
	finalResult.Policies = matchedPolicies

	return finalResult, nil
}

// evaluatePolicy evaluates a single policy.
func (e *Engine) evaluatePolicy(ctx context.Context, name string, query rego.PreparedEvalQuery, input Input) (Result, error) {
	results, err := query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Result{}, fmt.Errorf("evaluation failed: %w", err)
	}

	if len(results) == 0 {
		return Result{}, nil // no match
	}

	result := Result{
		Policies: []string{name},
		Metadata: make(map[string]any),
	}

	parseEvalResults(results, &result)
	return result, nil
}

func parseEvalResults(results rego.ResultSet, result *Result) {
	for _, res := range results {
		for key, value := range res.Bindings {
			bindPolicyValue(key, value, result)
		}

		if len(res.Expressions) > 0 {
			switch expr := res.Expressions[0].Value.(type) {
			case opaExpressionValue:
				for key, value := range expr {
					bindPolicyValue(key, value, result)
				}
			case map[string]interface{}:
				for key, value := range expr {
					bindPolicyValue(key, value, result)
				}
			}
		}
	}
}

func bindPolicyValue(key string, value interface{}, result *Result) {
	str, ok := value.(string)
	if !ok {
		if num, ok := value.(json.Number); ok {
			result.Metadata[key] = num
			return
		}
		result.Metadata[key] = value
		return
	}

	switch key {
	case "decision":
		result.Decision = str
	case "reason":
		result.Reason = str
	default:
		result.Metadata[key] = value
	}
}

// aggregateResults combines multiple policy results, the strongest
// decision winning.
func aggregateResults(results []Result) Result {
	if len(results) == 0 {
		return Result{
			Decision: "allow",
			Reason:   "no policies matched",
		}
	}

	priorityOrder := map[string]int{
		"exempt": 3,
		"flag":   2,
		"allow":  1,
	}

	final := Result{
		Decision: "allow",
		Metadata: make(map[string]any),
	}

	maxPriority := 0
	var reasons []string
	for _, result := range results {
		if priority := priorityOrder[result.Decision]; priority > maxPriority {
			maxPriority = priority
			final.Decision = result.Decision
		}
		if result.Reason != "" {
			reasons = append(reasons, result.Reason)
		}
		final.Policies = append(final.Policies, result.Policies...)
	}

	final.Reason = strings.Join(reasons, "; ")
	return final
}
