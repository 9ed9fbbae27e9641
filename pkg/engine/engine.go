package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ecagent-hq/ecagent/pkg/engine/formula"
	"ecagent-hq/ecagent/pkg/project"
	"ecagent-hq/ecagent/pkg/rules/ast"
	ruleErrors "ecagent-hq/ecagent/pkg/rules/errors"
)

const tracerName = "ecagent/engine"

// Engine turns project facts and a rule set into recommendations.
// An Engine holds no per-run state and is safe for concurrent use.
type Engine struct {
	config     *EngineConfig
	matcher    *Matcher
	calculator *Calculator
	logger     *slog.Logger
	tracer     trace.Tracer
}

// New creates an engine.
func New(config *EngineConfig, logger *slog.Logger) (*Engine, error) {
	if config == nil {
		config = DefaultEngineConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "engine")

	return &Engine{
		config:     config,
		matcher:    NewMatcher(logger),
		calculator: NewCalculator(config.DefaultQuantity, logger),
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// Calculator returns the engine's formula calculator.
func (e *Engine) Calculator() *Calculator {
	return e.calculator
}

// ProcessProject flattens the project into facts and processes it.
func (e *Engine) ProcessProject(ctx context.Context, p *project.ProjectInput, rules *ast.RuleSet) (*ProjectOutput, error) {
	return e.Process(ctx, p.Facts(), rules)
}

// Process evaluates every rule in priority order and aggregates the fired
// rules into a ProjectOutput.
func (e *Engine) Process(ctx context.Context, facts project.Facts, rules *ast.RuleSet) (out *ProjectOutput, err error) {
	start := time.Now()

	ctx, span := e.tracer.Start(ctx, "engine.process",
		trace.WithAttributes(attribute.Int("rules.count", rules.Len())))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("rules.fired", out.Summary.RulesFired))
		}
		span.End()
	}()

	name, _ := facts.Lookup("project_name")
	out = &ProjectOutput{
		ProjectName:        stringValue(name),
		Timestamp:          e.config.Clock().Format(time.RFC3339),
		TemporaryPractices: []Practice{},
		PermanentPractices: []Practice{},
		PayItems:           []PayItem{},
	}

	if rules == nil {
		out.RecomputeTotals()
		return out, nil
	}

	bindings := formula.Bindings(numericBindings(facts))

	for _, rule := range rules.Rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		matched, err := e.matcher.MatchRule(ctx, rule, facts)
		if err != nil {
			return nil, err
		}
		out.Summary.RulesEvaluated++
		e.observeRule(rule.ID, matched)

		if !matched {
			e.logger.Debug("rule not matched", "rule_id", rule.ID)
			continue
		}

		if err := e.emit(out, rule, bindings); err != nil {
			return nil, err
		}
		out.Summary.RulesFired++
	}

	out.RecomputeTotals()

	if e.config.Observer != nil {
		e.config.Observer.RunCompleted(time.Since(start), out.Summary.RulesFired)
	}
	e.logger.Info("project processed",
		"project", out.ProjectName,
		"rules_evaluated", out.Summary.RulesEvaluated,
		"rules_fired", out.Summary.RulesFired,
		"total_estimated_cost", out.Summary.TotalEstimatedCost,
		"annotations", len(out.Summary.Annotations),
	)
	return out, nil
}

// emit appends the practice and pay item for a fired rule.
func (e *Engine) emit(out *ProjectOutput, rule *ast.Rule, bindings formula.Bindings) error {
	action := rule.Action
	if _, err := ast.ParsePracticeType(string(action.PracticeType)); err != nil {
		cfgErr := ruleErrors.NewConfigurationError(rule.ID,
			fmt.Sprintf("practice type %q is not supported", action.PracticeType),
			ruleErrors.ErrUnknownPracticeType)
		return cfgErr.WithFile(rule.Location.File)
	}

	var annotations []Annotation

	quantity, qerr := e.calculator.Calculate(action.QuantityFormula, bindings)
	if qerr != nil {
		annotations = append(annotations, Annotation{
			RuleID:  rule.ID,
			Kind:    AnnotationQuantity,
			Message: fmt.Sprintf("quantity formula %q failed (%v); defaulted to %s", action.QuantityFormula, qerr, formatFloat(quantity)),
		})
		if e.config.Observer != nil {
			e.config.Observer.QuantityDefaulted(rule.ID)
		}
	}

	unitCost, priceSource, priceAnnotation := e.unitCost(rule)
	if priceAnnotation != nil {
		annotations = append(annotations, *priceAnnotation)
	}

	practice := Practice{
		PracticeType:  action.PracticeType,
		IsTemporary:   action.IsTemporary,
		Quantity:      quantity,
		Unit:          action.Unit,
		Location:      action.LocationTemplate,
		RuleID:        rule.ID,
		RuleSource:    rule.Source,
		Justification: action.Justification,
		Notes:         rule.Notes,
		Annotations:   cloneAnnotations(annotations),
	}
	payItem := PayItem{
		ItemNumber:        action.PayItemNumber,
		Description:       action.PayItemDescription,
		Quantity:          quantity,
		Unit:              action.Unit,
		EstimatedUnitCost: unitCost,
		PriceSource:       priceSource,
		ECPracticeRef:     rule.PracticeRef(),
		RuleID:            rule.ID,
		RuleSource:        rule.Source,
		Annotations:       cloneAnnotations(annotations),
	}

	if action.IsTemporary {
		out.TemporaryPractices = append(out.TemporaryPractices, practice)
	} else {
		out.PermanentPractices = append(out.PermanentPractices, practice)
	}
	out.PayItems = append(out.PayItems, payItem)
	out.Summary.Annotations = append(out.Summary.Annotations, annotations...)

	e.logger.Debug("rule fired",
		"rule_id", rule.ID,
		"practice_type", action.PracticeType,
		"quantity", quantity,
		"unit", action.Unit,
	)
	return nil
}

// unitCost picks the rule's declared cost, else a historical price.
func (e *Engine) unitCost(rule *ast.Rule) (*float64, string, *Annotation) {
	if rule.Action.EstimatedUnitCost != nil {
		cost := *rule.Action.EstimatedUnitCost
		return &cost, "rule", nil
	}
	if e.config.Prices == nil || rule.Action.PayItemNumber == "" {
		return nil, "", nil
	}

	price, ok, err := e.config.Prices.UnitPrice(rule.Action.PayItemNumber)
	if err != nil {
		e.logger.Warn("unit price lookup failed",
			"rule_id", rule.ID,
			"pay_item", rule.Action.PayItemNumber,
			"error", err,
		)
		return nil, "", &Annotation{
			RuleID:  rule.ID,
			Kind:    AnnotationPrice,
			Message: fmt.Sprintf("unit price lookup for %s failed: %v", rule.Action.PayItemNumber, err),
		}
	}
	if !ok {
		return nil, "", nil
	}
	price = Round2(price)
	return &price, "bid_history", nil
}

func (e *Engine) observeRule(ruleID string, fired bool) {
	if e.config.Observer != nil {
		e.config.Observer.RuleEvaluated(ruleID, fired)
	}
}

func cloneAnnotations(in []Annotation) []Annotation {
	if len(in) == 0 {
		return nil
	}
	out := make([]Annotation, len(in))
	copy(out, in)
	return out
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
