package job

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// ValidationSeverity indicates whether a finding blocks planning or is
// informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks planning
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Field    string             // config field, or "tools[i]" for a tool
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Field, e.Message)
}

// ValidationResult separates blocking errors from warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Err joins the blocking errors under ErrInvalid, or returns nil.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	errs := lo.Map(r.Errors, func(e ValidationError, _ int) error { return e })
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// Validate checks the config. It never mutates it.
func (c *Config) Validate() ValidationResult {
	var all []ValidationError
	all = append(all, c.validateTools()...)
	all = append(all, c.validatePasses()...)

	return ValidationResult{
		Errors:   lo.Filter(all, func(e ValidationError, _ int) bool { return e.Severity == SeverityError }),
		Warnings: lo.Filter(all, func(e ValidationError, _ int) bool { return e.Severity == SeverityWarning }),
	}
}

func (c *Config) validateTools() []ValidationError {
	if len(c.Tools) == 0 {
		return []ValidationError{{Field: "tools", Message: ErrNoTools.Error(), Severity: SeverityError}}
	}

	var errs []ValidationError
	ids := make(map[int]int)
	for i, t := range c.Tools {
		field := fmt.Sprintf("tools[%d]", i)
		if err := t.Validate(); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: err.Error(), Severity: SeverityError})
		}
		if j, dup := ids[t.ID]; dup {
			errs = append(errs, ValidationError{
				Field:    field,
				Message:  fmt.Sprintf("tool id %d also used by tools[%d]", t.ID, j),
				Severity: SeverityWarning,
			})
		}
		ids[t.ID] = i
		if i > 0 && t.Diameter < c.Tools[i-1].Diameter {
			errs = append(errs, ValidationError{
				Field:    field,
				Message:  fmt.Sprintf("diameter %g is smaller than tools[%d] (%g); tools should grow from the finishing tool at index 0", t.Diameter, i-1, c.Tools[i-1].Diameter),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

func (c *Config) validatePasses() []ValidationError {
	var errs []ValidationError
	if c.StockToLeave < 0 {
		errs = append(errs, ValidationError{Field: "stock_to_leave", Message: "must be non-negative", Severity: SeverityError})
	}
	if c.Retract <= 0 {
		errs = append(errs, ValidationError{Field: "retract", Message: "must be above the stock top (> 0)", Severity: SeverityError})
	}
	if c.CutoutDepth < 0 {
		errs = append(errs, ValidationError{Field: "cutout_depth", Message: "must be non-negative", Severity: SeverityError})
	} else if c.CutoutDepth == 0 {
		errs = append(errs, ValidationError{Field: "cutout_depth", Message: "not set; the model height will be used and the cutout skipped", Severity: SeverityWarning})
	}
	if c.FinishingStepover < 0 {
		errs = append(errs, ValidationError{Field: "finishing_stepover", Message: "must be non-negative", Severity: SeverityError})
	}
	if c.RoughingRadiusScale <= 0 {
		errs = append(errs, ValidationError{Field: "roughing_radius_scale", Message: "must be positive", Severity: SeverityError})
	}
	if c.StockX < 0 || c.StockY < 0 {
		errs = append(errs, ValidationError{Field: "stock", Message: "stock override must be non-negative", Severity: SeverityError})
	}
	return errs
}
