package csvimport

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FieldType is the expected type of a column
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
	TypeUUID    FieldType = "uuid"
)

// FieldRule describes how one column is validated
type FieldRule struct {
	Column     string
	Type       FieldType
	Required   bool
	MaxLength  int
	Positive   bool
	OneOf      []string
	DateFormat string
	Unique     bool
	CustomFunc func(value string) error
}

// FieldRuleBuilder builds a FieldRule fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field starts a rule for a column
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{
		rule: FieldRule{
			Column:     column,
			Type:       TypeString,
			DateFormat: "2006-01-02",
		},
	}
}

// Required marks the column as mandatory
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Decimal expects a decimal number
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// Positive expects a decimal greater than zero
func (b *FieldRuleBuilder) Positive() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	b.rule.Positive = true
	return b
}

// Date expects a date in the given layout
func (b *FieldRuleBuilder) Date(layout string) *FieldRuleBuilder {
	b.rule.Type = TypeDate
	if layout != "" {
		b.rule.DateFormat = layout
	}
	return b
}

// UUID expects a UUID
func (b *FieldRuleBuilder) UUID() *FieldRuleBuilder {
	b.rule.Type = TypeUUID
	return b
}

// MaxLength caps the length in characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// OneOf restricts the value to a set, compared case-insensitively
func (b *FieldRuleBuilder) OneOf(values ...string) *FieldRuleBuilder {
	b.rule.OneOf = values
	return b
}

// Unique rejects a value already seen earlier in the file
func (b *FieldRuleBuilder) Unique() *FieldRuleBuilder {
	b.rule.Unique = true
	return b
}

// Custom adds a validation function run after the built-in checks
func (b *FieldRuleBuilder) Custom(fn func(value string) error) *FieldRuleBuilder {
	b.rule.CustomFunc = fn
	return b
}

// Build returns the rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// FieldValidator checks rows against a fixed set of rules
type FieldValidator struct {
	rules       []FieldRule
	uniqueCheck map[string]map[string]int // column -> value -> first row
	errors      *ErrorCollection
}

// NewFieldValidator creates a validator. Rules run in the given order.
func NewFieldValidator(rules []FieldRule, maxErrors int) *FieldValidator {
	return &FieldValidator{
		rules:       rules,
		uniqueCheck: make(map[string]map[string]int),
		errors:      NewErrorCollection(maxErrors),
	}
}

// ValidateRow records every rule violation of the row and reports whether
// the row passed
func (v *FieldValidator) ValidateRow(row *Row) bool {
	valid := true
	for _, rule := range v.rules {
		if !v.validateField(row, rule) {
			valid = false
		}
	}
	return valid
}

func (v *FieldValidator) validateField(row *Row, rule FieldRule) bool {
	line, column := row.LineNumber, rule.Column
	value := row.Get(column)

	if value == "" {
		if rule.Required {
			v.errors.addWithValue(line, column, ErrCodeRequiredField, fmt.Sprintf("field '%s' is required", column), "")
			return false
		}
		return true
	}

	if err := validateType(value, rule); err != nil {
		v.errors.addWithValue(line, column, ErrCodeInvalidType, fmt.Sprintf("expected %s", rule.Type), value)
		return false
	}

	if rule.MaxLength > 0 && len([]rune(value)) > rule.MaxLength {
		v.errors.addWithValue(line, column, ErrCodeInvalidLength,
			fmt.Sprintf("length must be at most %d", rule.MaxLength), value)
		return false
	}

	if rule.Positive {
		if d, _ := decimal.NewFromString(value); !d.IsPositive() {
			v.errors.addWithValue(line, column, ErrCodeInvalidValue, "must be greater than zero", value)
			return false
		}
	}

	if len(rule.OneOf) > 0 && !slices.Contains(rule.OneOf, strings.ToLower(value)) {
		v.errors.addWithValue(line, column, ErrCodeInvalidValue,
			fmt.Sprintf("must be one of: %s", strings.Join(rule.OneOf, ", ")), value)
		return false
	}

	if rule.Unique {
		seen := v.uniqueCheck[column]
		if seen == nil {
			seen = make(map[string]int)
			v.uniqueCheck[column] = seen
		}
		if first, ok := seen[value]; ok {
			v.errors.addWithValue(line, column, ErrCodeDuplicateInFile,
				fmt.Sprintf("duplicate value '%s' (first seen in row %d)", value, first), value)
			return false
		}
		seen[value] = line
	}

	if rule.CustomFunc != nil {
		if err := rule.CustomFunc(value); err != nil {
			v.errors.addWithValue(line, column, ErrCodeInvalidValue, err.Error(), value)
			return false
		}
	}
	return true
}

func validateType(value string, rule FieldRule) error {
	switch rule.Type {
	case TypeDecimal:
		_, err := decimal.NewFromString(value)
		return err
	case TypeDate:
		_, err := time.Parse(rule.DateFormat, value)
		return err
	case TypeUUID:
		_, err := uuid.Parse(value)
		return err
	}
	return nil
}

// Errors returns the collected violations
func (v *FieldValidator) Errors() *ErrorCollection {
	return v.errors
}
