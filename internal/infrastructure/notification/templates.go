package notification

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when a template is missing for the requested locale
const DefaultLocale = "en"

// MessageTemplate is the subject and body template for one event type
type MessageTemplate struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// TemplateProvider looks up message templates by event type and locale
type TemplateProvider interface {
	Lookup(eventType, locale string) (MessageTemplate, bool)
}

// StaticTemplateProvider serves the built-in English templates
type StaticTemplateProvider struct {
	templates map[string]MessageTemplate
}

// NewStaticTemplateProvider returns the built-in templates
func NewStaticTemplateProvider() *StaticTemplateProvider {
	return &StaticTemplateProvider{templates: map[string]MessageTemplate{
		"payment.recorded": {
			Subject: "{{title .Direction}} payment {{.Number}} recorded",
			Body: "Payment {{.Number}} of {{money .Amount}} ({{humanize .Mode}}) allocated {{money .AllocatedAmount}}" +
				"{{if positive .AdvanceRemainder}}, {{money .AdvanceRemainder}} held as advance{{end}}. " +
				"Party balance is now {{money .PartyBalance}}.",
		},
		"invoice.payment_applied": {
			Subject: "Invoice {{.Number}} {{humanize .PaymentStatus}}",
			Body:    "{{money .Amount}} applied to invoice {{.Number}}; {{money .DueAmount}} still due.",
		},
		"bank.transaction_recorded": {
			Subject: "Bank movement of {{money .Amount}}",
			Body:    "Account balance after the movement: {{money .BalanceAfter}}.",
		},
		"ledger.drift_detected": {
			Subject: "Ledger drift detected",
			Body:    "Stored balance {{money .Actual}} differs from the expected {{money .Expected}} by {{money .Drift}}.",
		},
	}}
}

// Lookup implements TemplateProvider. Locale is ignored.
func (p *StaticTemplateProvider) Lookup(eventType, _ string) (MessageTemplate, bool) {
	t, ok := p.templates[eventType]
	return t, ok
}

// templateFile is the YAML layout: event type -> locale -> template
type templateFile struct {
	Templates map[string]map[string]MessageTemplate `yaml:"templates"`
}

// YAMLTemplateProvider serves templates loaded from a YAML file and falls
// back to another provider for event types the file does not cover.
type YAMLTemplateProvider struct {
	mu        sync.RWMutex
	templates map[string]map[string]MessageTemplate
	fallback  TemplateProvider
}

// LoadYAMLTemplates reads path. fallback may be nil.
func LoadYAMLTemplates(path string, fallback TemplateProvider) (*YAMLTemplateProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates file: %w", err)
	}
	return ParseYAMLTemplates(data, fallback)
}

// ParseYAMLTemplates parses YAML template data and checks every template compiles
func ParseYAMLTemplates(data []byte, fallback TemplateProvider) (*YAMLTemplateProvider, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse templates file: %w", err)
	}
	for eventType, locales := range file.Templates {
		for locale, t := range locales {
			if _, err := compile(t.Subject); err != nil {
				return nil, fmt.Errorf("template %s/%s subject: %w", eventType, locale, err)
			}
			if _, err := compile(t.Body); err != nil {
				return nil, fmt.Errorf("template %s/%s body: %w", eventType, locale, err)
			}
		}
	}
	return &YAMLTemplateProvider{templates: file.Templates, fallback: fallback}, nil
}

// Lookup implements TemplateProvider: exact locale, then the base language,
// then DefaultLocale, then the fallback provider.
func (p *YAMLTemplateProvider) Lookup(eventType, locale string) (MessageTemplate, bool) {
	p.mu.RLock()
	locales := p.templates[eventType]
	p.mu.RUnlock()

	candidates := []string{locale}
	if base, _, found := strings.Cut(locale, "-"); found {
		candidates = append(candidates, base)
	}
	candidates = append(candidates, DefaultLocale)
	for _, c := range candidates {
		if t, ok := locales[c]; ok {
			return t, true
		}
	}

	if p.fallback != nil {
		return p.fallback.Lookup(eventType, locale)
	}
	return MessageTemplate{}, false
}

var funcMap = template.FuncMap{
	"money":    formatMoney,
	"title":    titleCase,
	"humanize": humanize,
	"upper":    func(v any) string { return strings.ToUpper(fmt.Sprint(v)) },
	"date":     func(t time.Time) string { return t.Format("2006-01-02") },
	"positive": func(d decimal.Decimal) bool { return d.IsPositive() },
}

func compile(text string) (*template.Template, error) {
	return template.New("msg").Funcs(funcMap).Option("missingkey=error").Parse(text)
}

// Render executes t against data
func Render(t MessageTemplate, data any) (subject, body string, err error) {
	if subject, err = execute(t.Subject, data); err != nil {
		return "", "", err
	}
	if body, err = execute(t.Body, data); err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func execute(text string, data any) (string, error) {
	tmpl, err := compile(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatMoney renders amounts with two decimals
func formatMoney(v any) string {
	switch d := v.(type) {
	case decimal.Decimal:
		return d.StringFixed(2)
	case *decimal.Decimal:
		if d == nil {
			return "0.00"
		}
		return d.StringFixed(2)
	default:
		return fmt.Sprint(v)
	}
}

// titleCase uppercases the first letter of each word with Unicode rules
func titleCase(v any) string {
	return cases.Title(language.English).String(fmt.Sprint(v))
}

// humanize turns enum values like "against_invoice" into "against invoice"
func humanize(v any) string {
	return strings.ReplaceAll(fmt.Sprint(v), "_", " ")
}
