// Package faults classifies arbitrary failures into a closed category set
// and maps each category to a static retry strategy.
//
// Classification tests the error's diagnostic text against an ordered
// table of named pattern rules; the first match wins. Pattern matching on
// free-form text is deliberate: failures arrive from third parties whose
// only stable surface is the message.
package faults

import (
	"strings"
	"time"
)

// Kind is the closed set of failure categories.
type Kind string

const (
	Quota              Kind = "quota"
	Permission         Kind = "permission"
	InvalidArgument    Kind = "invalid_argument"
	Unavailable        Kind = "unavailable"
	NotFound           Kind = "not_found"
	BadFormat          Kind = "bad_format"
	MissingData        Kind = "missing_data"
	ConnectionFailure  Kind = "connection_failure"
	IntegrityViolation Kind = "integrity_violation"
	Timeout            Kind = "timeout"
	NetworkError       Kind = "network_error"
	Unknown            Kind = "unknown"
)

// Severity grades how serious a classified failure is.
type Severity string

const (
	Low      Severity = "low"
	Medium   Severity = "medium"
	High     Severity = "high"
	Critical Severity = "critical"
)

// Classification is the result of classifying one failure.
// It is derived per failure and never persisted.
type Classification struct {
	Kind      Kind
	Severity  Severity
	Retryable bool
	Rule      string // name of the matching rule, "" for the default
}

// Rule is one entry in the ordered classification table. Patterns are
// matched case-insensitively as substrings of the error text.
type Rule struct {
	Name      string
	Patterns  []string
	Kind      Kind
	Severity  Severity
	Retryable bool
}

// DefaultRules returns the ordered rule table. Order matters: the first
// matching rule wins, so more specific phrases come before generic ones.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:      "quota",
			Patterns:  []string{"quota exceeded", "rate limit", "too many requests", "usage limit"},
			Kind:      Quota,
			Severity:  High,
			Retryable: true,
		},
		{
			Name:      "permission",
			Patterns:  []string{"permission denied", "access denied", "unauthorized", "forbidden"},
			Kind:      Permission,
			Severity:  Critical,
			Retryable: false,
		},
		{
			Name:      "invalid-argument",
			Patterns:  []string{"invalid argument", "invalid parameter", "invalid value", "bad request"},
			Kind:      InvalidArgument,
			Severity:  Medium,
			Retryable: false,
		},
		{
			Name:      "unavailable",
			Patterns:  []string{"service unavailable", "temporarily unavailable", "backend error", "internal error", "server error"},
			Kind:      Unavailable,
			Severity:  High,
			Retryable: true,
		},
		{
			Name:      "not-found",
			Patterns:  []string{"not found", "no such", "does not exist"},
			Kind:      NotFound,
			Severity:  Medium,
			Retryable: false,
		},
		{
			Name:      "bad-format",
			Patterns:  []string{"malformed", "parse error", "bad format", "unexpected token", "cannot unmarshal"},
			Kind:      BadFormat,
			Severity:  Medium,
			Retryable: false,
		},
		{
			Name:      "missing-data",
			Patterns:  []string{"missing required", "required field", "no data", "empty response"},
			Kind:      MissingData,
			Severity:  Medium,
			Retryable: false,
		},
		{
			Name:      "connection",
			Patterns:  []string{"connection refused", "connection reset", "connection closed", "broken pipe"},
			Kind:      ConnectionFailure,
			Severity:  High,
			Retryable: true,
		},
		{
			Name:      "integrity",
			Patterns:  []string{"constraint", "duplicate key", "integrity violation"},
			Kind:      IntegrityViolation,
			Severity:  Critical,
			Retryable: false,
		},
		{
			Name:      "timeout",
			Patterns:  []string{"timeout", "timed out", "deadline exceeded"},
			Kind:      Timeout,
			Severity:  High,
			Retryable: true,
		},
		{
			Name:      "network",
			Patterns:  []string{"network", "no route to host", "dns", "host unreachable"},
			Kind:      NetworkError,
			Severity:  High,
			Retryable: true,
		},
	}
}

// DefaultClassification is returned when no rule matches.
func DefaultClassification() Classification {
	return Classification{Kind: Unknown, Severity: Medium, Retryable: true}
}

// Classifier classifies errors against an ordered rule table.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a Classifier with the default rule table.
func NewClassifier() *Classifier {
	return &Classifier{rules: DefaultRules()}
}

// NewClassifierWithRules creates a Classifier with a custom ordered table.
func NewClassifierWithRules(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify tests err's text against the rule table, first match wins.
// A nil error classifies as the default.
func (c *Classifier) Classify(err error) Classification {
	if err == nil {
		return DefaultClassification()
	}

	text := strings.ToLower(err.Error())
	for _, r := range c.rules {
		for _, p := range r.Patterns {
			if strings.Contains(text, p) {
				return Classification{
					Kind:      r.Kind,
					Severity:  r.Severity,
					Retryable: r.Retryable,
					Rule:      r.Name,
				}
			}
		}
	}

	return DefaultClassification()
}

// Action is the remediation a strategy prescribes for a failure category.
type Action string

const (
	RetryBackoff          Action = "retry_backoff"
	RetryBackoffLong      Action = "retry_backoff_long"
	RetryImmediate        Action = "retry_immediate"
	Escalate              Action = "escalate"
	CreateMissingResource Action = "create_missing_resource"
	ConvertFormat         Action = "convert_format"
	UseDefault            Action = "use_default"
	LogOnly               Action = "log_only"
	SplitOperation        Action = "split_operation"
)

// Strategy is the static retry policy for one failure category.
type Strategy struct {
	Action       Action
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// strategies maps each kind one-to-one to its strategy.
var strategies = map[Kind]Strategy{
	Quota:              {Action: RetryBackoffLong, MaxAttempts: 4, InitialDelay: 30 * time.Second, Multiplier: 2.5},
	Permission:         {Action: Escalate, MaxAttempts: 1},
	InvalidArgument:    {Action: UseDefault, MaxAttempts: 2},
	Unavailable:        {Action: RetryBackoff, MaxAttempts: 4, InitialDelay: 5 * time.Second, Multiplier: 2},
	NotFound:           {Action: CreateMissingResource, MaxAttempts: 2, InitialDelay: time.Second, Multiplier: 1},
	BadFormat:          {Action: ConvertFormat, MaxAttempts: 2},
	MissingData:        {Action: UseDefault, MaxAttempts: 2},
	ConnectionFailure:  {Action: RetryBackoff, MaxAttempts: 5, InitialDelay: 2 * time.Second, Multiplier: 2},
	IntegrityViolation: {Action: Escalate, MaxAttempts: 1},
	Timeout:            {Action: SplitOperation, MaxAttempts: 3, InitialDelay: 10 * time.Second, Multiplier: 2},
	NetworkError:       {Action: RetryBackoff, MaxAttempts: 5, InitialDelay: 2 * time.Second, Multiplier: 2},
	Unknown:            {Action: RetryBackoff, MaxAttempts: 3, InitialDelay: time.Second, Multiplier: 2},
}

// StrategyFor returns the strategy for a kind. Unmapped kinds fall back
// to the Unknown strategy.
func StrategyFor(kind Kind) Strategy {
	if s, ok := strategies[kind]; ok {
		return s
	}
	return strategies[Unknown]
}

// suggestions holds the static per-category remediation suggestion lists
// surfaced on structured failures.
var suggestions = map[Kind][]string{
	Quota: {
		"reduce the per-run batch size so fewer calls land in one window",
		"spread scheduled runs across off-peak hours",
		"request a quota increase for the affected service",
	},
	Permission: {
		"verify the executing account has access to the target resource",
		"re-run the authorization flow to refresh granted scopes",
	},
	InvalidArgument: {
		"validate job parameters against the expected schema before execute",
		"check for renamed or removed fields in the source data",
	},
	Unavailable: {
		"retry later; the dependency reported a transient outage",
		"check the dependency's status page before re-running",
	},
	NotFound: {
		"confirm the referenced resource was not deleted or renamed",
		"provide a create-missing-resource hook to recreate it on the fly",
	},
	BadFormat: {
		"normalize the source data encoding before the run",
		"provide a convert-format hook to coerce legacy layouts",
	},
	MissingData: {
		"provide a use-default-values hook for optional fields",
		"verify upstream producers completed before this job started",
	},
	ConnectionFailure: {
		"check network egress rules between this host and the dependency",
		"retry later; the peer dropped the connection",
	},
	IntegrityViolation: {
		"inspect for duplicate writes from a previously interrupted run",
		"reconcile the target store before re-running",
	},
	Timeout: {
		"split the operation into smaller units per combination",
		"raise the per-call timeout if the dependency is just slow",
	},
	NetworkError: {
		"check DNS resolution and routing from this host",
		"retry later; the failure is usually transient",
	},
	Unknown: {
		"inspect the recorded error text; no known pattern matched",
		"add a classification rule if this failure repeats",
	},
}

// Suggestions returns the static remediation list for a kind.
func Suggestions(kind Kind) []string {
	if s, ok := suggestions[kind]; ok {
		return s
	}
	return suggestions[Unknown]
}
