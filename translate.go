package neoclient

import (
	"errors"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// TranslationRule maps an engine error to a Kind. ok is false when the rule
// does not apply.
type TranslationRule func(err error) (kind Kind, ok bool)

// Translator turns engine errors into *DataAccessError. Rules are tried in
// order; the first match wins.
type Translator struct {
	rules []TranslationRule
}

// NewTranslator returns a Translator with rules followed by the built-in
// Neo4j rules.
func NewTranslator(rules ...TranslationRule) *Translator {
	all := make([]TranslationRule, 0, len(rules)+3)
	all = append(all, rules...)
	all = append(all, connectivityRule, usageRule, neo4jCodeRule)
	return &Translator{rules: all}
}

// Translate returns err as a *DataAccessError when a rule matches and err
// unchanged otherwise. Errors that are already a *DataAccessError are passed
// through.
func (t *Translator) Translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var dae *DataAccessError
	if errors.As(err, &dae) {
		return err
	}
	for _, rule := range t.rules {
		if kind, ok := rule(err); ok {
			return newError(kind, op, err)
		}
	}
	return err
}

func connectivityRule(err error) (Kind, bool) {
	if neo4j.IsConnectivityError(err) {
		return KindResourceFailure, true
	}
	return "", false
}

func usageRule(err error) (Kind, bool) {
	if neo4j.IsUsageError(err) {
		return KindInvalidUsage, true
	}
	return "", false
}

// neo4jCodeRule classifies server errors by their status code, e.g.
// Neo.ClientError.Schema.ConstraintValidationFailed.
func neo4jCodeRule(err error) (Kind, bool) {
	var neoErr *neo4j.Neo4jError
	if !errors.As(err, &neoErr) {
		return "", false
	}
	return kindForCode(neoErr.Code), true
}

var codeKinds = map[string]Kind{
	"Neo.ClientError.Schema.ConstraintValidationFailed":      KindDataIntegrityViolation,
	"Neo.ClientError.Schema.ConstraintViolation":             KindDataIntegrityViolation,
	"Neo.ClientError.Statement.ConstraintVerificationFailed": KindDataIntegrityViolation,
	"Neo.ClientError.Statement.SyntaxError":                  KindInvalidQuery,
	"Neo.ClientError.Statement.SemanticError":                KindInvalidQuery,
	"Neo.ClientError.Statement.ParameterMissing":             KindInvalidQuery,
	"Neo.ClientError.Statement.TypeError":                    KindInvalidQuery,
	"Neo.ClientError.Statement.ArgumentError":                KindInvalidQuery,
	"Neo.ClientError.Statement.EntityNotFound":               KindInvalidUsage,
	"Neo.ClientError.Database.DatabaseNotFound":              KindInvalidUsage,
	"Neo.ClientError.Transaction.TransactionNotFound":        KindInvalidUsage,
	"Neo.ClientError.Cluster.NotALeader":                     KindTransient,
}

func kindForCode(code string) Kind {
	if kind, ok := codeKinds[code]; ok {
		return kind
	}
	switch {
	case strings.HasPrefix(code, "Neo.TransientError."):
		return KindTransient
	case strings.HasPrefix(code, "Neo.ClientError.Security."):
		return KindPermissionDenied
	case strings.HasPrefix(code, "Neo.ClientError.Schema."):
		return KindDataIntegrityViolation
	case strings.HasPrefix(code, "Neo.ClientError.Statement."):
		return KindInvalidQuery
	case strings.HasPrefix(code, "Neo.DatabaseError."):
		return KindResourceFailure
	default:
		return KindUncategorized
	}
}
