// Package driver generates the harness programs that wrap submitted code.
//
// Every harness reads one line of stdin holding the encoded arguments, decodes it into
// positional arguments, calls the entry point on a fresh instance of the solution class,
// and prints the return value in canonical form. Any failure inside the harness writes
// the message to stderr and exits with a non-zero status.
package driver

import (
	"regexp"
	"strings"
	"text/template"

	"deadlock/service/language"

	"github.com/pkg/errors"
)

// DefaultClassName is the solution class harnesses instantiate when none is given.
const DefaultClassName = "Solution"

var (
	// ErrNoSignature is returned when a statically typed harness has no declared parameters.
	ErrNoSignature = errors.New("no parameter signature")
	// ErrInvalidIdentifier is returned when the class or function name is not an identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Harness is what a generator needs to wrap user code.
type Harness struct {
	// Code is the submitted source.
	Code string

	// ClassName is the class holding the entry point.
	ClassName string

	// FunctionName is the entry point invoked with the decoded arguments.
	FunctionName string

	// Params are the declared parameters. Only statically typed generators read them.
	Params []Param
}

// Generator builds a runnable program for one language.
type Generator interface {
	Language() language.Language
	Generate(h *Harness) (string, error)
}

var generators = map[language.Language]Generator{}

func register(g Generator) {
	generators[g.Language()] = g
}

// Get returns the generator of a language.
func Get(lang language.Language) (Generator, error) {
	g, ok := generators[lang]
	if !ok {
		return nil, errors.Wrapf(language.ErrUnsupportedLanguage, "no harness for '%s'", lang)
	}
	return g, nil
}

// NewHarness prepares a harness for a language.
//
// sig is the declared parameter list of the language and hasSig reports whether the
// problem declares one at all; dynamically typed languages ignore both.
func NewHarness(
	lang language.Language, code, className, functionName, sig string, hasSig bool,
) (*Harness, error) {
	if className == "" {
		className = DefaultClassName
	}
	if !identifierPattern.MatchString(className) {
		return nil, errors.Wrapf(ErrInvalidIdentifier, "class name '%s'", className)
	}
	if !identifierPattern.MatchString(functionName) {
		return nil, errors.Wrapf(ErrInvalidIdentifier, "function name '%s'", functionName)
	}

	h := &Harness{Code: code, ClassName: className, FunctionName: functionName}
	if !lang.StaticallyTyped() {
		return h, nil
	}
	if !hasSig {
		return nil, errors.Wrapf(ErrNoSignature, "for %s", lang)
	}
	params, err := ParseParams(lang, sig)
	if err != nil {
		return nil, err
	}
	h.Params = params
	return h, nil
}

// Generate builds the harness program of a language.
func Generate(lang language.Language, h *Harness) (string, error) {
	g, err := Get(lang)
	if err != nil {
		return "", err
	}
	return g.Generate(h)
}

// IsHarnessError reports whether err means the harness could not be built from the
// problem and submission, as opposed to an unknown language.
func IsHarnessError(err error) bool {
	switch errors.Cause(err) {
	case ErrUnsupportedType, ErrMalformedSignature, ErrNoSignature, ErrInvalidIdentifier:
		return true
	}
	return false
}

func render(tmpl *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", errors.Wrapf(err, "failed to render %s harness", tmpl.Name())
	}
	return b.String(), nil
}

// binding is one decoded argument of a statically typed harness.
type binding struct {
	Index  int
	Type   string
	Var    string
	Parser string
}

func argNames(bindings []binding) string {
	names := make([]string, len(bindings))
	for i, b := range bindings {
		names[i] = b.Var
	}
	return strings.Join(names, ", ")
}

func unsupported(p Param) error {
	return errors.Wrapf(ErrUnsupportedType, "'%s' of parameter '%s'", p.Type, p.Name)
}
