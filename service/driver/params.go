package driver

import (
	"regexp"
	"strings"

	"deadlock/service/language"

	"github.com/pkg/errors"
)

// Kind is the decoding strategy of a harness argument.
type Kind int

const (
	// KindInt is an integer parsed directly from the token.
	KindInt Kind = iota + 1
	// KindString is a string with one layer of surrounding quotes stripped.
	KindString
	// KindIntArray is a bracketed, comma separated list of integers.
	KindIntArray
	// KindChar is the second character of the raw token, skipping a leading quote.
	KindChar
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindIntArray:
		return "int array"
	case KindChar:
		return "char"
	default:
		return "unknown"
	}
}

// Param is one declared parameter of the entry point.
type Param struct {
	Kind Kind
	// Type is the normalized declared type, usable in a variable declaration.
	Type string
	Name string
}

var (
	// ErrUnsupportedType is returned when a declared parameter type has no decoder.
	ErrUnsupportedType = errors.New("unsupported parameter type")
	// ErrMalformedSignature is returned for a parameter list that can not be split into
	// type and name pairs.
	ErrMalformedSignature = errors.New("malformed parameter signature")
)

var typeKinds = map[language.Language]map[string]Kind{
	language.Cpp: {
		"int":              KindInt,
		"long":             KindInt,
		"long long":        KindInt,
		"string":           KindString,
		"std::string":      KindString,
		"vector<int>":      KindIntArray,
		"std::vector<int>": KindIntArray,
		"char":             KindChar,
	},
	language.Java: {
		"int":    KindInt,
		"long":   KindInt,
		"String": KindString,
		"int[]":  KindIntArray,
		"char":   KindChar,
	},
}

var (
	paramPattern  = regexp.MustCompile(`^(.*?)\s*\b([A-Za-z_][A-Za-z0-9_]*)\s*(\[\s*\])?$`)
	spacePattern  = regexp.MustCompile(`\s+`)
	anglePattern  = regexp.MustCompile(`\s*([<>,\[\]])\s*`)
	qualifierWord = regexp.MustCompile(`\bconst\b`)
)

// ParseParams parses a declared parameter list such as "vector<int>& nums, int k".
//
// An empty list declares no parameters.
func ParseParams(lang language.Language, sig string) ([]Param, error) {
	kinds, ok := typeKinds[lang]
	if !ok {
		return nil, errors.Wrapf(language.ErrUnsupportedLanguage,
			"'%s' takes no typed parameters", lang)
	}

	entries := splitTopLevel(sig)
	params := make([]Param, 0, len(entries))
	for _, entry := range entries {
		m := paramPattern.FindStringSubmatch(entry)
		if m == nil || strings.TrimSpace(m[1]) == "" {
			return nil, errors.Wrapf(ErrMalformedSignature, "'%s'", entry)
		}
		typ := normalizeType(m[1] + m[3])
		kind, ok := kinds[typ]
		if !ok {
			return nil, errors.Wrapf(ErrUnsupportedType, "'%s' of parameter '%s' in %s", typ, m[2], lang)
		}
		params = append(params, Param{Kind: kind, Type: typ, Name: m[2]})
	}
	return params, nil
}

// splitTopLevel splits on commas that are not nested in angle brackets.
func splitTopLevel(sig string) []string {
	var (
		entries []string
		depth   int
		start   int
	)
	for i, r := range sig {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				entries = append(entries, sig[start:i])
				start = i + 1
			}
		}
	}
	entries = append(entries, sig[start:])

	out := entries[:0]
	for _, e := range entries {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

func normalizeType(typ string) string {
	typ = qualifierWord.ReplaceAllString(typ, "")
	typ = strings.ReplaceAll(typ, "&", "")
	typ = spacePattern.ReplaceAllString(strings.TrimSpace(typ), " ")
	return anglePattern.ReplaceAllString(typ, "$1")
}
