// Package problem holds problem definitions and the git repository they are read from.
package problem

import (
	"io"
	"regexp"
	"sort"

	lang "deadlock/service/language"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ErrInvalidProblem is returned by Validate.
var ErrInvalidProblem = errors.New("invalid problem")

// Difficulty is how hard a problem is meant to be.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Categories are the topics a problem can be filed under.
var Categories = []string{"Arrays", "Strings", "Loops", "HashMaps", "Logic"}

// TestCase is one input the submission is run on and the output it must print.
type TestCase struct {
	// Input is one JSON value, or several joined by '|'.
	Input string `yaml:"input" json:"input"`

	// Output is the expected output in canonical form.
	Output string `yaml:"output" json:"output"`

	IsHidden bool `yaml:"isHidden" json:"isHidden"`
}

// Problem is a function-style programming problem.
//
// Use YAML as file format, JSON documents are accepted as well.
type Problem struct {
	// Name is the path of the problem file without its extension.
	Name string `yaml:"-" json:"name"`

	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description" json:"description,omitempty"`
	Difficulty  Difficulty `yaml:"difficulty" json:"difficulty,omitempty"`
	Category    string     `yaml:"category" json:"category,omitempty"`
	Tags        []string   `yaml:"tags" json:"tags,omitempty"`

	// Statements are localized descriptions keyed by BCP 47 tag.
	Statements map[language.Tag]string `yaml:"statements" json:"statements,omitempty"`

	// ClassName is the class holding the entry point, "Solution" when empty.
	ClassName string `yaml:"className" json:"className,omitempty"`

	// FunctionName is the entry point the harness invokes.
	FunctionName string `yaml:"functionName" json:"functionName"`

	// Parameters are the declared parameters per language, such as "int n, string s".
	Parameters map[lang.Language]string `yaml:"parameters" json:"parameters,omitempty"`

	// Templates are the starter code shown to players.
	Templates map[lang.Language]string `yaml:"templates" json:"templates,omitempty"`

	// TestCases are judged in this order.
	TestCases []TestCase `yaml:"testCases" json:"testCases"`
}

// Decode reads a problem from YAML or JSON.
func Decode(r io.Reader) (*Problem, error) {
	var p Problem
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if err == io.EOF {
			return nil, errors.Wrap(ErrInvalidProblem, "empty document")
		}
		return nil, errors.Wrap(err, "failed to decode problem")
	}
	return &p, nil
}

// Signature returns the declared parameters of a language and whether there are any.
func (p *Problem) Signature(l lang.Language) (string, bool) {
	sig, ok := p.Parameters[l]
	return sig, ok
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that the problem can be judged. Language keys such as "CPP" or "js"
// are rewritten to their canonical names.
func (p *Problem) Validate() error {
	if !identifierPattern.MatchString(p.FunctionName) {
		return errors.Wrapf(ErrInvalidProblem, "function name '%s'", p.FunctionName)
	}
	if p.ClassName != "" && !identifierPattern.MatchString(p.ClassName) {
		return errors.Wrapf(ErrInvalidProblem, "class name '%s'", p.ClassName)
	}
	if len(p.TestCases) == 0 {
		return errors.Wrap(ErrInvalidProblem, "no test case")
	}
	if p.TestCases[0].IsHidden {
		return errors.Wrap(ErrInvalidProblem, "the first test case is hidden")
	}

	switch p.Difficulty {
	case "", Easy, Medium, Hard:
	default:
		return errors.Wrapf(ErrInvalidProblem, "difficulty '%s'", p.Difficulty)
	}
	if p.Category != "" && !validCategory(p.Category) {
		return errors.Wrapf(ErrInvalidProblem, "category '%s'", p.Category)
	}

	var err error
	if p.Parameters, err = canonicalKeys(p.Parameters); err != nil {
		return errors.Wrap(err, "parameters")
	}
	if p.Templates, err = canonicalKeys(p.Templates); err != nil {
		return errors.Wrap(err, "templates")
	}
	for l := range p.Templates {
		if _, ok := p.Parameters[l]; l.StaticallyTyped() && !ok {
			return errors.Wrapf(ErrInvalidProblem, "template for %s without parameters", l)
		}
	}
	return nil
}

// canonicalKeys returns m keyed by canonical language names.
func canonicalKeys(m map[lang.Language]string) (map[lang.Language]string, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[lang.Language]string, len(m))
	for key, v := range m {
		l, err := lang.Parse(string(key))
		if err != nil {
			return nil, errors.Wrap(ErrInvalidProblem, err.Error())
		}
		if _, ok := out[l]; ok {
			return nil, errors.Wrapf(ErrInvalidProblem, "%s given twice", l)
		}
		out[l] = v
	}
	return out, nil
}

func validCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Public returns a copy safe to show to players: hidden test cases keep their place
// but lose their data.
func (p *Problem) Public() *Problem {
	cp := *p
	cp.TestCases = make([]TestCase, len(p.TestCases))
	for i, tc := range p.TestCases {
		if tc.IsHidden {
			tc = TestCase{IsHidden: true}
		}
		cp.TestCases[i] = tc
	}
	return &cp
}

// Statement returns the statement best matching the preferred languages, falling back
// to the description.
func (p *Problem) Statement(preferred ...language.Tag) string {
	if len(p.Statements) == 0 {
		return p.Description
	}
	tags := make([]language.Tag, 0, len(p.Statements))
	for tag := range p.Statements {
		tags = append(tags, tag)
	}
	// Map order is random, so keep the fallback of the matcher stable.
	sortTags(tags)
	_, index, _ := language.NewMatcher(tags).Match(preferred...)
	return p.Statements[tags[index]]
}

// sortTags puts English first and the rest in alphabetical order.
func sortTags(tags []language.Tag) {
	sort.Slice(tags, func(i, j int) bool {
		if (tags[i] == language.English) != (tags[j] == language.English) {
			return tags[i] == language.English
		}
		return tags[i].String() < tags[j].String()
	})
}
