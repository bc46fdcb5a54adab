package language

import (
	"strings"

	"github.com/pkg/errors"
)

// Language is a programming language a submission can be written in.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	Cpp        Language = "cpp"
	Java       Language = "java"
)

// ErrUnsupportedLanguage is returned for a language name outside of the fixed enumeration.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// All is every supported language, in a stable order.
var All = []Language{Python, JavaScript, Cpp, Java}

var aliases = map[string]Language{
	"python":     Python,
	"javascript": JavaScript,
	"js":         JavaScript,
	"cpp":        Cpp,
	"java":       Java,
}

// Parse resolves a language name. "js" is accepted as an alias of "javascript".
func Parse(name string) (Language, error) {
	lang, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", errors.Wrapf(ErrUnsupportedLanguage, "'%s'", name)
	}
	return lang, nil
}

// StaticallyTyped reports whether harnesses for the language need declared parameter types.
func (l Language) StaticallyTyped() bool {
	return l == Cpp || l == Java
}

func (l Language) String() string {
	return string(l)
}
