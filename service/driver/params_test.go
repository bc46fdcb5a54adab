package driver

import (
	"testing"

	"deadlock/service/language"

	"github.com/pkg/errors"
)

func TestParseParams(t *testing.T) {
	cases := []struct {
		lang     language.Language
		sig      string
		expected []Param
	}{
		{language.Cpp, "", []Param{}},
		{language.Cpp, "int n", []Param{{KindInt, "int", "n"}}},
		{language.Cpp, "int n, int b", []Param{{KindInt, "int", "n"}, {KindInt, "int", "b"}}},
		{language.Cpp, "vector<int>& nums, int k", []Param{
			{KindIntArray, "vector<int>", "nums"}, {KindInt, "int", "k"},
		}},
		{language.Cpp, "const std::vector< int > &nums", []Param{
			{KindIntArray, "std::vector<int>", "nums"},
		}},
		{language.Cpp, "const string& s, char c", []Param{
			{KindString, "string", "s"}, {KindChar, "char", "c"},
		}},
		{language.Cpp, "long long  x", []Param{{KindInt, "long long", "x"}}},
		{language.Java, "int[] nums, String s", []Param{
			{KindIntArray, "int[]", "nums"}, {KindString, "String", "s"},
		}},
		{language.Java, "int nums[], long k", []Param{
			{KindIntArray, "int[]", "nums"}, {KindInt, "long", "k"},
		}},
	}

	for _, c := range cases {
		params, err := ParseParams(c.lang, c.sig)
		if err != nil {
			t.Errorf("parse %s '%s' should succeed, but %v", c.lang, c.sig, err)
			continue
		}
		if len(params) != len(c.expected) {
			t.Errorf("parse %s '%s' should give %d params, but %d", c.lang, c.sig, len(c.expected), len(params))
			continue
		}
		for i := range params {
			if params[i] != c.expected[i] {
				t.Errorf("param %d of '%s' should be %+v, but %+v", i, c.sig, c.expected[i], params[i])
			}
		}
	}
}

func TestParseParamsUnsupported(t *testing.T) {
	cases := []struct {
		lang language.Language
		sig  string
		err  error
	}{
		{language.Cpp, "vector<string> words", ErrUnsupportedType},
		{language.Cpp, "String s", ErrUnsupportedType},
		{language.Java, "string s", ErrUnsupportedType},
		{language.Java, "List<Integer> xs", ErrUnsupportedType},
		{language.Cpp, "map<int, int> m", ErrUnsupportedType},
		{language.Cpp, "int", ErrMalformedSignature},
		{language.Python, "int n", language.ErrUnsupportedLanguage},
	}
	for _, c := range cases {
		if _, err := ParseParams(c.lang, c.sig); errors.Cause(err) != c.err {
			t.Errorf("parse %s '%s' should fail with %v, but %v", c.lang, c.sig, c.err, err)
		}
	}
}

func TestSplitTopLevel(t *testing.T) {
	entries := splitTopLevel("map<int, int> m, int k ,")
	if len(entries) != 2 {
		t.Fatalf("should split into 2 entries, but %q", entries)
	}
	if entries[0] != "map<int, int> m" || entries[1] != "int k" {
		t.Errorf("unexpected entries %q", entries)
	}
}
