package verdict

import (
	"testing"

	"deadlock/service/sandbox"
)

func TestCompare(t *testing.T) {
	cases := []struct {
		actual, expected string
		verdict          Verdict
	}{
		{"True", "true", Accepted},
		{"FALSE\n", "false", Accepted},
		{"TRUE", "false", WrongAnswer},
		{"[1, 2, 3]", "[1,2,3]", Accepted},
		{"[ [1, 2], [3] ]\n", "[[1,2],[3]]", Accepted},
		{"['a', 'b']", `["a","b"]`, Accepted},
		{`["a", "b"]`, "['a','b']", Accepted},
		{`"hello"`, "hello", Accepted},
		{`"hello"`, `"hello"`, Accepted},
		{"hello", `"hello"`, WrongAnswer},
		{"  42 \n", "42", Accepted},
		{"42", "43", WrongAnswer},
		{"[1, 2", "[1,2", WrongAnswer},
		{`{"b": 1, "a": 2}`, `{"a":2,"b":1}`, WrongAnswer},
		{"[1.0, 2]", "[1,2]", Accepted},
		{"", "", Accepted},
	}
	for _, c := range cases {
		res := Compare(c.actual, c.expected)
		if res.Verdict != c.verdict {
			t.Errorf("Compare(%q, %q) should be %s, but %s", c.actual, c.expected, c.verdict, res.Verdict)
		}
		if res.Success != (res.Verdict == Accepted) {
			t.Errorf("Compare(%q, %q): success must be set iff accepted", c.actual, c.expected)
		}
	}
}

func TestCompareDiagnostics(t *testing.T) {
	res := Compare("TRUE", "False")
	if res.Actual != "true" || res.Expected != "false" {
		t.Errorf("canonical values should be kept, but %+v", res)
	}
	res = Compare("[1, 2]", "[2,1]")
	if res.Actual != "[1,2]" || res.Expected != "[2,1]" {
		t.Errorf("canonical values should be kept, but %+v", res)
	}
}

func TestDecide(t *testing.T) {
	res := Decide(&sandbox.Result{Stdout: "2\n", ExitCode: 0}, "2")
	if res.Verdict != Accepted || !res.Success {
		t.Errorf("verdict should be AC, but %+v", res)
	}

	res = Decide(&sandbox.Result{Stdout: "2", Stderr: "  boom\n", ExitCode: 1}, "2")
	if res.Verdict != RuntimeError || res.Success {
		t.Errorf("a failed program should be a runtime error even with matching output, but %+v", res)
	}
	if res.Error != "boom" {
		t.Errorf("error should be \"boom\", but %q", res.Error)
	}

	res = Decide(&sandbox.Result{ExitCode: 137}, "2")
	if res.Error != DefaultRuntimeError {
		t.Errorf("error should be %q, but %q", DefaultRuntimeError, res.Error)
	}
}

func TestCanonicalize(t *testing.T) {
	cases := map[string]string{
		" tRuE ":        "true",
		"[ ]":           "[]",
		"{'a': [1, 2]}": `{"a":[1,2]}`,
		"[it's]":        "[it's]",
		"truthy":        "truthy",
		"\"x\"":         "\"x\"",
	}
	for in, out := range cases {
		if got := Canonicalize(in); got != out {
			t.Errorf("Canonicalize(%q) should be %q, but %q", in, out, got)
		}
	}
}

func TestReformat(t *testing.T) {
	cases := map[string]string{
		"[1.0, 2.50, -0]":          "[1,2.5,0]",
		`{"2": 1, "a": 2, "1": 3}`: `{"1":3,"2":1,"a":2}`,
		`{"01": 1, "a": 2}`:        `{"01":1,"a":2}`,
		`{"a": 1, "b": 2, "a": 3}`: `{"a":3,"b":2}`,
		`["<&>", "é"]`:             `["<&>","é"]`,
		`["\u0001\n"]`:             `["\u0001\n"]`,
		"[1e21, 1e-7, 100]":        "[1e+21,1e-7,100]",
		"[true, null, false]":      "[true,null,false]",
		`{"a": {"b": []}}`:         `{"a":{"b":[]}}`,
	}
	for in, out := range cases {
		got, err := Reformat(in)
		if err != nil {
			t.Errorf("Reformat(%q): %v", in, err)
			continue
		}
		if got != out {
			t.Errorf("Reformat(%q) should be %q, but %q", in, out, got)
		}
	}

	for _, in := range []string{"[1] x", "[1,]", "{'a':1}", "[01]", ""} {
		if _, err := Reformat(in); err == nil {
			t.Errorf("Reformat(%q) should fail", in)
		}
	}
}
