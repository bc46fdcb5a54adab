// Package verdict compares program output with the expected answer.
//
// Both sides are canonicalized before the comparison so that the same value printed by
// different runtimes compares equal:
//
//  1. Surrounding whitespace is trimmed.
//  2. "true" and "false" in any letter case become lowercase.
//  3. Text starting with '[' or '{' is read as JSON, single quotes standing in for double
//     quotes, and written back compactly. Text that does not parse is kept as is.
//  4. A double-quoted actual output is unwrapped when the expected output is not quoted.
//
// A program exiting with a non-zero status is a runtime error whatever it printed.
package verdict

import (
	"strings"

	"deadlock/service/sandbox"
)

// Verdict is the outcome of one test case.
type Verdict string

const (
	Accepted     Verdict = "AC"
	WrongAnswer  Verdict = "WRONG_ANSWER"
	RuntimeError Verdict = "RUNTIME_ERROR"
)

// DefaultRuntimeError is reported when a failed program left nothing on stderr.
const DefaultRuntimeError = "Runtime Error"

// Result is a verdict with its diagnostics.
type Result struct {
	Success  bool    `json:"success"`
	Verdict  Verdict `json:"verdict"`
	Actual   string  `json:"actual,omitempty"`
	Expected string  `json:"expected,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// Accept returns an accepted result.
func Accept() *Result {
	return &Result{Success: true, Verdict: Accepted}
}

// Fail returns a runtime error result carrying msg.
func Fail(msg string) *Result {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = DefaultRuntimeError
	}
	return &Result{Verdict: RuntimeError, Error: msg}
}

// Canonicalize trims s and rewrites booleans and JSON documents into their canonical form.
func Canonicalize(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, "true"):
		return "true"
	case strings.EqualFold(s, "false"):
		return "false"
	case strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{"):
		if compact, err := Reformat(strings.ReplaceAll(s, "'", `"`)); err == nil {
			return compact
		}
	}
	return s
}

func quoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

// Compare decides between accepted and wrong answer for a program that exited normally.
func Compare(actual, expected string) *Result {
	actual, expected = Canonicalize(actual), Canonicalize(expected)
	if quoted(actual) && !quoted(expected) {
		actual = actual[1 : len(actual)-1]
	}
	if actual == expected {
		return Accept()
	}
	return &Result{Verdict: WrongAnswer, Actual: actual, Expected: expected}
}

// Decide turns a sandbox result into a verdict.
func Decide(res *sandbox.Result, expected string) *Result {
	if res.ExitCode != 0 {
		return Fail(res.Stderr)
	}
	return Compare(res.Stdout, expected)
}
