package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"deadlock/service/judge"
	"deadlock/service/problem"
	"deadlock/service/sandbox"
	"deadlock/service/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/google/uuid"
)

const addOneYAML = `
title: Add One
description: Return n plus one.
statements:
  en: Return n plus one.
  fr: Renvoyer n plus un.
functionName: addOne
parameters:
  cpp: int n
tags: [math]
testCases:
  - input: "1"
    output: "2"
  - input: "41"
    output: "42"
    isHidden: true
`

type fakeExecutor struct {
	calls int
	run   func(req *sandbox.Request) (*sandbox.Result, error)
}

func (f *fakeExecutor) Execute(_ context.Context, req *sandbox.Request) (*sandbox.Result, error) {
	f.calls++
	return f.run(req)
}

func newTestBank(t *testing.T) *problem.Bank {
	t.Helper()
	fs := memfs.New()
	repo, err := git.Init(memory.NewStorage(), fs)
	if err != nil {
		t.Fatal(err)
	}
	f, err := fs.Create("add-one.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte(addOneYAML)); err != nil {
		t.Fatal(err)
	}
	f.Close()
	w, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Add("add-one.yaml"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Commit("add problem", &git.CommitOptions{
		Author: &object.Signature{Name: "deadlock", Email: "deadlock@localhost", When: time.Now()},
	}); err != nil {
		t.Fatal(err)
	}
	return problem.NewBank(repo, "HEAD")
}

// newTestEnv answers n+1 for every stdin n, as the add-one solution would.
func newTestEnv(t *testing.T) (*Env, *fakeExecutor, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fakeExecutor{run: func(req *sandbox.Request) (*sandbox.Result, error) {
		out := map[string]string{"1": "2", "41": "42"}[req.Stdin]
		return &sandbox.Result{Stdout: out + "\n"}, nil
	}}
	env := &Env{
		Judge:    judge.New(f),
		Executor: f,
		Bank:     newTestBank(t),
		Storage:  storage.NewLocal(memfs.New()),
	}
	r := gin.New()
	env.Register(r)
	return env, f, r
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response %q: %v", w.Body.String(), err)
	}
	return body
}

func TestPing(t *testing.T) {
	_, _, r := newTestEnv(t)
	w := do(r, http.MethodGet, "/ping", nil)
	if w.Code != http.StatusOK || decode(t, w)["message"] != "pong" {
		t.Errorf("ping should answer pong, but %d %s", w.Code, w.Body.String())
	}
}

func TestJudgeAccepted(t *testing.T) {
	env, f, r := newTestEnv(t)
	code := "class Solution:\n    def addOne(self, n):\n        return n + 1\n"
	w := do(r, http.MethodPost, "/judge", gin.H{"problem": "add-one", "language": "python", "code": code})
	if w.Code != http.StatusOK {
		t.Fatalf("status should be 200, but %d %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["verdict"] != "AC" || body["success"] != true || body["passed"] != float64(2) {
		t.Errorf("verdict should be AC, but %v", body)
	}
	if f.calls != 2 {
		t.Errorf("sandbox should be called for both cases, but %d", f.calls)
	}
	if w.Header().Get("Cache-Control") == "" {
		t.Error("judge responses should not be cached")
	}

	id, err := uuid.Parse(body["submission"].(string))
	if err != nil {
		t.Fatal(err)
	}
	source, err := env.Storage.Read(context.Background(), storage.SubmissionPath(id, "source", "python"))
	if err != nil || string(source) != code {
		t.Errorf("source should be archived, but %q, %v", source, err)
	}
}

func TestJudgeWrongAnswerInline(t *testing.T) {
	_, f, r := newTestEnv(t)
	w := do(r, http.MethodPost, "/judge", gin.H{
		"language": "js",
		"code":     "class Solution { addOne(n) { return n } }",
		"definition": gin.H{
			"functionName": "addOne",
			"testCases": []gin.H{
				{"input": "1", "output": "1"},
				{"input": "41", "output": "41"},
			},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status should be 200, but %d %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["verdict"] != "WRONG_ANSWER" || body["actual"] != "2" || body["expected"] != "1" {
		t.Errorf("verdict should be WRONG_ANSWER, but %v", body)
	}
	if body["failedCase"] != float64(0) || f.calls != 1 {
		t.Errorf("judging should stop at the first case, but %v after %d calls", body, f.calls)
	}
}

func TestJudgeErrors(t *testing.T) {
	_, _, r := newTestEnv(t)
	cases := []struct {
		body   gin.H
		status int
	}{
		{gin.H{"problem": "add-one"}, http.StatusBadRequest},
		{gin.H{"problem": "add-one", "language": "ruby"}, http.StatusBadRequest},
		{gin.H{"language": "python"}, http.StatusBadRequest},
		{gin.H{"problem": "missing", "language": "python"}, http.StatusNotFound},
		{gin.H{"problem": "add-one", "rev": "nope", "language": "python"}, http.StatusNotFound},
		{gin.H{"language": "python", "definition": gin.H{"functionName": "f"}}, http.StatusBadRequest},
	}
	for _, c := range cases {
		if w := do(r, http.MethodPost, "/judge", c.body); w.Code != c.status {
			t.Errorf("%v: status should be %d, but %d %s", c.body, c.status, w.Code, w.Body.String())
		}
	}
}

func TestJudgeSandboxUnavailable(t *testing.T) {
	_, f, r := newTestEnv(t)
	f.run = func(*sandbox.Request) (*sandbox.Result, error) {
		return nil, sandbox.ErrUnavailable
	}
	w := do(r, http.MethodPost, "/judge", gin.H{"problem": "add-one", "language": "python"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status should be 503, but %d", w.Code)
	}
	if body := decode(t, w); body["retry"] != true {
		t.Errorf("body should ask for a retry, but %v", body)
	}
}

func TestJudgeTestCase(t *testing.T) {
	_, f, r := newTestEnv(t)
	w := do(r, http.MethodPost, "/judge/testcase", gin.H{
		"problem":  "add-one",
		"language": "cpp",
		"code":     "class Solution { public: int addOne(int n) { return n + 1; } };",
		"testCase": gin.H{"input": "41", "output": "42"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status should be 200, but %d %s", w.Code, w.Body.String())
	}
	if body := decode(t, w); body["verdict"] != "AC" {
		t.Errorf("verdict should be AC, but %v", body)
	}
	if f.calls != 1 {
		t.Errorf("only the given case should run, but %d calls", f.calls)
	}

	w = do(r, http.MethodPost, "/judge/testcase", gin.H{"problem": "add-one", "language": "cpp"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("a missing test case should be rejected, but %d", w.Code)
	}
}

func TestCodeExecute(t *testing.T) {
	_, f, r := newTestEnv(t)
	f.run = func(req *sandbox.Request) (*sandbox.Result, error) {
		return &sandbox.Result{Stdout: "echo:" + req.Stdin + strings.Join(req.Args, ","), Stderr: "warn"}, nil
	}
	w := do(r, http.MethodPost, "/code/execute", gin.H{
		"language": "python",
		"version":  "3.10.0",
		"files":    []gin.H{{"content": "print(input())"}},
		"stdin":    "hi",
		"args":     []string{"a", "b"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status should be 200, but %d %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["output"] != "echo:hia,b" || body["error"] != "warn" {
		t.Errorf("unexpected response %v", body)
	}

	w = do(r, http.MethodPost, "/code/execute", gin.H{"language": "python", "files": []gin.H{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("a request without file should be rejected, but %d", w.Code)
	}
}

func TestProblem(t *testing.T) {
	_, _, r := newTestEnv(t)

	w := do(r, http.MethodGet, "/problem", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status should be 200, but %d %s", w.Code, w.Body.String())
	}
	problems := decode(t, w)["problems"].([]any)
	if len(problems) != 1 || problems[0].(map[string]any)["name"] != "add-one" {
		t.Errorf("unexpected problems %v", problems)
	}

	w = do(r, http.MethodGet, "/problem/add-one", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status should be 200, but %d %s", w.Code, w.Body.String())
	}
	var p problem.Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.TestCases[0].Input != "1" || p.TestCases[1].Input != "" {
		t.Errorf("hidden test cases should be blanked, but %+v", p.TestCases)
	}

	if w := do(r, http.MethodGet, "/problem/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("status should be 404, but %d", w.Code)
	}
}

func TestProblemStatement(t *testing.T) {
	_, _, r := newTestEnv(t)
	cases := map[string]string{
		"":                          "Return n plus one.",
		"fr-CH, fr;q=0.9, en;q=0.8": "Renvoyer n plus un.",
		"ja":                        "Return n plus one.",
		";;;":                       "Return n plus one.",
	}
	for header, statement := range cases {
		req := httptest.NewRequest(http.MethodGet, "/problem/add-one", nil)
		if header != "" {
			req.Header.Set("Accept-Language", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status should be 200, but %d %s", w.Code, w.Body.String())
		}
		if s := decode(t, w)["statement"]; s != statement {
			t.Errorf("statement for %q should be %q, but %v", header, statement, s)
		}
	}
}

func TestSubmissionWithoutDatabase(t *testing.T) {
	_, _, r := newTestEnv(t)
	if w := do(r, http.MethodGet, "/submission/"+uuid.New().String(), nil); w.Code != http.StatusNotImplemented {
		t.Errorf("status should be 501, but %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/problem/add-one/submissions", nil); w.Code != http.StatusNotImplemented {
		t.Errorf("listing status should be 501, but %d", w.Code)
	}
}
