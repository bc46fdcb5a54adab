package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"deadlock/service/language"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultPistonURL is the public Piston endpoint.
const DefaultPistonURL = "https://emkc.org/api/v2/piston"

// maxResponseSize bounds the body read from the service.
const maxResponseSize = 16 << 20

// Runtime is the name and version Piston knows a language by.
type Runtime struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Filename string `json:"-"`
}

// Runtimes is the fixed runtime table.
var Runtimes = map[language.Language]Runtime{
	language.Python:     {Language: "python", Version: "3.10.0", Filename: "main.py"},
	language.JavaScript: {Language: "javascript", Version: "18.15.0", Filename: "main.js"},
	language.Java:       {Language: "java", Version: "15.0.2", Filename: "Main.java"},
	language.Cpp:        {Language: "cpp", Version: "10.2.0", Filename: "main.cpp"},
}

type pistonFile struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

type pistonRequest struct {
	Language       string       `json:"language"`
	Version        string       `json:"version"`
	Files          []pistonFile `json:"files"`
	Stdin          string       `json:"stdin"`
	Args           []string     `json:"args,omitempty"`
	CompileTimeout int64        `json:"compile_timeout,omitempty"`
	RunTimeout     int64        `json:"run_timeout,omitempty"`
}

type pistonStage struct {
	Stdout string  `json:"stdout"`
	Stderr string  `json:"stderr"`
	Output string  `json:"output"`
	Code   *int    `json:"code"`
	Signal *string `json:"signal"`
}

type pistonResponse struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Compile  *pistonStage `json:"compile"`
	Run      *pistonStage `json:"run"`
	Message  string       `json:"message"`
}

// Piston executes programs through the Piston HTTP API.
type Piston struct {
	url    string
	client *http.Client

	// timeout bounds every single round-trip.
	timeout time.Duration

	// retries is the number of extra attempts after a transport failure, a 5xx or a 429.
	retries int
	backoff time.Duration

	compileTimeout time.Duration
	runTimeout     time.Duration
}

// NewPiston creates a Piston client for the API rooted at url.
func NewPiston(url string) *Piston {
	if url == "" {
		url = DefaultPistonURL
	}
	return &Piston{
		url:     strings.TrimRight(url, "/"),
		client:  &http.Client{},
		timeout: 30 * time.Second,
		backoff: 500 * time.Millisecond,
	}
}

// WithHTTPClient sets the HTTP client.
func (p *Piston) WithHTTPClient(client *http.Client) *Piston {
	p.client = client
	return p
}

// WithTimeout sets the deadline of a single round-trip. Zero disables it.
func (p *Piston) WithTimeout(timeout time.Duration) *Piston {
	p.timeout = timeout
	return p
}

// WithRetries sets how many times a failed round-trip is retried, waiting
// backoff, 2*backoff, 4*backoff, ... in between.
func (p *Piston) WithRetries(retries int, interval time.Duration) *Piston {
	if retries < 0 {
		retries = 0
	}
	p.retries = retries
	p.backoff = interval
	return p
}

// WithStageTimeouts sets the compile and run timeouts enforced by Piston itself.
func (p *Piston) WithStageTimeouts(compile, run time.Duration) *Piston {
	p.compileTimeout = compile
	p.runTimeout = run
	return p
}

// Execute runs a program on Piston.
func (p *Piston) Execute(ctx context.Context, req *Request) (*Result, error) {
	runtime, ok := Runtimes[req.Language]
	if !ok {
		return nil, errors.Wrapf(language.ErrUnsupportedLanguage, "'%s'", req.Language)
	}

	body, err := json.Marshal(&pistonRequest{
		Language:       runtime.Language,
		Version:        runtime.Version,
		Files:          []pistonFile{{Name: runtime.Filename, Content: req.Source}},
		Stdin:          req.Stdin,
		Args:           req.Args,
		CompileTimeout: p.compileTimeout.Milliseconds(),
		RunTimeout:     p.runTimeout.Milliseconds(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode piston request")
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.backoff
	policy.RandomizationFactor = 0
	policy.Multiplier = 2
	policy.MaxElapsedTime = 0

	attempt := 0
	res, err := backoff.RetryNotifyWithData(func() (*Result, error) {
		attempt++
		res, retry, err := p.roundTrip(ctx, body)
		if err != nil && (!retry || ctx.Err() != nil) {
			return nil, backoff.Permanent(err)
		}
		return res, err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(p.retries)), ctx),
		func(err error, wait time.Duration) {
			log.WithError(err).WithFields(log.Fields{
				"attempt": attempt,
				"wait":    wait,
			}).Warn("Piston request failed")
		})
	// The backoff returns the bare context error when the wait is interrupted.
	if err != nil && err == ctx.Err() {
		return nil, errors.Wrap(err, "piston execution")
	}
	return res, err
}

// roundTrip performs one request. The boolean reports whether a retry may succeed.
func (p *Piston) roundTrip(ctx context.Context, body []byte) (*Result, bool, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, p.url+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to create piston request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, true, errors.Wrap(ctx.Err(), "piston execution")
		}
		return nil, true, errors.Wrap(ErrUnavailable, err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, true, errors.Wrap(ErrUnavailable, err.Error())
	}

	var pr pistonResponse
	decodeErr := json.Unmarshal(data, &pr)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, errors.Wrapf(ErrUnavailable, "piston status %d: %s", resp.StatusCode, pr.Message)
	case resp.StatusCode != http.StatusOK:
		return nil, false, errors.Wrapf(ErrRejected, "piston status %d: %s", resp.StatusCode, pr.Message)
	case decodeErr != nil:
		return nil, false, errors.Wrap(ErrBadResponse, decodeErr.Error())
	}

	res, err := pr.result()
	return res, false, err
}

func (r *pistonResponse) result() (*Result, error) {
	if r.Compile != nil {
		if code := r.Compile.exitCode(); code != 0 {
			return &Result{
				Stdout:   r.Compile.Stdout,
				Stderr:   r.Compile.errorText(),
				ExitCode: code,
			}, nil
		}
	}
	if r.Run == nil {
		return nil, errors.Wrap(ErrBadResponse, "no run stage")
	}
	res := &Result{
		Stdout:   r.Run.Stdout,
		Stderr:   r.Run.errorText(),
		ExitCode: r.Run.exitCode(),
	}
	if r.Run.Signal != nil {
		res.Signal = *r.Run.Signal
	}
	return res, nil
}

// exitCode treats a stage killed by a signal as failed even though Piston reports no code.
func (s *pistonStage) exitCode() int {
	if s.Code != nil {
		return *s.Code
	}
	if s.Signal != nil && *s.Signal != "" {
		return 1
	}
	return 0
}

func (s *pistonStage) errorText() string {
	if s.Stderr == "" && s.Code == nil && s.Signal != nil && *s.Signal != "" {
		return fmt.Sprintf("killed by %s", *s.Signal)
	}
	return s.Stderr
}
