// Package judge runs a submission against the test cases of a problem.
package judge

import (
	"context"
	"time"

	"deadlock/service/driver"
	"deadlock/service/language"
	"deadlock/service/problem"
	"deadlock/service/sandbox"
	"deadlock/service/verdict"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Submission is the code a player sends for a problem.
type Submission struct {
	Language language.Language `json:"language"`
	Code     string            `json:"code"`
}

// Report is the aggregate verdict of a submission.
type Report struct {
	verdict.Result

	// FailedCase is the index of the test case that decided a rejection, -1 when accepted.
	FailedCase int `json:"failedCase"`

	// Passed is the number of test cases accepted before the judging stopped.
	Passed int `json:"passed"`
	Total  int `json:"total"`

	// Harness is the generated program, empty when it could not be built.
	Harness string `json:"-"`
}

// Eval judges the i-th test case.
type Eval func(i int, tc *problem.TestCase) (*verdict.Result, error)

// Fold judges test cases in order and stops at the first one not accepted.
// An error from eval stops the fold as well and is returned as is.
func Fold(cases []problem.TestCase, eval Eval) (*Report, error) {
	report := &Report{Result: *verdict.Accept(), FailedCase: -1, Total: len(cases)}
	for i := range cases {
		res, err := eval(i, &cases[i])
		if err != nil {
			return nil, err
		}
		if !res.Success {
			report.Result = *res
			report.FailedCase = i
			return report, nil
		}
		report.Passed++
	}
	return report, nil
}

// Harness builds the program run for every test case of the problem.
func Harness(sub *Submission, p *problem.Problem) (string, error) {
	sig, ok := p.Signature(sub.Language)
	h, err := driver.NewHarness(sub.Language, sub.Code, p.ClassName, p.FunctionName, sig, ok)
	if err != nil {
		return "", err
	}
	return driver.Generate(sub.Language, h)
}

// Judge evaluates submissions on a sandbox.
type Judge struct {
	executor sandbox.Executor
	cache    Cache
}

// New creates a judge without cache.
func New(executor sandbox.Executor) *Judge {
	return &Judge{executor: executor}
}

// WithCache makes the judge reuse the verdicts of identical runs.
func (j *Judge) WithCache(cache Cache) *Judge {
	j.cache = cache
	return j
}

// run executes the harness on one test case.
func (j *Judge) run(
	ctx context.Context, lang language.Language, source string, tc *problem.TestCase,
) (*verdict.Result, error) {
	key := cacheKey(lang, source, tc)
	if j.cache != nil {
		res, ok, err := j.cache.Get(ctx, key)
		if err != nil {
			log.WithError(err).Warn("Failed to read verdict cache")
		} else if ok {
			cacheHits.Inc()
			return res, nil
		}
	}

	start := time.Now()
	out, err := j.executor.Execute(ctx, &sandbox.Request{
		Language: lang, Source: source, Stdin: tc.Input})
	sandboxDuration.WithLabelValues(lang.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		sandboxErrors.WithLabelValues(lang.String()).Inc()
		return nil, errors.Wrap(err, "failed to execute submission")
	}

	res := verdict.Decide(out, tc.Output)
	if j.cache != nil && out.Signal == "" {
		if err := j.cache.Set(ctx, key, res); err != nil {
			log.WithError(err).Warn("Failed to write verdict cache")
		}
	}
	return res, nil
}

// JudgeTestCase judges a submission on a single test case.
//
// A harness that can not be built from the problem is a runtime error. Errors are
// returned only for unknown languages and sandbox failures.
func (j *Judge) JudgeTestCase(
	ctx context.Context, sub *Submission, p *problem.Problem, tc *problem.TestCase,
) (*verdict.Result, error) {
	source, err := Harness(sub, p)
	if err != nil {
		if !driver.IsHarnessError(err) {
			return nil, err
		}
		res := verdict.Fail(err.Error())
		verdicts.WithLabelValues(sub.Language.String(), string(res.Verdict)).Inc()
		return res, nil
	}

	res, err := j.run(ctx, sub.Language, source, tc)
	if err != nil {
		return nil, err
	}
	verdicts.WithLabelValues(sub.Language.String(), string(res.Verdict)).Inc()
	return res, nil
}

// Judge judges a submission on every test case of the problem, stopping at the first
// failure.
func (j *Judge) Judge(ctx context.Context, sub *Submission, p *problem.Problem) (*Report, error) {
	logger := log.WithFields(log.Fields{"problem": p.Name, "language": sub.Language})

	source, err := Harness(sub, p)
	if err != nil {
		if !driver.IsHarnessError(err) {
			return nil, err
		}
		logger.WithError(err).Info("Failed to build harness")
		verdicts.WithLabelValues(sub.Language.String(), string(verdict.RuntimeError)).Inc()
		return &Report{
			Result:     *verdict.Fail(err.Error()),
			FailedCase: 0,
			Total:      len(p.TestCases),
		}, nil
	}

	report, err := Fold(p.TestCases, func(i int, tc *problem.TestCase) (*verdict.Result, error) {
		logger.WithField("case", i).Debug("Judging test case")
		res, err := j.run(ctx, sub.Language, source, tc)
		if err != nil {
			return nil, errors.Wrapf(err, "test case %d", i)
		}
		return res, nil
	})
	if err != nil {
		logger.WithError(err).Error("Failed to judge")
		return nil, err
	}
	report.Harness = source

	verdicts.WithLabelValues(sub.Language.String(), string(report.Verdict)).Inc()
	logger.WithFields(log.Fields{
		"verdict": report.Verdict,
		"passed":  report.Passed,
		"total":   report.Total,
	}).Info("Judged submission")
	return report, nil
}
