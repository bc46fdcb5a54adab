package handler

import (
	"context"
	"net/http"

	"deadlock/model"
	"deadlock/service/judge"
	"deadlock/service/language"
	"deadlock/service/problem"
	"deadlock/service/storage"
	"deadlock/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type judgeReq struct {
	// Problem is the name of a problem of the bank.
	Problem string `json:"problem"`
	Rev     string `json:"rev"`

	// Definition is an inline problem used instead of the bank.
	Definition *problem.Problem `json:"definition"`

	Language string `json:"language" binding:"required"`
	Code     string `json:"code"`
}

type judgeTestCaseReq struct {
	judgeReq
	TestCase *problem.TestCase `json:"testCase" binding:"required"`
}

type judgeResp struct {
	*judge.Report
	Submission uuid.UUID `json:"submission"`
}

var errNoProblem = errors.Wrap(problem.ErrInvalidProblem, "neither problem nor definition given")

// resolve returns the problem of the request and the revision it was read at.
func (e *Env) resolve(req *judgeReq) (*problem.Problem, string, error) {
	if req.Definition != nil {
		if err := req.Definition.Validate(); err != nil {
			return nil, "", err
		}
		return req.Definition, "", nil
	}
	if req.Problem == "" {
		return nil, "", errNoProblem
	}
	if e.Bank == nil {
		return nil, "", errors.Wrapf(problem.ErrProblemNotFound, "no problem bank for '%s'", req.Problem)
	}
	p, err := e.Bank.Get(req.Problem, req.Rev)
	return p, req.Rev, err
}

func (req *judgeReq) submission() (*judge.Submission, error) {
	lang, err := language.Parse(req.Language)
	if err != nil {
		return nil, err
	}
	return &judge.Submission{Language: lang, Code: req.Code}, nil
}

// @summary     Judge
// @description Judge a submission on every test case of a problem, stopping at the first failure.
// @tags        judge
// @accept      json
// @produce     json
// @param       judgeReq body     judgeReq true "Submission and problem"
// @success     200      {object} judgeResp
// @failure     400      {object} any{error=string}
// @failure     404      {object} any{error=string}
// @failure     503      {object} any{error=string,retry=bool}
// @router      /judge [post]
func (e *Env) HandleJudge(c *gin.Context) {
	utils.SetHeaderNoCache(c)

	var req judgeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub, err := req.submission()
	if err != nil {
		respondError(c, err)
		return
	}
	p, rev, err := e.resolve(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := e.Judge.Judge(c.Request.Context(), sub, p)
	if err != nil {
		respondError(c, err)
		return
	}

	id := uuid.New()
	e.record(c.Request.Context(), id, p, rev, sub, report)
	c.JSON(http.StatusOK, judgeResp{Report: report, Submission: id})
}

// record archives and logs a judged submission. Failures are logged only.
func (e *Env) record(
	ctx context.Context, id uuid.UUID, p *problem.Problem, rev string,
	sub *judge.Submission, report *judge.Report,
) {
	logger := log.WithField("submission", id)
	if e.Storage != nil {
		if err := storage.Archive(ctx, e.Storage, id, sub.Language, sub.Code, report.Harness); err != nil {
			logger.WithError(err).Error("Failed to archive submission")
		}
	}
	if e.DB != nil {
		s := model.NewSubmission(id, p.Name, rev, p.Tags, sub, report)
		if err := model.CreateSubmission(e.DB, s); err != nil {
			logger.WithError(err).Error("Failed to save submission")
		}
	}
}

// @summary     JudgeTestCase
// @description Judge a submission on a single test case.
// @tags        judge
// @accept      json
// @produce     json
// @param       judgeTestCaseReq body     judgeTestCaseReq true "Submission, problem and test case"
// @success     200              {object} verdict.Result
// @failure     400              {object} any{error=string}
// @failure     404              {object} any{error=string}
// @failure     503              {object} any{error=string,retry=bool}
// @router      /judge/testcase [post]
func (e *Env) HandleJudgeTestCase(c *gin.Context) {
	utils.SetHeaderNoCache(c)

	var req judgeTestCaseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub, err := req.submission()
	if err != nil {
		respondError(c, err)
		return
	}
	p, _, err := e.resolve(&req.judgeReq)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := e.Judge.JudgeTestCase(c.Request.Context(), sub, p, req.TestCase)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
