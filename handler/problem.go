package handler

import (
	"net/http"

	"deadlock/service/problem"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

type problemResp struct {
	*problem.Problem

	// Statement is the statement in the language the client prefers.
	Statement string `json:"statement"`
}

func (e *Env) bank() (*problem.Bank, error) {
	if e.Bank == nil {
		return nil, errors.Wrap(problem.ErrProblemNotFound, "no problem bank")
	}
	return e.Bank, nil
}

// @summary     ProblemList
// @description List all problems. Hidden test cases are blanked.
// @tags        problem
// @produce     json
// @param       rev query    string false "Revision of the problem repository"
// @success     200 {object} any{problems=[]problem.Problem}
// @failure     404 {object} any{error=string}
// @failure     500 {object} any{error=string}
// @router      /problem [get]
func (e *Env) HandleProblemList(c *gin.Context) {
	bank, err := e.bank()
	if err != nil {
		respondError(c, err)
		return
	}
	problems, err := bank.List(c.Query("rev"))
	if err != nil {
		respondError(c, err)
		return
	}

	public := make([]*problem.Problem, len(problems))
	for i, p := range problems {
		public[i] = p.Public()
	}
	c.JSON(http.StatusOK, gin.H{"problems": public})
}

// @summary     ProblemGet
// @description Get a problem with the statement matching Accept-Language. Hidden test cases are blanked.
// @tags        problem
// @produce     json
// @param       name            path     string true  "Problem name"
// @param       rev             query    string false "Revision of the problem repository"
// @param       Accept-Language header   string false "Preferred statement languages"
// @success     200  {object} problemResp
// @failure     404  {object} any{error=string}
// @failure     500  {object} any{error=string}
// @router      /problem/{name} [get]
func (e *Env) HandleProblemGet(c *gin.Context) {
	bank, err := e.bank()
	if err != nil {
		respondError(c, err)
		return
	}
	p, err := bank.Get(c.Param("name"), c.Query("rev"))
	if err != nil {
		respondError(c, err)
		return
	}
	// A malformed header falls back to the default statement.
	preferred, _, _ := language.ParseAcceptLanguage(c.GetHeader("Accept-Language"))
	c.JSON(http.StatusOK, problemResp{Problem: p.Public(), Statement: p.Statement(preferred...)})
}
