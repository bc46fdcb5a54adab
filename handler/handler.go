package handler

import (
	"net/http"

	"deadlock/service/judge"
	"deadlock/service/language"
	"deadlock/service/problem"
	"deadlock/service/sandbox"
	"deadlock/service/storage"
	"deadlock/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Env is what the handlers work with. Bank, Storage and DB may be nil.
type Env struct {
	Judge    *judge.Judge
	Executor sandbox.Executor
	Bank     *problem.Bank
	Storage  storage.Provider
	DB       *gorm.DB
}

// Register adds the routes of the handlers.
func (e *Env) Register(r gin.IRouter) {
	r.GET("/ping", HandlePing)

	j := r.Group("/judge")
	{
		j.POST("", e.HandleJudge)
		j.POST("/testcase", e.HandleJudgeTestCase)
	}

	r.POST("/code/execute", e.HandleCodeExecute)

	r.GET("/problem", e.HandleProblemList)
	r.GET("/problem/:name", e.HandleProblemGet)
	r.GET("/problem/:name/submissions", e.HandleSubmissionList)

	r.GET("/submission/:id", e.HandleSubmissionGet)
}

// @summary     Ping
// @description Check that the service is up.
// @tags        misc
// @produce     json
// @success     200 {object} any{message=string}
// @router      /ping [get]
func HandlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// respondError writes err with the status matching its cause.
//
// Sandbox failures are 503 with "retry": true so that the caller does not count them as
// an attempt.
func respondError(c *gin.Context, err error) {
	if sandbox.IsInfrastructure(err) {
		utils.AbortWithError(c, http.StatusServiceUnavailable, err, true)
		return
	}

	status := http.StatusInternalServerError
	switch errors.Cause(err) {
	case language.ErrUnsupportedLanguage, problem.ErrInvalidProblem:
		status = http.StatusBadRequest
	case problem.ErrProblemNotFound, plumbing.ErrReferenceNotFound, gorm.ErrRecordNotFound:
		status = http.StatusNotFound
	}
	utils.AbortWithError(c, status, err, false)
}
