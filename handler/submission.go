package handler

import (
	"net/http"
	"strconv"

	"deadlock/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// @summary     SubmissionGet
// @description Get the verdict log of a submission.
// @tags        submission
// @produce     json
// @param       id  path     string true "Submission ID"
// @success     200 {object} model.Submission
// @failure     400 {object} any{error=string}
// @failure     404 {object} any{error=string}
// @failure     501 {object} any{error=string}
// @router      /submission/{id} [get]
func (e *Env) HandleSubmissionGet(c *gin.Context) {
	if e.DB == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "submissions are not recorded"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	s, err := model.GetSubmissionByID(e.DB, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// maxSubmissionList bounds the limit query of HandleSubmissionList.
const maxSubmissionList = 100

// @summary     SubmissionList
// @description List the latest verdict logs of a problem.
// @tags        submission
// @produce     json
// @param       name  path     string true  "Problem name"
// @param       limit query    int    false "Number of submissions, 20 by default"
// @success     200   {object} any{submissions=[]model.Submission}
// @failure     400   {object} any{error=string}
// @failure     501   {object} any{error=string}
// @router      /problem/{name}/submissions [get]
func (e *Env) HandleSubmissionList(c *gin.Context) {
	if e.DB == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "submissions are not recorded"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > maxSubmissionList {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	submissions, err := model.ListSubmissionsByProblem(e.DB, c.Param("name"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}
