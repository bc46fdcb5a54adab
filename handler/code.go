package handler

import (
	"net/http"

	"deadlock/service/language"
	"deadlock/service/sandbox"
	"deadlock/utils"

	"github.com/gin-gonic/gin"
)

type codeFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type codeExecuteReq struct {
	Language string `json:"language" binding:"required"`

	// Version is accepted for compatibility, the runtime version is fixed per language.
	Version string     `json:"version"`
	Files   []codeFile `json:"files" binding:"required,len=1"`
	Stdin   string     `json:"stdin"`
	Args    []string   `json:"args"`
}

type codeExecuteResp struct {
	Output   string `json:"output"`
	Error    string `json:"error"`
	ExitCode int    `json:"exitCode"`
}

// @summary     CodeExecute
// @description Run a program as is, without harness nor verdict.
// @tags        code
// @accept      json
// @produce     json
// @param       codeExecuteReq body     codeExecuteReq true "Program"
// @success     200            {object} codeExecuteResp
// @failure     400            {object} any{error=string}
// @failure     503            {object} any{error=string,retry=bool}
// @router      /code/execute [post]
func (e *Env) HandleCodeExecute(c *gin.Context) {
	utils.SetHeaderNoCache(c)

	var req codeExecuteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lang, err := language.Parse(req.Language)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := e.Executor.Execute(c.Request.Context(), &sandbox.Request{
		Language: lang,
		Source:   req.Files[0].Content,
		Stdin:    req.Stdin,
		Args:     req.Args,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, codeExecuteResp{Output: res.Stdout, Error: res.Stderr, ExitCode: res.ExitCode})
}
