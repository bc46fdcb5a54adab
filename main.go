package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deadlock/handler"
	"deadlock/service/db"
	"deadlock/service/etc"
	"deadlock/service/judge"
	"deadlock/service/problem"
	"deadlock/service/sandbox"
	"deadlock/service/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	ginlogrus "github.com/toorop/gin-logrus"
)

// @title       Deadlock Judge API
// @version     dev
// @description Judging service for the Deadlock coding event.
// @basePath    /

func setupEnv(conf *etc.Configuration) *handler.Env {
	executor, err := sandbox.New(conf)
	if err != nil {
		log.WithError(err).Fatal("Failed to create sandbox")
	}
	env := &handler.Env{Judge: judge.New(executor), Executor: executor}

	if conf.Cache.Enabled {
		if err := db.SetupRedis(conf); err != nil {
			log.WithError(err).Fatal("Failed to set up verdict cache")
		}
		env.Judge.WithCache(judge.NewRedisCache(db.RDB, conf.Cache.TTL))
	}

	if conf.Database.Postgres.Enabled {
		if err := db.SetupPostgres(conf); err != nil {
			log.WithError(err).Fatal("Failed to set up postgres")
		}
		env.DB = db.PDB
	}

	if env.Storage, err = storage.FromConfig(conf); err != nil {
		log.WithError(err).Fatal("Failed to set up storage")
	}

	if conf.Problems.Repo != "" {
		if env.Bank, err = problem.OpenBank(conf.Problems.Repo, conf.Problems.Revision); err != nil {
			log.WithError(err).Warn("Problem bank disabled")
		}
	}
	return env
}

func setupRouter(env *handler.Env) *gin.Engine {
	r := gin.New()

	r.Use(ginlogrus.Logger(log.StandardLogger()), gin.Recovery())

	env.Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func main() {
	conf := etc.Config
	router := setupRouter(setupEnv(conf))
	srv := &http.Server{
		Addr:    conf.Server.Addr,
		Handler: router,
	}

	go func() {
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Error listening")
		}
	}()
	log.WithField("addr", conf.Server.Addr).Info("Server started")

	// Wait for interrupt signal to gracefully shut down the server with a timeout of 10 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("Server shutdown failed")
	}
	log.Info("Server exiting")
}
