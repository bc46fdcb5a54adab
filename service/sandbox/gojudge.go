package sandbox

import (
	"context"
	"strings"
	"sync"
	"time"

	"deadlock/service/language"

	"github.com/criyle/go-judge/pb"
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_logrus "github.com/grpc-ecosystem/go-grpc-middleware/logging/logrus"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	ErrJudgeNotFound = errors.New("judge not found")
	ErrJudgeExists   = errors.New("judge already exists")
)

// Toolchain tells go-judge how to build and start a program.
type Toolchain struct {
	// Source is the file name the source code is written to.
	Source string

	// Compile is the compiler command. Empty for interpreted languages.
	Compile []string

	// Binary is the compiler output kept between the compile and the run step.
	Binary string

	// Run is the command starting the program. Request arguments are appended.
	Run []string
}

// DefaultToolchains is used for languages missing from the configuration.
var DefaultToolchains = map[language.Language]Toolchain{
	language.Python: {
		Source: "main.py",
		Run:    []string{"/usr/bin/python3", "main.py"},
	},
	language.JavaScript: {
		Source: "main.js",
		Run:    []string{"/usr/bin/node", "main.js"},
	},
	language.Java: {
		Source: "Main.java",
		Run:    []string{"/usr/bin/java", "Main.java"},
	},
	language.Cpp: {
		Source:  "main.cpp",
		Compile: []string{"/usr/bin/g++", "-O2", "-std=c++17", "main.cpp", "-o", "main"},
		Binary:  "main",
		Run:     []string{"main"},
	},
}

// Server is a connection to one go-judge instance.
type Server struct {
	client pb.ExecutorClient
	jobs   chan *Job
}

func newServer(client pb.ExecutorClient) *Server {
	return &Server{client: client, jobs: make(chan *Job, 64)}
}

func (s *Server) runTask(parentCtx context.Context, abort context.CancelFunc, task *Task) {
	ctx, cancel := context.WithTimeout(
		parentCtx, time.Duration(2*task.TimeLimit)+30*time.Second)
	defer cancel()

	res, err := s.client.Exec(ctx, task.toPb())
	if err == nil && len(res.Results) == 0 {
		err = errors.Wrap(ErrBadResponse, "no result")
	}
	if err != nil {
		select {
		case <-parentCtx.Done():
		default:
			abort()
			log.WithField("task", task.ID).WithError(err).Error("Failed to execute")
			task.Callback(nil, err)
		}
		return
	}

	log.WithField("task", task.ID).Debug("Executed")
	if !task.Callback(res.Results[0], nil) {
		log.WithField("task", task.ID).Debug("Aborted by callback")
		abort()
	}
}

func (s *Server) process(job *Job) {
	ctx, abort := context.WithCancel(job.ctx)
	defer abort()

	wg := sync.WaitGroup{}
	wg.Add(len(job.Tasks))
	for _, task := range job.Tasks {
		go func(task *Task) {
			defer wg.Done()
			s.runTask(ctx, abort, task)
		}(task)
	}
	wg.Wait()

	if ctx.Err() != nil {
		log.WithField("job", job.ID).Debug("Job aborted")
		return
	}
	if job.Next != nil {
		s.jobs <- job.Next
	}
}

func (s *Server) start() {
	go func() {
		for job := range s.jobs {
			go s.process(job)
		}
	}()
}

// Submit queues a job.
func (s *Server) Submit(job *Job) {
	s.jobs <- job
}

// FileDelete removes a file from the go-judge file store.
func (s *Server) FileDelete(ctx context.Context, fileID string) error {
	_, err := s.client.FileDelete(ctx, &pb.FileID{FileID: fileID})
	return err
}

// GoJudge executes programs on a pool of go-judge servers.
type GoJudge struct {
	mu      sync.RWMutex
	servers map[string]*Server

	toolchains map[language.Language]Toolchain

	timeout     time.Duration
	timeLimit   uint64
	memoryLimit uint64
	stdoutLimit int64
	stderrLimit int64
}

// NewGoJudge creates an empty pool using the given toolchains on top of the defaults.
func NewGoJudge(toolchains map[language.Language]Toolchain) *GoJudge {
	merged := make(map[language.Language]Toolchain, len(DefaultToolchains))
	for lang, tc := range DefaultToolchains {
		merged[lang] = tc
	}
	for lang, tc := range toolchains {
		merged[lang] = tc
	}
	return &GoJudge{
		servers:    map[string]*Server{},
		toolchains: merged,
		timeout:    30 * time.Second,
	}
}

// WithTimeout bounds a whole execution, compilation included. Zero disables it.
func (g *GoJudge) WithTimeout(timeout time.Duration) *GoJudge {
	g.timeout = timeout
	return g
}

// WithLimits sets the run limits: time in nanoseconds, memory and output in bytes.
func (g *GoJudge) WithLimits(timeLimit, memoryLimit uint64, stdoutLimit, stderrLimit int64) *GoJudge {
	g.timeLimit = timeLimit
	g.memoryLimit = memoryLimit
	g.stdoutLimit = stdoutLimit
	g.stderrLimit = stderrLimit
	return g
}

func (g *GoJudge) add(id string, s *Server) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.servers[id]; ok {
		return ErrJudgeExists
	}
	s.start()
	g.servers[id] = s
	return nil
}

// AddAndStart connects to a go-judge server and adds it to the pool.
func (g *GoJudge) AddAndStart(id string, host string, token string) error {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(grpc_middleware.ChainUnaryClient(
			grpc_prometheus.UnaryClientInterceptor,
			grpc_logrus.UnaryClientInterceptor(log.NewEntry(log.StandardLogger())),
		)),
		grpc.WithStreamInterceptor(grpc_middleware.ChainStreamClient(
			grpc_prometheus.StreamClientInterceptor,
			grpc_logrus.StreamClientInterceptor(log.NewEntry(log.StandardLogger())),
		)),
	}
	if token != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(tokenAuth(token)))
	}
	conn, err := grpc.Dial(host, opts...)
	if err != nil {
		return errors.Wrapf(err, "failed to dial judge %s", id)
	}
	return g.add(id, newServer(pb.NewExecutorClient(conn)))
}

// GetIdleServer returns the server with the fewest queued jobs.
func (g *GoJudge) GetIdleServer() (string, *Server, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var (
		idleID string
		idle   *Server
	)
	for id, s := range g.servers {
		if idle == nil || len(s.jobs) < len(idle.jobs) {
			idle, idleID = s, id
		}
	}
	if idle == nil {
		return "", nil, ErrJudgeNotFound
	}
	return idleID, idle, nil
}

type outcome struct {
	res *Result
	err error
}

// Execute runs a program on the least busy server, compiling it first if its toolchain
// has a compile step.
func (g *GoJudge) Execute(ctx context.Context, req *Request) (*Result, error) {
	tc, ok := g.toolchains[req.Language]
	if !ok {
		return nil, errors.Wrapf(language.ErrUnsupportedLanguage, "'%s'", req.Language)
	}
	id, server, err := g.GetIdleServer()
	if err != nil {
		return nil, err
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	finish := func(res *Result, err error) {
		select {
		case done <- outcome{res, err}:
		default:
		}
	}

	run := NewTask(append(append([]string{}, tc.Run...), req.Args...)...).
		WithLimits(g.timeLimit, g.memoryLimit).
		WithOutputLimits(g.stdoutLimit, g.stderrLimit).
		WithStdin([]byte(req.Stdin)).
		WithCallback(func(r *pb.Response_Result, err error) bool {
			finish(toResult(r, err))
			return true
		})

	job := NewJob(ctx)
	var (
		binaryID string
		binaryMu sync.Mutex
	)
	if len(tc.Compile) == 0 {
		job.Run(run.WithFile(tc.Source, []byte(req.Source)))
	} else {
		compile := NewTask(tc.Compile...).
			WithLimits(g.timeLimit*2, g.memoryLimit).
			WithOutputLimits(g.stdoutLimit, g.stderrLimit).
			WithFile(tc.Source, []byte(req.Source)).
			WithKeep(tc.Binary).
			WithCallback(func(r *pb.Response_Result, err error) bool {
				if err != nil || r.Status != pb.Response_Result_Accepted {
					finish(toResult(r, err))
					return false
				}
				fileID, ok := r.FileIDs[tc.Binary]
				if !ok {
					finish(nil, errors.Wrapf(ErrBadResponse, "binary %s not kept", tc.Binary))
					return false
				}
				binaryMu.Lock()
				binaryID = fileID
				binaryMu.Unlock()
				return true
			})
		job.Run(compile).Then(run.WithCachedFile(tc.Binary, &binaryID))
	}

	log.WithFields(log.Fields{"judge": id, "job": job.ID, "language": req.Language}).
		Debug("Submitting job")
	server.Submit(job)

	var o outcome
	select {
	case o = <-done:
	case <-ctx.Done():
		o.err = errors.Wrap(ctx.Err(), "go-judge execution")
	}

	if len(tc.Compile) > 0 {
		binaryMu.Lock()
		fileID := binaryID
		binaryMu.Unlock()
		if fileID != "" {
			if err := server.FileDelete(context.Background(), fileID); err != nil {
				log.WithError(err).WithField("file", fileID).Warn("Failed to delete binary")
			}
		}
	}
	return o.res, o.err
}

// toResult converts a go-judge result. Failures of go-judge itself become errors.
func toResult(r *pb.Response_Result, err error) (*Result, error) {
	if err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	switch r.Status {
	case pb.Response_Result_InternalError, pb.Response_Result_FileError:
		return nil, errors.Wrapf(ErrUnavailable, "go-judge %s: %s", r.Status, r.Error)
	}

	res := &Result{
		Stdout:   string(r.Files["stdout"]),
		Stderr:   string(r.Files["stderr"]),
		ExitCode: int(r.ExitStatus),
	}
	switch r.Status {
	case pb.Response_Result_Signalled, pb.Response_Result_TimeLimitExceeded:
		res.Signal = r.Status.String()
	}
	if r.Status != pb.Response_Result_Accepted {
		if res.ExitCode == 0 {
			res.ExitCode = 1
		}
		if strings.TrimSpace(res.Stderr) == "" {
			res.Stderr = r.Status.String()
		}
	}
	return res, nil
}

type tokenAuth string

// GetRequestMetadata return value is mapped to request headers.
func (t tokenAuth) GetRequestMetadata(_ context.Context, _ ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(t)}, nil
}

func (tokenAuth) RequireTransportSecurity() bool { return false }
