package sandbox

import (
	"context"

	"github.com/criyle/go-judge/pb"
	"github.com/google/uuid"
)

const (
	DefaultTimeLimit   = 5 * 1000 * 1000 * 1000 // 5 second
	DefaultMemoryLimit = 256 * 1024 * 1024      // 256 MB
	DefaultStdoutLimit = 64 * 1024 * 1024       // 64 MB
	DefaultStderrLimit = 64 * 1024              // 64 kB
)

// DefaultEnv is the environment every command starts with.
var DefaultEnv = []string{"PATH=/usr/local/bin:/usr/bin:/bin", "HOME=/tmp"}

// Callback is called once a task is finished, with either its result or the error
// that prevented it from running. Returning false aborts the rest of the job.
type Callback func(*pb.Response_Result, error) bool

// Task is a single command run inside go-judge.
type Task struct {
	ID uuid.UUID

	Args []string
	Env  []string

	// TimeLimit is the CPU time limit in nanoseconds. The wall clock limit is twice as much.
	TimeLimit uint64

	// MemoryLimit is in bytes.
	MemoryLimit uint64

	// StdoutLimit and StderrLimit cap the captured streams in bytes.
	StdoutLimit int64
	StderrLimit int64

	Stdin []byte

	// Files are copied into the working directory before the command starts.
	Files map[string][]byte

	// CachedFiles are copied in from the go-judge file store.
	// Values are pointers so an earlier task of the same job can fill them in.
	CachedFiles map[string]*string

	// Keep lists the files stored in the go-judge file store after the command exits.
	Keep []string

	Callback Callback
}

// NewTask creates a task with the default limits.
func NewTask(args ...string) *Task {
	return &Task{
		ID:          uuid.New(),
		Args:        args,
		Env:         DefaultEnv,
		TimeLimit:   DefaultTimeLimit,
		MemoryLimit: DefaultMemoryLimit,
		StdoutLimit: DefaultStdoutLimit,
		StderrLimit: DefaultStderrLimit,
		Files:       map[string][]byte{},
		CachedFiles: map[string]*string{},
		Callback: func(*pb.Response_Result, error) bool {
			return true
		},
	}
}

// WithLimits sets the time limit in nanoseconds and the memory limit in bytes.
// Zero leaves a limit unchanged.
func (t *Task) WithLimits(timeLimit, memoryLimit uint64) *Task {
	if timeLimit > 0 {
		t.TimeLimit = timeLimit
	}
	if memoryLimit > 0 {
		t.MemoryLimit = memoryLimit
	}
	return t
}

// WithOutputLimits sets the stdout and stderr limits in bytes.
// Zero leaves a limit unchanged.
func (t *Task) WithOutputLimits(stdout, stderr int64) *Task {
	if stdout > 0 {
		t.StdoutLimit = stdout
	}
	if stderr > 0 {
		t.StderrLimit = stderr
	}
	return t
}

func (t *Task) WithStdin(stdin []byte) *Task {
	t.Stdin = stdin
	return t
}

func (t *Task) WithFile(path string, data []byte) *Task {
	t.Files[path] = data
	return t
}

func (t *Task) WithCachedFile(path string, fileID *string) *Task {
	t.CachedFiles[path] = fileID
	return t
}

func (t *Task) WithKeep(paths ...string) *Task {
	t.Keep = append(t.Keep, paths...)
	return t
}

func (t *Task) WithCallback(callback Callback) *Task {
	t.Callback = callback
	return t
}

func memoryFile(content []byte) *pb.Request_File {
	return &pb.Request_File{
		File: &pb.Request_File_Memory{Memory: &pb.Request_MemoryFile{Content: content}}}
}

func pipe(name string, max int64) *pb.Request_File {
	return &pb.Request_File{
		File: &pb.Request_File_Pipe{Pipe: &pb.Request_PipeCollector{Name: name, Max: max}}}
}

// toPb builds the go-judge request. Cached files win over plain files of the same name.
func (t *Task) toPb() *pb.Request {
	copyIn := make(map[string]*pb.Request_File, len(t.Files)+len(t.CachedFiles))
	for path, data := range t.Files {
		copyIn[path] = memoryFile(data)
	}
	for path, id := range t.CachedFiles {
		if id == nil || *id == "" {
			continue
		}
		copyIn[path] = &pb.Request_File{
			File: &pb.Request_File_Cached{Cached: &pb.Request_CachedFile{FileID: *id}}}
	}

	keep := make([]*pb.Request_CmdCopyOutFile, len(t.Keep))
	for i, path := range t.Keep {
		keep[i] = &pb.Request_CmdCopyOutFile{Name: path}
	}

	stdin := t.Stdin
	if stdin == nil {
		stdin = []byte{}
	}

	return &pb.Request{
		Cmd: []*pb.Request_CmdType{{
			Args: t.Args,
			Env:  t.Env,
			Files: []*pb.Request_File{
				memoryFile(stdin),
				pipe("stdout", t.StdoutLimit),
				pipe("stderr", t.StderrLimit),
			},
			CpuTimeLimit:   t.TimeLimit,
			ClockTimeLimit: t.TimeLimit * 2,
			MemoryLimit:    t.MemoryLimit,
			CopyIn:         copyIn,
			CopyOut:        []*pb.Request_CmdCopyOutFile{{Name: "stdout"}, {Name: "stderr"}},
			CopyOutCached:  keep,
		}},
	}
}

// Job is a chain of task groups. The tasks of a group run in parallel and the next
// group starts once every task of the previous one has succeeded.
type Job struct {
	ctx   context.Context
	ID    uuid.UUID
	Tasks []*Task
	Next  *Job
}

// NewJob creates an empty job bound to ctx.
func NewJob(ctx context.Context) *Job {
	return &Job{ctx: ctx, ID: uuid.New()}
}

// Run adds tasks to the first group.
func (j *Job) Run(tasks ...*Task) *Job {
	j.Tasks = append(j.Tasks, tasks...)
	return j
}

// Then appends a group to the end of the chain.
func (j *Job) Then(tasks ...*Task) *Job {
	last := j
	for last.Next != nil {
		last = last.Next
	}
	last.Next = NewJob(j.ctx).Run(tasks...)
	return j
}
