package sandbox

import (
	"context"
	"strings"
	"sync"
	"testing"

	"deadlock/service/language"

	"github.com/criyle/go-judge/pb"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// fakeExecutor answers Exec with exec and records the calls.
type fakeExecutor struct {
	pb.ExecutorClient

	mu      sync.Mutex
	exec    func(cmd *pb.Request_CmdType) *pb.Response_Result
	cmds    []*pb.Request_CmdType
	deleted []string
}

func (f *fakeExecutor) Exec(
	_ context.Context, in *pb.Request, _ ...grpc.CallOption,
) (*pb.Response, error) {
	f.mu.Lock()
	f.cmds = append(f.cmds, in.Cmd[0])
	f.mu.Unlock()
	return &pb.Response{Results: []*pb.Response_Result{f.exec(in.Cmd[0])}}, nil
}

func (f *fakeExecutor) FileDelete(
	_ context.Context, in *pb.FileID, _ ...grpc.CallOption,
) (*emptypb.Empty, error) {
	f.mu.Lock()
	f.deleted = append(f.deleted, in.FileID)
	f.mu.Unlock()
	return &emptypb.Empty{}, nil
}

func memoryContent(f *pb.Request_File) string {
	if m, ok := f.File.(*pb.Request_File_Memory); ok {
		return string(m.Memory.Content)
	}
	return ""
}

func newTestGoJudge(t *testing.T, f *fakeExecutor) *GoJudge {
	t.Helper()
	g := NewGoJudge(nil)
	if err := g.add("test", newServer(f)); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestGoJudgeInterpreted(t *testing.T) {
	f := &fakeExecutor{exec: func(cmd *pb.Request_CmdType) *pb.Response_Result {
		if cmd.Args[0] != "/usr/bin/python3" {
			t.Errorf("command should run the toolchain, but %v", cmd.Args)
		}
		if src := memoryContent(cmd.CopyIn["main.py"]); src != "print(2)" {
			t.Errorf("main.py should be copied in, but %q", src)
		}
		return &pb.Response_Result{
			Status: pb.Response_Result_Accepted,
			Files: map[string][]byte{
				"stdout": []byte(memoryContent(cmd.Files[0]) + "2\n"),
				"stderr": {},
			},
		}
	}}
	g := newTestGoJudge(t, f)

	res, err := g.Execute(context.Background(), &Request{
		Language: language.Python, Source: "print(2)", Stdin: "in:"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stdout != "in:2\n" || res.ExitCode != 0 {
		t.Errorf("result should be the program output, but %+v", res)
	}
}

func TestGoJudgeCompileAndRun(t *testing.T) {
	f := &fakeExecutor{}
	f.exec = func(cmd *pb.Request_CmdType) *pb.Response_Result {
		if cmd.Args[0] == "/usr/bin/g++" {
			return &pb.Response_Result{
				Status:  pb.Response_Result_Accepted,
				FileIDs: map[string]string{"main": "bin-1"},
			}
		}
		cached, ok := cmd.CopyIn["main"].GetFile().(*pb.Request_File_Cached)
		if !ok || cached.Cached.FileID != "bin-1" {
			t.Errorf("the compiled binary should be copied in, but %v", cmd.CopyIn["main"])
		}
		return &pb.Response_Result{
			Status: pb.Response_Result_Accepted,
			Files:  map[string][]byte{"stdout": []byte("[1,2]\n")},
		}
	}
	g := newTestGoJudge(t, f)

	res, err := g.Execute(context.Background(), &Request{Language: language.Cpp, Source: "int main() {}"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stdout != "[1,2]\n" {
		t.Errorf("stdout should be \"[1,2]\\n\", but %q", res.Stdout)
	}
	if len(f.cmds) != 2 {
		t.Errorf("commands should be a compile and a run, but %d", len(f.cmds))
	}
	if len(f.deleted) != 1 || f.deleted[0] != "bin-1" {
		t.Errorf("the binary should be deleted, but %v", f.deleted)
	}
}

func TestGoJudgeCompileError(t *testing.T) {
	f := &fakeExecutor{exec: func(cmd *pb.Request_CmdType) *pb.Response_Result {
		return &pb.Response_Result{
			Status:     pb.Response_Result_NonZeroExitStatus,
			ExitStatus: 1,
			Files:      map[string][]byte{"stderr": []byte("main.cpp:1:1: error: expected '}'")},
		}
	}}
	g := newTestGoJudge(t, f)

	res, err := g.Execute(context.Background(), &Request{Language: language.Cpp, Source: "int main() {"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ExitCode != 1 || !strings.Contains(res.Stderr, "expected '}'") {
		t.Errorf("result should be the program output, but %+v", res)
	}
	if len(f.cmds) != 1 {
		t.Errorf("the run step should be skipped, but %d commands", len(f.cmds))
	}
}

func TestGoJudgeLimitExceeded(t *testing.T) {
	f := &fakeExecutor{exec: func(cmd *pb.Request_CmdType) *pb.Response_Result {
		return &pb.Response_Result{Status: pb.Response_Result_TimeLimitExceeded}
	}}
	g := newTestGoJudge(t, f)

	res, err := g.Execute(context.Background(), &Request{Language: language.JavaScript})
	if err != nil {
		t.Fatal(err)
	}
	if res.ExitCode == 0 || res.Stderr != pb.Response_Result_TimeLimitExceeded.String() {
		t.Errorf("result should be the program output, but %+v", res)
	}
	if res.Signal == "" {
		t.Error("a run stopped by the time limit should be marked as killed")
	}
}

func TestGoJudgeInternalError(t *testing.T) {
	f := &fakeExecutor{exec: func(cmd *pb.Request_CmdType) *pb.Response_Result {
		return &pb.Response_Result{Status: pb.Response_Result_InternalError, Error: "no cgroup"}
	}}
	g := newTestGoJudge(t, f)

	_, err := g.Execute(context.Background(), &Request{Language: language.Java})
	if !IsInfrastructure(err) {
		t.Errorf("error should be an infrastructure error, but %v", err)
	}
}

func TestGoJudgeNoServer(t *testing.T) {
	_, err := NewGoJudge(nil).Execute(context.Background(), &Request{Language: language.Python})
	if errors.Cause(err) != ErrJudgeNotFound {
		t.Errorf("error should be ErrJudgeNotFound, but %v", err)
	}
}

func TestGoJudgeDuplicateServer(t *testing.T) {
	g := newTestGoJudge(t, &fakeExecutor{})
	if err := g.add("test", newServer(&fakeExecutor{})); err != ErrJudgeExists {
		t.Errorf("error should be ErrJudgeExists, but %v", err)
	}
}

func TestJobThen(t *testing.T) {
	a, b, c := NewTask("a"), NewTask("b"), NewTask("c")
	job := NewJob(context.Background()).Run(a).Then(b).Then(c)
	if job.Tasks[0] != a || job.Next.Tasks[0] != b || job.Next.Next.Tasks[0] != c {
		t.Error("Then should append groups in order")
	}
}

func TestTaskCachedFileWins(t *testing.T) {
	id := "cached"
	req := NewTask("run").WithFile("main", []byte("plain")).WithCachedFile("main", &id).toPb()
	if _, ok := req.Cmd[0].CopyIn["main"].File.(*pb.Request_File_Cached); !ok {
		t.Error("A cached file should replace the plain file of the same name")
	}
}
