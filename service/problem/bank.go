package problem

import (
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrProblemNotFound is returned when no problem file has the requested name.
var ErrProblemNotFound = errors.New("problem not found")

// Extensions are the problem file extensions, in lookup order.
var Extensions = []string{".yaml", ".yml", ".json"}

// Bank reads problems from a git repository at a given revision.
type Bank struct {
	repo *git.Repository

	// rev is resolved when a caller passes an empty revision.
	rev string
}

// NewBank creates a bank over an opened repository.
func NewBank(repo *git.Repository, rev string) *Bank {
	if rev == "" {
		rev = "HEAD"
	}
	return &Bank{repo: repo, rev: rev}
}

// OpenBank opens the repository at path.
func OpenBank(path string, rev string) (*Bank, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open problem repository %s", path)
	}
	return NewBank(repo, rev), nil
}

func (b *Bank) commit(rev string) (*object.Commit, error) {
	if rev == "" {
		rev = b.rev
	}
	hash, err := b.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve revision %s", rev)
	}
	return b.repo.CommitObject(*hash)
}

func read(f *object.File, name string) (*Problem, error) {
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	p, err := Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, "problem %s", name)
	}
	p.Name = name
	if err := p.Validate(); err != nil {
		return nil, errors.Wrapf(err, "problem %s", name)
	}
	return p, nil
}

// Get reads and validates one problem.
func (b *Bank) Get(name string, rev string) (*Problem, error) {
	name = strings.Trim(path.Clean("/"+name), "/")
	commit, err := b.commit(rev)
	if err != nil {
		return nil, err
	}
	for _, ext := range Extensions {
		f, err := commit.File(name + ext)
		if err == object.ErrFileNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		return read(f, name)
	}
	return nil, errors.Wrapf(ErrProblemNotFound, "'%s'", name)
}

// List reads every problem of the revision sorted by name. Invalid files are skipped.
func (b *Bank) List(rev string) ([]*Problem, error) {
	commit, err := b.commit(rev)
	if err != nil {
		return nil, err
	}
	files, err := commit.Files()
	if err != nil {
		return nil, err
	}

	problems := []*Problem{}
	seen := map[string]bool{}
	err = files.ForEach(func(f *object.File) error {
		ext := path.Ext(f.Name)
		if !isProblemFile(f.Name, ext) {
			return nil
		}
		name := strings.TrimSuffix(f.Name, ext)
		if seen[name] {
			return nil
		}
		p, err := read(f, name)
		if err != nil {
			log.WithError(err).WithField("file", f.Name).Warn("Skipping problem file")
			return nil
		}
		seen[name] = true
		problems = append(problems, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(problems, func(i, j int) bool { return problems[i].Name < problems[j].Name })
	return problems, nil
}

func isProblemFile(name, ext string) bool {
	if strings.HasPrefix(path.Base(name), ".") {
		return false
	}
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
