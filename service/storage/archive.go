package storage

import (
	"context"
	"path"

	"deadlock/service/language"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var extensions = map[language.Language]string{
	language.Python:     ".py",
	language.JavaScript: ".js",
	language.Cpp:        ".cpp",
	language.Java:       ".java",
}

// SubmissionPath is where a file of a submission is archived, such as
// "submissions/<id>/source.py".
func SubmissionPath(id uuid.UUID, name string, lang language.Language) string {
	return path.Join("submissions", id.String(), name+extensions[lang])
}

// Archive stores the submitted code and the harness it ran in.
// The harness is skipped when it could not be built.
func Archive(
	ctx context.Context, p Provider, id uuid.UUID, lang language.Language, code, harness string,
) error {
	if err := p.Write(ctx, SubmissionPath(id, "source", lang), []byte(code)); err != nil {
		return errors.Wrap(err, "failed to archive source")
	}
	if harness == "" {
		return nil
	}
	if err := p.Write(ctx, SubmissionPath(id, "harness", lang), []byte(harness)); err != nil {
		return errors.Wrap(err, "failed to archive harness")
	}
	return nil
}
