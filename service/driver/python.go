package driver

import (
	"text/template"

	"deadlock/service/language"
)

var pythonTemplate = template.Must(template.New("python").Parse(`import json
import sys
from typing import *

{{.Code}}


def _decode_args(raw):
    if "|" in raw:
        return [json.loads(part.strip()) for part in raw.split("|")]
    return [json.loads(raw)] if raw else []


if __name__ == "__main__":
    try:
        _args = _decode_args(sys.stdin.readline().strip())
        _result = {{.ClassName}}().{{.FunctionName}}(*_args)
        if isinstance(_result, bool):
            print("true" if _result else "false")
        else:
            print(json.dumps(_result, separators=(",", ":"), ensure_ascii=False))
    except Exception as e:
        print(str(e) or type(e).__name__, file=sys.stderr)
        sys.exit(1)
`))

type pythonGenerator struct{}

func (pythonGenerator) Language() language.Language { return language.Python }

func (pythonGenerator) Generate(h *Harness) (string, error) {
	return render(pythonTemplate, h)
}

func init() {
	register(pythonGenerator{})
}
