package driver

import (
	"text/template"

	"deadlock/service/language"
)

var javascriptTemplate = template.Must(template.New("javascript").Parse(`{{.Code}}

;(function () {
  try {
    const raw = (require('fs').readFileSync(0, 'utf8').split('\n')[0] || '').trim();
    let args = [];
    if (raw.includes('|')) {
      args = raw.split('|').map((part) => JSON.parse(part.trim()));
    } else if (raw) {
      args = [JSON.parse(raw)];
    }
    const result = new {{.ClassName}}().{{.FunctionName}}(...args);
    const text = typeof result === 'boolean' ? String(result) : JSON.stringify(result);
    process.stdout.write(text + '\n');
  } catch (e) {
    process.stderr.write(String(e && e.message ? e.message : e));
    process.exit(1);
  }
})();
`))

type javascriptGenerator struct{}

func (javascriptGenerator) Language() language.Language { return language.JavaScript }

func (javascriptGenerator) Generate(h *Harness) (string, error) {
	return render(javascriptTemplate, h)
}

func init() {
	register(javascriptGenerator{})
}
