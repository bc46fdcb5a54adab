package sandbox

import (
	"net/http"

	"deadlock/service/etc"
	"deadlock/service/language"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrUnknownBackend is returned for a sandbox.backend value other than piston or gojudge.
var ErrUnknownBackend = errors.New("unknown sandbox backend")

// New creates the executor selected by the configuration.
func New(c *etc.Configuration) (Executor, error) {
	sc := c.Sandbox
	switch sc.Backend {
	case "", "piston":
		p := NewPiston(sc.Piston.URL).
			WithTimeout(sc.Timeout).
			WithRetries(sc.Retries, sc.RetryBackoff).
			WithStageTimeouts(sc.Piston.CompileTimeout, sc.Piston.RunTimeout)
		if n := sc.Piston.MaxConns; n > 0 {
			p.WithHTTPClient(&http.Client{Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxConnsPerHost:     n,
				MaxIdleConnsPerHost: n,
			}})
		}
		return p, nil

	case "gojudge":
		gc := sc.GoJudge
		toolchains := make(map[language.Language]Toolchain, len(gc.Languages))
		for name, t := range gc.Languages {
			lang, err := language.Parse(name)
			if err != nil {
				return nil, errors.Wrap(err, "sandbox.gojudge.languages")
			}
			toolchains[lang] = Toolchain{
				Source: t.Source, Compile: t.Compile, Binary: t.Binary, Run: t.Run}
		}
		g := NewGoJudge(toolchains).
			WithTimeout(sc.Timeout).
			WithLimits(gc.TimeLimit, gc.MemoryLimit, gc.StdoutLimit, gc.StderrLimit)
		for id, j := range gc.Judges {
			log.WithField("id", id).Debug("Initializing judge")
			if err := g.AddAndStart(id, j.Host, j.Token); err != nil {
				return nil, err
			}
		}
		return g, nil
	}
	return nil, errors.Wrapf(ErrUnknownBackend, "'%s'", sc.Backend)
}
