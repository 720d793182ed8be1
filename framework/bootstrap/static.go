package bootstrap

import (
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/km-arc/go-twostep/framework/conventions"
	"github.com/km-arc/go-twostep/framework/environment"
	gohttp "github.com/km-arc/go-twostep/framework/http"
)

// StaticContentStartup serves the static directories named by the
// conventions. It is part of the framework's ApplicationStartup collection.
type StaticContentStartup struct {
	conv *conventions.Conventions
	env  *environment.Environment
	log  *zap.Logger
}

func NewStaticContentStartup(conv *conventions.Conventions, env *environment.Environment, log *zap.Logger) *StaticContentStartup {
	if log == nil {
		log = zap.NewNop()
	}
	return &StaticContentStartup{conv: conv, env: env, log: log}
}

type staticRoot struct {
	prefix string
	dir    string
}

// Initialize appends a BeforeRequest hook when at least one directory is
// configured.
func (s *StaticContentStartup) Initialize(p *gohttp.Pipelines) error {
	if s.conv == nil || len(s.conv.StaticContent) == 0 {
		return nil
	}

	roots := make([]staticRoot, 0, len(s.conv.StaticContent))
	for _, d := range s.conv.StaticContent {
		dir, err := filepath.Abs(d.Directory)
		if err != nil {
			return err
		}
		roots = append(roots, staticRoot{prefix: strings.TrimSuffix(d.RequestPath, "/"), dir: dir})
		s.log.Debug("static content mapped", zap.String("path", d.RequestPath), zap.String("dir", dir))
	}

	var safe []string
	if s.env != nil {
		for _, sp := range s.env.StaticContent().SafePaths {
			abs, err := filepath.Abs(sp)
			if err != nil {
				return err
			}
			safe = append(safe, abs)
		}
	}

	p.BeforeRequest.Append(func(ctx *gohttp.Context) (*gohttp.Response, error) {
		return serveStatic(ctx, roots, safe), nil
	})
	return nil
}

func serveStatic(ctx *gohttp.Context, roots []staticRoot, safe []string) *gohttp.Response {
	if ctx.Request == nil {
		return nil
	}
	if m := ctx.Request.Method(); m != http.MethodGet && m != http.MethodHead {
		return nil
	}

	p := ctx.Request.Path()
	for _, r := range roots {
		if p != r.prefix && !strings.HasPrefix(p, r.prefix+"/") {
			continue
		}
		rel := path.Clean("/" + strings.TrimPrefix(p, r.prefix))
		full := filepath.Join(r.dir, filepath.FromSlash(rel))
		if !within(r.dir, full) || (len(safe) > 0 && !withinAny(safe, full)) {
			continue
		}
		info, err := os.Stat(full)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		ct := mime.TypeByExtension(filepath.Ext(full))
		if ct == "" {
			ct = "application/octet-stream"
		}
		return gohttp.File(full, ct)
	}
	return nil
}

func within(dir, file string) bool {
	rel, err := filepath.Rel(dir, file)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func withinAny(dirs []string, file string) bool {
	for _, d := range dirs {
		if within(d, file) {
			return true
		}
	}
	return false
}
