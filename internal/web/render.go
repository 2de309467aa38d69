package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin/render"

	"attendanceweb/internal/attendance"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const layoutFile = "templates/layout.html"

var funcs = template.FuncMap{
	"band":       attendance.BandFor,
	"percent":    attendance.FormatPercent,
	"avatar":     attendance.AvatarURL,
	"formatDate": attendance.FormatDate,
}

// pages renders each screen inside the shared layout. It implements gin's render.HTMLRender.
type pages map[string]*template.Template

func loadPages() (pages, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	p := make(pages)
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		t, err := template.New(path.Base(layoutFile)).Funcs(funcs).ParseFS(templateFS, layoutFile, f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		p[strings.TrimSuffix(path.Base(f), ".html")] = t
	}
	return p, nil
}

func (p pages) Instance(name string, data any) render.Render {
	t, ok := p[name]
	if !ok {
		panic("web: unknown page " + name)
	}
	return render.HTML{Template: t, Name: path.Base(layoutFile), Data: data}
}

func staticFiles() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
