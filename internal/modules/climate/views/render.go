package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
)

var homeTmpl *template.Template

// loadTemplatesFromFS loads the index templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	homeTmpl, err = template.ParseFS(sub, "*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads embedded templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// Routes is the route listing shown on the index page. Placeholders are
// escaped by the template.
var Routes = []string{
	"/api/v1.0/precipitation",
	"/api/v1.0/stations",
	"/api/v1.0/tobs",
	"/api/v1.0/<start>",
	"/api/v1.0/<start>/<end>",
}

type HomeData struct {
	Title  string
	Routes []string
}

func RenderHome(w io.Writer, data *HomeData) error {
	if homeTmpl == nil {
		return errors.New("home template not loaded: call views.LoadTemplates during startup")
	}
	return homeTmpl.ExecuteTemplate(w, "home.html", data)
}
