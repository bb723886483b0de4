// Package views embeds the HTML templates rendered by the handlers.
package views

import (
	"embed"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed *.html layouts/*.html
var files embed.FS

// Layout wraps every page.
const Layout = "layouts/main"

// New returns a template engine over the embedded files.
func New() *html.Engine {
	return html.NewFileSystem(http.FS(files), ".html")
}
