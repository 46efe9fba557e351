package http

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
)

// StaticPrefix is where static assets are mounted.
const StaticPrefix = "/static"

// StaticAssets builds cache-busting URLs for files under a static root.
type StaticAssets struct {
	root string
}

func NewStaticAssets(root string) *StaticAssets {
	return &StaticAssets{root: root}
}

// URL returns the public URL of name with the file's modification time, in
// hex seconds, as query string: /static/app.js?65a1b2c3. Files that cannot be
// stat'ed get no version.
func (s *StaticAssets) URL(name string) string {
	u := path.Join(StaticPrefix, name)
	info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil {
		return u
	}
	return u + "?" + strconv.FormatInt(info.ModTime().Unix(), 16)
}

// IndexController serves the single page shell.
type IndexController struct {
	version string
}

func NewIndexController(version string) *IndexController {
	return &IndexController{version: version}
}

// Index renders index.html
// GET /
func (ic *IndexController) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"Version": ic.version})
}
