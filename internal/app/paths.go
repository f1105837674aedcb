package app

import (
	"path/filepath"
	"strings"

	"github.com/hyperifyio/snapstrip/internal/garble"
	"github.com/hyperifyio/snapstrip/internal/resource"
)

// snapshot names the files of one conversion run.
type snapshot struct {
	// Root holds resources and every generated file.
	Root string
	// Name is the input file name, e.g. "home.html".
	Name string
}

func newSnapshot(inputPath, outputDir string) snapshot {
	root := strings.TrimSpace(outputDir)
	if root == "" {
		root = filepath.Dir(inputPath)
	}
	return snapshot{Root: root, Name: filepath.Base(inputPath)}
}

// base is the name without its extension.
func (s snapshot) base() string {
	return strings.TrimSuffix(s.Name, filepath.Ext(s.Name))
}

// variantPath is "<root>/<variant>-<name>".
func (s snapshot) variantPath(variant string) string {
	return filepath.Join(s.Root, variant+"-"+s.Name)
}

// listPath is the manifest listing the references of class c, for example
// "<root>/home.css_list".
func (s snapshot) listPath(c resource.Class) string {
	return filepath.Join(s.Root, s.base()+"."+c.String()+"_list")
}

func (s snapshot) manifestPath() string {
	return filepath.Join(s.Root, s.base()+".manifest.json")
}

func (s snapshot) reportPath() string {
	return filepath.Join(s.Root, s.base()+".report.pdf")
}

func (s snapshot) mappingPath() string {
	return garble.MappingPath(filepath.Join(s.Root, s.Name))
}

// resourcePath resolves a slash separated path relative to the snapshot.
func (s snapshot) resourcePath(rel string) string {
	return filepath.Join(s.Root, filepath.FromSlash(rel))
}
