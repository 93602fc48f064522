package internal

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	examplesDir = "examples"
	pagesDir    = "gh-pages"
	staticDir   = "static"
	sharedSrc   = "src"
)

// PackageDescriptor holds the paths of one demo package. All fields are
// derived from the invocation root and the package name.
type PackageDescriptor struct {
	name       string
	sourceDir  string
	outputDir  string
	entryPoint string
	publicPath string
}

func NewPackageDescriptor(root, name string) (PackageDescriptor, error) {
	if err := validateName(name); err != nil {
		return PackageDescriptor{}, err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return PackageDescriptor{}, errors.Wrapf(err, "resolve root %q", root)
	}
	sourceDir := filepath.Join(absRoot, examplesDir, name)
	return PackageDescriptor{
		name:       name,
		sourceDir:  sourceDir,
		outputDir:  filepath.Join(absRoot, pagesDir, name),
		entryPoint: filepath.Join(sourceDir, staticDir, "index.js"),
		publicPath: "/" + name + "/",
	}, nil
}

func (pd PackageDescriptor) Name() string       { return pd.name }
func (pd PackageDescriptor) SourceDir() string  { return pd.sourceDir }
func (pd PackageDescriptor) OutputDir() string  { return pd.outputDir }
func (pd PackageDescriptor) EntryPoint() string { return pd.entryPoint }
func (pd PackageDescriptor) PublicPath() string { return pd.publicPath }

// Template is the HTML template shipped next to the entry point.
func (pd PackageDescriptor) Template() string {
	return filepath.Join(pd.sourceDir, staticDir, "index.html")
}

func validateName(name string) error {
	switch {
	case name == "":
		return errors.New("package name is empty")
	case name == "." || name == "..":
		return errors.Errorf("package name %q is not a directory name", name)
	case strings.ContainsAny(name, `/\`):
		return errors.Errorf("package name %q contains a path separator", name)
	}
	return nil
}
