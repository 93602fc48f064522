package internal

import (
	"os"

	cp "github.com/otiai10/copy"
)

func CreateStagingDir(name string) (string, error) {
	return os.MkdirTemp(os.TempDir(), "wasmpack-pages-"+name+"-")
}

// Publish copies the staged build over the output directory. Files that
// exist in dest but not in the stage are kept.
func Publish(stageDir, dest string) error {
	if err := os.MkdirAll(dest, os.ModePerm); err != nil {
		return err
	}
	return cp.Copy(stageDir, dest, cp.Options{
		OnDirExists: func(src, dest string) cp.DirExistsAction {
			return cp.Merge
		},
	})
}
