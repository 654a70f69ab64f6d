package assetmanager

import (
	"os"
	"path/filepath"
)

// walkDirs visits every directory under root (root included), grounded on
// the teacher's AssetManager.watchRecursive (engine/assets/assets.go).
func walkDirs(root string, visit func(dir string) error) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return visit(path)
		}
		return nil
	})
}
