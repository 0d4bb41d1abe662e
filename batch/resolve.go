package batch

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-imsto/imconv/image"
)

// Resolve lists the files of dir whose extension belongs to tok, in lexical order.
// With recursive set subfolders are walked too, except the skip folders.
func Resolve(dir string, tok image.Token, recursive bool, skip ...string) ([]string, error) {
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		var files []string
		for _, e := range entries {
			if e.Type().IsRegular() && tok.Match(e.Name()) {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
		return files, nil
	}

	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		if abs, err := filepath.Abs(s); err == nil {
			skipped[abs] = true
		}
	}
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && len(skipped) > 0 {
				if abs, err := filepath.Abs(path); err == nil && skipped[abs] {
					logger().Debugw("skip folder", "path", path)
					return filepath.SkipDir
				}
			}
			return nil
		}
		if d.Type().IsRegular() && tok.Match(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
