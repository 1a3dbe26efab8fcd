package catalog

import (
	"os"
	"path/filepath"
)

// Scan reports which catalog variants have their weight file present under
// modelDir, in catalog order. A missing or unreadable directory yields an
// empty result: a fresh install with no models is an expected state, not an
// error. The result reflects the disk at call time; nothing is cached.
func (c *Catalog) Scan(modelDir string) []string {
	available := []string{}
	for _, v := range c.variants {
		info, err := os.Stat(filepath.Join(modelDir, v.File))
		if err != nil || info.IsDir() {
			continue
		}
		available = append(available, v.ID)
	}
	return available
}

// Available reports whether the variant's weight file is present under modelDir.
func (c *Catalog) Available(modelDir, id string) bool {
	v, ok := c.Lookup(id)
	if !ok {
		return false
	}
	info, err := os.Stat(filepath.Join(modelDir, v.File))
	return err == nil && !info.IsDir()
}
