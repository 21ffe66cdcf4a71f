//go:build !unix

package preflight

import "os"

// checkAccess probes writability by creating a temporary file.
func checkAccess(dir string) error {
	f, err := os.CreateTemp(dir, ".awayrec-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
