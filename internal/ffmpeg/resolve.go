package ffmpeg

import (
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
)

var unixLocations = []string{
	"/usr/bin/ffmpeg",
	"/usr/local/bin/ffmpeg",
	"/opt/homebrew/bin/ffmpeg",
}

var windowsLocations = []string{
	`C:\ProgramData\chocolatey\bin\ffmpeg.exe`,
	`C:\ffmpeg\bin\ffmpeg.exe`,
	`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
	`C:\Program Files (x86)\ffmpeg\bin\ffmpeg.exe`,
}

// EnvVars are consulted in order after the configured path.
var EnvVars = []string{"IMAGEIO_FFMPEG_EXE", "FFMPEG_BIN"}

type resolver struct {
	getenv   func(string) string
	lookPath func(string) (string, error)
	isFile   func(string) bool
	goos     string
}

// Resolve locates the ffmpeg executable: the configured path, then the
// environment, then PATH, then well-known install locations.
func Resolve(configured string) (string, error) {
	r := resolver{
		getenv:   os.Getenv,
		lookPath: exec.LookPath,
		isFile:   isFile,
		goos:     runtime.GOOS,
	}
	return r.resolve(configured)
}

func (r resolver) resolve(configured string) (string, error) {
	if p := strings.TrimSpace(configured); p != "" && r.isFile(p) {
		return p, nil
	}

	for _, key := range EnvVars {
		if p := strings.TrimSpace(r.getenv(key)); p != "" && r.isFile(p) {
			return p, nil
		}
	}

	if p, err := r.lookPath("ffmpeg"); err == nil && p != "" {
		return p, nil
	}

	candidates := unixLocations
	if r.goos == "windows" {
		candidates = append(append([]string(nil), unixLocations...), windowsLocations...)
	}
	for _, p := range candidates {
		if r.isFile(p) {
			return p, nil
		}
	}

	return "", apperr.Wrap(apperr.ErrToolNotFound, "ffmpeg", "set ffmpeg.path or install ffmpeg on PATH", nil)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
