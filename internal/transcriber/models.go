package transcriber

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nguyentantai21042004/awayrec/internal/apperr"
)

var (
	ModelSizes   = []string{"tiny", "base", "small"}
	ComputeTypes = []string{"int8", "int8_float16", "float16", "float32"}
)

// ModelCache resolves whisper model files once per process. The entry point
// builds one, calls Init and shares it.
type ModelCache struct {
	mu     sync.Mutex
	dir    string
	models map[string]string
	stat   func(string) (os.FileInfo, error)
}

func NewModelCache(dir string) *ModelCache {
	c := &ModelCache{}
	c.Init(dir)
	return c
}

// Init points the cache at a models directory and drops earlier lookups.
func (c *ModelCache) Init(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dir = dir
	c.models = make(map[string]string)
	if c.stat == nil {
		c.stat = os.Stat
	}
}

// Get returns the model file for size and computeType. Quantized compute
// types prefer ggml-<size>-q8_0.bin and fall back to ggml-<size>.bin.
func (c *ModelCache) Get(size, computeType string) (string, error) {
	if !contains(ModelSizes, size) {
		return "", apperr.Config("whisper.model_size", fmt.Sprintf("unsupported size %q", size))
	}
	if !contains(ComputeTypes, computeType) {
		return "", apperr.Config("whisper.compute_type", fmt.Sprintf("unsupported compute type %q", computeType))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.models == nil {
		return "", apperr.Config("whisper.models_dir", "model cache not initialised")
	}

	key := size + "/" + computeType
	if path, ok := c.models[key]; ok {
		return path, nil
	}

	candidates := modelFiles(size, computeType)
	for _, name := range candidates {
		path := filepath.Join(c.dir, name)
		if info, err := c.stat(path); err == nil && !info.IsDir() {
			c.models[key] = path
			return path, nil
		}
	}
	return "", apperr.Config("whisper.models_dir", fmt.Sprintf("model file %s not found in %s", candidates[len(candidates)-1], c.dir))
}

func modelFiles(size, computeType string) []string {
	plain := "ggml-" + size + ".bin"
	switch computeType {
	case "int8", "int8_float16":
		return []string{"ggml-" + size + "-q8_0.bin", plain}
	default:
		return []string{plain}
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
