package helper

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCfgPathAbsolute(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "apiserver.yaml")
	assert.Equal(t, abs, GetCfgPath(abs))
}

func TestGetCfgPathFallback(t *testing.T) {
	assert.Equal(t, "/etc/parkwise/no-such-file.yaml", GetCfgPath("no-such-file.yaml"))
}

func TestGetCfgPathEmptyPanics(t *testing.T) {
	assert.Panics(t, func() { GetCfgPath("") })
}
