package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{name: "Default", version: Version},
		{name: "Override", version: "v9.9.9-test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := Version
			Version = tt.version
			t.Cleanup(func() { Version = prev })

			info := Get()
			assert.Equal(t, tt.version, info.Version)
			assert.Equal(t, runtime.Version(), info.GoVersion)
		})
	}
}
