package version

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBuildInfo(t *testing.T) {
	deps := make([]Module, 10)
	for i := range deps {
		deps[i] = Module{Path: fmt.Sprintf("example.com/dep%d", i), Version: "v1.0.0"}
	}

	tests := []struct {
		name     string
		info     BuildInfo
		contains []string
		excludes []string
	}{
		{
			name: "minimal",
			info: BuildInfo{Version: "0.2", BuildDate: "unknown", GitCommit: "abc123", GoVersion: "go1.24.0", Platform: "linux/amd64", NumCPU: 4},
			contains: []string{
				"dtaprep 0.2\n",
				"  Commit:       abc123\n",
				"  Platform:     linux/amd64\n",
			},
			excludes: []string{"Module:", "Dependencies:"},
		},
		{
			name: "truncated dependencies",
			info: BuildInfo{Version: "0.2", Module: "github.com/sonemaro/dtaprep", BuildDeps: deps},
			contains: []string{
				"  Module:       github.com/sonemaro/dtaprep\n",
				"  - example.com/dep7@v1.0.0\n",
				"  ... and 2 more\n",
			},
			excludes: []string{"example.com/dep8"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := formatBuildInfo(tt.info)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestFullVersion(t *testing.T) {
	out := FullVersion()
	assert.True(t, strings.HasPrefix(out, "dtaprep "+Version+"\n"))
	assert.Contains(t, out, "Go Version:")
}
