package buildinfo

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_Defaults(t *testing.T) {
	info := Get("brandlens")

	assert.Equal(t, "brandlens", info.ServiceName)
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.Commit)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestGet_LdflagsWin(t *testing.T) {
	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	t.Cleanup(func() {
		Version, Commit, BuildTime = origVersion, origCommit, origBuildTime
	})

	Version = "v1.2.3"
	Commit = "abc123d"
	BuildTime = "2026-10-01T09:00:00Z"

	info := Get("brandlens")
	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, "abc123d", info.Commit)
	assert.Equal(t, "2026-10-01T09:00:00Z", info.BuildTime)
}

func TestString(t *testing.T) {
	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	t.Cleanup(func() {
		Version, Commit, BuildTime = origVersion, origCommit, origBuildTime
	})

	assert.Equal(t, "dev (unknown, unknown)", String())

	Version = "v1.2.3"
	Commit = "abc123d"
	BuildTime = "2026-10-01T09:00:00Z"
	assert.Equal(t, "v1.2.3 (abc123d, 2026-10-01T09:00:00Z)", String())
}

func TestInfo_JSONKeys(t *testing.T) {
	data, err := json.Marshal(Info{ServiceName: "brandlens", Version: "v1.0.0"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"service_name", "version", "commit", "build_time", "go_version", "platform"} {
		assert.Contains(t, decoded, key)
	}
	assert.Len(t, decoded, 6)
}
