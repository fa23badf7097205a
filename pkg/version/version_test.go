package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString_ContainsAllFields(t *testing.T) {
	// When: formatting full version string
	s := String()

	// Then: should mention binary name and version
	assert.Contains(t, s, "tallymcp")
	assert.Contains(t, s, Version)
	assert.Contains(t, s, Commit)
}

func TestShort_ReturnsVersion(t *testing.T) {
	assert.Equal(t, Version, Short())
}

func TestGetInfo_PopulatesRuntimeFields(t *testing.T) {
	info := GetInfo()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, runtime.GOARCH, info.Arch)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}
