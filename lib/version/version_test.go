// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfoUsesInjectedValues(t *testing.T) {
	restore := swap(t, "abc1234", "true", "2026-03-01T10:00:00Z", "1.2.0")
	defer restore()

	want := "1.2.0 (abc1234-dirty, 2026-03-01T10:00:00Z)"
	if got := Info(); got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
	if Short() != "1.2.0" {
		t.Errorf("Short() = %q", Short())
	}
}

func TestFullIncludesPlatform(t *testing.T) {
	full := Full()
	if !strings.Contains(full, runtime.Version()) {
		t.Errorf("Full() missing Go version: %q", full)
	}
	if !strings.Contains(full, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("Full() missing platform: %q", full)
	}
	if !strings.HasPrefix(full, Version) {
		t.Errorf("Full() does not start with the version: %q", full)
	}
}

func swap(t *testing.T, commit, dirty, built, version string) func() {
	t.Helper()
	saved := [4]string{GitCommit, GitDirty, BuildTime, Version}
	GitCommit, GitDirty, BuildTime, Version = commit, dirty, built, version
	return func() {
		GitCommit, GitDirty, BuildTime, Version = saved[0], saved[1], saved[2], saved[3]
	}
}
