// Copyright 2020 The Kvs Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The version package is used by the release process to add an
// informative version string to the kvs commands.
package version

import (
	"fmt"
	"time"

	"kvs.io/kvs"
)

// These strings are overwritten by the release process.
var (
	BuildTime = time.Time{}
	GitSHA    = ""
)

// Version returns a string describing the current version of the build.
func Version() string {
	if GitSHA == "" {
		return kvs.Version
	}
	str := kvs.Version
	str += fmt.Sprintf(" (built %s, git %s)", BuildTime.In(time.UTC).Format(time.Stamp+" 2006 UTC"), GitSHA)
	return str
}
