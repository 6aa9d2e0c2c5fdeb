/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package version

import (
	"fmt"
)

// ApplicationName represents the server software name.
const ApplicationName = "vysper"

// ApplicationVersion represents the server software version.
var ApplicationVersion = NewVersion(0, 1, 0)

// SemanticVersion represents a major.minor.patch version value.
type SemanticVersion struct {
	major uint
	minor uint
	patch uint
}

// NewVersion returns a new semantic version instance.
func NewVersion(major, minor, patch uint) *SemanticVersion {
	return &SemanticVersion{
		major: major,
		minor: minor,
		patch: patch,
	}
}

// String satisfies fmt.Stringer interface.
func (v *SemanticVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

// Compare returns -1, 0 or 1 whether v is lower, equal or greater than v2.
func (v *SemanticVersion) Compare(v2 *SemanticVersion) int {
	switch {
	case v.major != v2.major:
		return cmp(v.major, v2.major)
	case v.minor != v2.minor:
		return cmp(v.minor, v2.minor)
	}
	return cmp(v.patch, v2.patch)
}

func cmp(a, b uint) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
