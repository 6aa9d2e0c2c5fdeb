/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package router

// ResourceState represents the presence state of a bound resource.
type ResourceState int

const (
	// Connected is the state of a freshly bound resource.
	Connected ResourceState = iota

	// ConnectedInterested is the state of a resource that requested its roster
	// but did not send initial presence yet.
	ConnectedInterested

	// Available is the state of a resource after initial presence.
	Available

	// AvailableInterested is the state of an available resource that requested its roster.
	AvailableInterested
)

// String returns ResourceState string representation.
func (s ResourceState) String() string {
	switch s {
	case Connected:
		return "connected"
	case ConnectedInterested:
		return "connected_interested"
	case Available:
		return "available"
	case AvailableInterested:
		return "available_interested"
	}
	return ""
}

// IsAvailable reports whether the resource sent initial presence.
func (s ResourceState) IsAvailable() bool {
	return s == Available || s == AvailableInterested
}

// IsInterested reports whether the resource requested its roster.
func (s ResourceState) IsInterested() bool {
	return s == ConnectedInterested || s == AvailableInterested
}

// MakeAvailable returns the available counterpart of s, keeping its interest.
func MakeAvailable(s ResourceState) ResourceState {
	if s.IsInterested() {
		return AvailableInterested
	}
	return Available
}

// MakeInterested returns the interested counterpart of s, keeping its availability.
func MakeInterested(s ResourceState) ResourceState {
	if s.IsAvailable() {
		return AvailableInterested
	}
	return ConnectedInterested
}

// MakeUnavailable returns the unavailable counterpart of s, keeping its interest.
func MakeUnavailable(s ResourceState) ResourceState {
	if s.IsInterested() {
		return ConnectedInterested
	}
	return Connected
}
