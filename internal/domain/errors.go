package domain

import (
	"errors"
	"strings"
)

// NotFoundMarker is the token the remote service puts in errors for missing entities
const NotFoundMarker = "NOT_FOUND"

// Sentinel errors for domain operations
var (
	// ErrEmptyAlbumID indicates a coordinator was asked to sync without an album key
	ErrEmptyAlbumID = errors.New("album id is empty")

	// ErrAlbumNotFound indicates the remote service has no such album
	ErrAlbumNotFound = errors.New("album " + NotFoundMarker)

	// ErrServerOffline indicates the metadata service is unreachable
	ErrServerOffline = errors.New("metadata service is unreachable")

	// ErrAuthFailed indicates the API key was rejected
	ErrAuthFailed = errors.New("api key is invalid")

	// ErrAlbumExists indicates an insert collided with a cached album
	ErrAlbumExists = errors.New("album already cached")

	// ErrAlbumNotCached indicates an update or delete targeted a missing cache entry
	ErrAlbumNotCached = errors.New("album not cached")
)

// ErrorKind is the only distinction the sync layer makes between fetch failures
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindNotFound
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// Classify maps a fetch error to an ErrorKind.
// Matching is on the message text, so wrapped errors classify the same as their cause.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if strings.Contains(err.Error(), NotFoundMarker) {
		return KindNotFound
	}
	return KindOther
}
