package common

import "fmt"

var (
	ErrManifestNotFound    = fmt.Errorf("manifest not found")
	ErrNoFolders           = fmt.Errorf("no folders found in manifest")
	ErrCredentialsNotFound = fmt.Errorf("credentials not found")
	ErrRemoteAccess        = fmt.Errorf("remote access error")
	ErrInvalidName         = fmt.Errorf("invalid name")
)

// RemoteAccessError is returned when the remote side answers with a non-2xx status.
type RemoteAccessError struct {
	URL        string
	StatusCode int
}

func (e *RemoteAccessError) Error() string {
	return fmt.Sprintf("%v: %s: status %d", ErrRemoteAccess, e.URL, e.StatusCode)
}

func (e *RemoteAccessError) Unwrap() error {
	return ErrRemoteAccess
}
