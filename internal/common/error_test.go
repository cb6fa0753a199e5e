package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRemoteAccessError(t *testing.T) {
	err := fmt.Errorf("cannot download: %w", &RemoteAccessError{URL: "http://x/a.mp4", StatusCode: 404})

	require.ErrorIs(t, err, ErrRemoteAccess)

	var rae *RemoteAccessError
	require.True(t, errors.As(err, &rae))
	require.Equal(t, 404, rae.StatusCode)
	require.Equal(t, "cannot download: remote access error: http://x/a.mp4: status 404", err.Error())
}
