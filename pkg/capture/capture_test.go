package capture

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceKind(t *testing.T) {
	tests := []struct {
		device string
		want   Kind
	}{
		{"0", KindCamera},
		{"2", KindCamera},
		{" 1 ", KindCamera},
		{"-1", KindFile},
		{"video.mp4", KindFile},
		{"/tmp/clip.avi", KindFile},
		{"rtsp://192.168.1.10:554/stream", KindStream},
		{"RTSP://cam/live", KindStream},
		{"http://cam.local/mjpeg", KindStream},
		{"", KindUnknown},
		{"   ", KindUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.device, func(t *testing.T) {
			assert.Equal(t, tc.want, DeviceKind(tc.device))
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "camera", KindCamera.String())
	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "stream", KindStream.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestOpen_EmptyDevice(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestOpen_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.mp4")

	cam, err := Open(missing)
	if cam != nil {
		cam.Close()
	}
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}
