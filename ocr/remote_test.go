package ocr

import (
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const remotePage = `[[[[0,0],[10,0],[10,10],[0,10]], ["remote", 0.9]]]`

func testImage() image.Image {
	return image.NewGray(image.Rect(0, 0, 4, 4))
}

func TestRemoteDetector_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		_, err := png.Decode(r.Body)
		assert.NoError(t, err)
		_, _ = w.Write([]byte(remotePage))
	}))
	defer srv.Close()

	d := NewRemoteDetector(srv.URL)
	d.Delay = 0

	dets, err := d.Detect(context.Background(), testImage())
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "remote", dets[0].Text)
	assert.Equal(t, "remote", d.Name())
}

func TestRemoteDetector_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(remotePage))
	}))
	defer srv.Close()

	d := NewRemoteDetector(srv.URL)
	d.Delay = 0

	dets, err := d.Detect(context.Background(), testImage())
	require.NoError(t, err)
	assert.Len(t, dets, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRemoteDetector_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad image", http.StatusBadRequest)
	}))
	defer srv.Close()

	d := NewRemoteDetector(srv.URL)
	d.Delay = 0

	_, err := d.Detect(context.Background(), testImage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRemoteDetector_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	d := NewRemoteDetector(srv.URL)
	dets, err := d.Detect(context.Background(), testImage())
	require.NoError(t, err)
	assert.Empty(t, dets)
}
