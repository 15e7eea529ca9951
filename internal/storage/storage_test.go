package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC) }

func writeArchive(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "dicombids-123.zip")
	require.NoError(t, os.WriteFile(p, []byte("PK archive"), 0o644))
	return p
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "exports/20240309/pilot_bids.zip", ObjectKey("exports", fixedNow(), "pilot_bids.zip"))
	assert.Equal(t, "20240309/pilot_bids.zip", ObjectKey("", fixedNow(), "pilot_bids.zip"))
	assert.Equal(t, "a/b/20240309/x.zip", ObjectKey("a/b/", fixedNow(), "x.zip"))
}

func TestLocalPublish(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, nil)
	l.now = fixedNow

	got, err := l.Publish(context.Background(), "pilot_bids.zip", writeArchive(t))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20240309", "pilot_bids.zip"), got)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "PK archive", string(data))

	entries, err := os.ReadDir(filepath.Dir(got))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary file left behind")
}

func TestLocalPublishMissingSource(t *testing.T) {
	_, err := NewLocal(t.TempDir(), nil).Publish(context.Background(), "x.zip", filepath.Join(t.TempDir(), "missing.zip"))
	assert.Error(t, err)
}

func TestLocalPublishCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocal(t.TempDir(), nil).Publish(ctx, "x.zip", writeArchive(t))
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeStore struct {
	buckets  map[string]bool
	makeErr  error
	putErr   error
	uploaded map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{buckets: map[string]bool{}, uploaded: map[string]string{}}
}

func (f *fakeStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	return f.buckets[bucket], nil
}

func (f *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	if f.makeErr != nil {
		return f.makeErr
	}
	if f.buckets[bucket] {
		return errors.New("bucket already owned by you")
	}
	f.buckets[bucket] = true
	return nil
}

func (f *fakeStore) FPutObject(_ context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	if opts.ContentType != zipContentType {
		return minio.UploadInfo{}, errors.New("unexpected content type " + opts.ContentType)
	}
	info, err := os.Stat(filePath)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.uploaded[bucket+"/"+object] = filePath
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: info.Size()}, nil
}

func TestMinIOPublish(t *testing.T) {
	store := newFakeStore()
	m := newMinIO(store, "bids", "exports", nil)
	m.now = fixedNow
	archive := writeArchive(t)

	key, err := m.Publish(context.Background(), "pilot_bids.zip", archive)
	require.NoError(t, err)
	assert.Equal(t, "exports/20240309/pilot_bids.zip", key)
	assert.True(t, store.buckets["bids"], "bucket created on demand")
	assert.Equal(t, archive, store.uploaded["bids/exports/20240309/pilot_bids.zip"])

	// Second publish reuses the existing bucket.
	_, err = m.Publish(context.Background(), "second_bids.zip", archive)
	require.NoError(t, err)
	assert.Len(t, store.uploaded, 2)
}

func TestMinIOPublishErrors(t *testing.T) {
	t.Run("bucket", func(t *testing.T) {
		store := newFakeStore()
		store.makeErr = errors.New("access denied")
		_, err := newMinIO(store, "bids", "", nil).Publish(context.Background(), "x.zip", writeArchive(t))
		assert.ErrorContains(t, err, "access denied")
	})
	t.Run("upload", func(t *testing.T) {
		store := newFakeStore()
		store.putErr = errors.New("connection reset")
		_, err := newMinIO(store, "bids", "", nil).Publish(context.Background(), "x.zip", writeArchive(t))
		assert.ErrorContains(t, err, "connection reset")
	})
}

func TestNewMinIO(t *testing.T) {
	m, err := NewMinIO(MinIOOptions{Endpoint: "localhost:9000", Bucket: "bids"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "bids", m.bucket)

	_, err = NewMinIO(MinIOOptions{Endpoint: "http://bad endpoint"}, nil)
	assert.Error(t, err)
}
