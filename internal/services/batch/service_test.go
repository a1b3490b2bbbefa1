package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/image-optimizer/internal/models"
	"github.com/phambaophuc/image-optimizer/internal/services/processor"
	"github.com/phambaophuc/image-optimizer/internal/services/storage"
	"github.com/phambaophuc/image-optimizer/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testOptions = processor.Options{Width: 64, Height: 64, MaxBytes: processor.DefaultMaxBytes}

type fakeCache struct {
	mu    sync.Mutex
	items map[string]*models.Manifest
	err   error
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string]*models.Manifest)}
}

func (c *fakeCache) Get(ctx context.Context, batchID string) (*models.Manifest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.items[batchID], nil
}

func (c *fakeCache) Set(ctx context.Context, manifest *models.Manifest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.items[manifest.BatchID] = manifest
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, batchID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, batchID)
	return c.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.BatchEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event models.BatchEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, event models.BatchEvent) error {
	return errors.New("broker down")
}

func pngFile(t *testing.T, name string, c color.Color) models.UploadFile {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, imaging.New(40, 20, c)))
	return models.UploadFile{Filename: name, ContentType: "image/png", Data: buf.Bytes()}
}

func validFiles(t *testing.T, n int) []models.UploadFile {
	files := make([]models.UploadFile, n)
	for i := range files {
		files[i] = pngFile(t, fmt.Sprintf("photo_%d.png", i), color.NRGBA{R: uint8(20 * i), G: 100, B: 200, A: 255})
	}
	return files
}

func newTestService(t *testing.T, opts ...Option) (*Service, *storage.MemoryBackend) {
	t.Helper()
	backend := storage.NewMemoryBackend("test-bucket")
	gateway, err := storage.NewGateway(context.Background(), backend, zap.NewNop())
	require.NoError(t, err)

	opts = append([]Option{WithProcessingOptions(testOptions)}, opts...)
	return NewService(processor.NewImageProcessor(), gateway, zap.NewNop(), opts...), backend
}

func TestProcessRejectsEmptyBatch(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Process(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestProcessRejectsUnsupportedContentType(t *testing.T) {
	s, backend := newTestService(t)
	files := validFiles(t, 2)
	files[1].ContentType = "image/gif"

	_, err := s.Process(context.Background(), files)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)

	keys, err := backend.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, keys, "validation must happen before anything is stored")
}

func TestProcessHappyPath(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	s, backend := newTestService(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	manifest, err := s.Process(ctx, validFiles(t, 3))
	require.NoError(t, err)

	assert.NotEmpty(t, manifest.BatchID)
	assert.Equal(t, 3, manifest.TotalImages)
	assert.Equal(t, models.StatusCompleted, manifest.Status)
	assert.Equal(t, now, manifest.ProcessedAt)
	require.Len(t, manifest.ImageURLs, 3)
	for i, url := range manifest.ImageURLs {
		assert.Equal(t, "memory://test-bucket/"+utils.ImageKey(manifest.BatchID, i), url)

		data, err := backend.Get(ctx, utils.ImageKey(manifest.BatchID, i))
		require.NoError(t, err)
		img, err := imaging.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 64, img.Bounds().Dx())
		assert.Equal(t, 64, img.Bounds().Dy())
	}

	stored, err := s.Get(ctx, manifest.BatchID)
	require.NoError(t, err)
	assert.Equal(t, manifest, stored)
}

func TestProcessTruncatesToEightImages(t *testing.T) {
	s, backend := newTestService(t)
	ctx := context.Background()

	manifest, err := s.Process(ctx, validFiles(t, 9))
	require.NoError(t, err)
	assert.Equal(t, models.MaxBatchImages, manifest.TotalImages)
	assert.Len(t, manifest.ImageURLs, models.MaxBatchImages)

	_, err = backend.Get(ctx, utils.ImageKey(manifest.BatchID, 8))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestProcessStorageFailureLeavesOrphans(t *testing.T) {
	s, backend := newTestService(t)
	ctx := context.Background()

	backend.FailPut = func(key string) error {
		if strings.HasSuffix(key, "/02_optimized.jpg") {
			return errors.New("connection reset")
		}
		return nil
	}

	_, err := s.Process(ctx, validFiles(t, 4))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStorage)

	var abortErr *AbortError
	require.True(t, errors.As(err, &abortErr))
	assert.Equal(t, 2, abortErr.Index)

	batchID := abortErr.BatchID
	for i := 0; i < 2; i++ {
		_, err := backend.Get(ctx, utils.ImageKey(batchID, i))
		assert.NoError(t, err, "image %d should remain stored", i)
	}
	for i := 2; i < 4; i++ {
		_, err := backend.Get(ctx, utils.ImageKey(batchID, i))
		assert.ErrorIs(t, err, models.ErrNotFound)
	}

	_, err = backend.Get(ctx, utils.ManifestKey(batchID))
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.Get(ctx, batchID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestProcessDecodeFailureAborts(t *testing.T) {
	publisher := &recordingPublisher{}
	s, backend := newTestService(t, WithPublisher(publisher))
	ctx := context.Background()

	files := validFiles(t, 3)
	files[1].Data = []byte("not an image")

	_, err := s.Process(ctx, files)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDecode)

	var abortErr *AbortError
	require.True(t, errors.As(err, &abortErr))
	assert.Equal(t, 1, abortErr.Index)

	keys, err := backend.List(ctx, utils.BatchPrefix(abortErr.BatchID))
	require.NoError(t, err)
	assert.Equal(t, []string{utils.ImageKey(abortErr.BatchID, 0)}, keys)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, models.EventBatchAborted, event.Type)
	require.NotNil(t, event.FailedIndex)
	assert.Equal(t, 1, *event.FailedIndex)
}

func TestProcessManifestFailure(t *testing.T) {
	s, backend := newTestService(t)
	backend.FailPut = func(key string) error {
		if strings.HasSuffix(key, utils.ManifestName) {
			return errors.New("disk full")
		}
		return nil
	}

	_, err := s.Process(context.Background(), validFiles(t, 2))
	require.Error(t, err)

	var abortErr *AbortError
	require.True(t, errors.As(err, &abortErr))
	assert.Equal(t, ManifestIndex, abortErr.Index)
	assert.Contains(t, abortErr.Error(), "writing manifest")
	assert.ErrorIs(t, err, models.ErrStorage)
}

func TestProcessHonoursCancellation(t *testing.T) {
	s, backend := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Process(ctx, validFiles(t, 2))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	keys, err := backend.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestProcessPublishesAndCaches(t *testing.T) {
	cache := newFakeCache()
	publisher := &recordingPublisher{}
	s, _ := newTestService(t, WithCache(cache), WithPublisher(publisher))

	manifest, err := s.Process(context.Background(), validFiles(t, 2))
	require.NoError(t, err)

	assert.Equal(t, manifest, cache.items[manifest.BatchID])
	require.Len(t, publisher.events, 1)
	assert.Equal(t, models.EventBatchCompleted, publisher.events[0].Type)
	assert.Equal(t, manifest.ImageURLs, publisher.events[0].ImageURLs)
}

func TestProcessSurvivesSideChannelFailures(t *testing.T) {
	cache := newFakeCache()
	cache.err = errors.New("redis down")
	s, _ := newTestService(t, WithCache(cache), WithPublisher(failingPublisher{}))

	manifest, err := s.Process(context.Background(), validFiles(t, 1))
	require.NoError(t, err)

	got, err := s.Get(context.Background(), manifest.BatchID)
	require.NoError(t, err)
	assert.Equal(t, manifest.BatchID, got.BatchID)
}

func TestGetUsesCache(t *testing.T) {
	cache := newFakeCache()
	s, _ := newTestService(t, WithCache(cache))
	id := "3f0b8f5e-6a4b-4a57-9a43-6f1fd6d0c7a1"
	cache.items[id] = &models.Manifest{BatchID: id, Status: models.StatusCompleted}

	got, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.BatchID)
}

func TestGetValidatesID(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"", "../downloads/x", "a/b", `a\b`, ".."} {
		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, models.ErrValidation, id)

		_, err = s.DownloadURL(ctx, id)
		assert.ErrorIs(t, err, models.ErrValidation, id)

		assert.ErrorIs(t, s.Delete(ctx, id), models.ErrValidation, id)
	}
}

func TestUnknownIDsAreNotFound(t *testing.T) {
	s, backend := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"not-a-uuid", "3f0b8f5e-6a4b-4a57-9a43-6f1fd6d0c7a1"} {
		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, models.ErrNotFound, id)
		assert.NotErrorIs(t, err, models.ErrValidation, id)

		_, err = s.DownloadURL(ctx, id)
		assert.ErrorIs(t, err, models.ErrNotFound, id)

		assert.NoError(t, s.Delete(ctx, id), id)
		assert.NoError(t, s.Delete(ctx, id), id)
	}

	keys, err := backend.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestListSkipsAbortedBatches(t *testing.T) {
	s, backend := newTestService(t)
	ctx := context.Background()

	first, err := s.Process(ctx, validFiles(t, 1))
	require.NoError(t, err)

	backend.FailPut = func(key string) error {
		if strings.HasSuffix(key, "/01_optimized.jpg") {
			return errors.New("boom")
		}
		return nil
	}
	_, err = s.Process(ctx, validFiles(t, 2))
	require.Error(t, err)
	backend.FailPut = nil

	second, err := s.Process(ctx, validFiles(t, 2))
	require.NoError(t, err)

	manifests, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, manifests, 2)

	ids := []string{manifests[0].BatchID, manifests[1].BatchID}
	assert.ElementsMatch(t, []string{first.BatchID, second.BatchID}, ids)
}

func TestDownloadURLAndDelete(t *testing.T) {
	cache := newFakeCache()
	publisher := &recordingPublisher{}
	s, backend := newTestService(t, WithCache(cache), WithPublisher(publisher))
	ctx := context.Background()

	manifest, err := s.Process(ctx, validFiles(t, 3))
	require.NoError(t, err)

	url, err := s.DownloadURL(ctx, manifest.BatchID)
	require.NoError(t, err)
	assert.Contains(t, url, utils.ArchiveKey(manifest.BatchID))

	require.NoError(t, s.Delete(ctx, manifest.BatchID))

	keys, err := backend.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.NotContains(t, cache.items, manifest.BatchID)

	_, err = s.Get(ctx, manifest.BatchID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = s.DownloadURL(ctx, manifest.BatchID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	last := publisher.events[len(publisher.events)-1]
	assert.Equal(t, models.EventBatchDeleted, last.Type)

	// deleting twice is fine
	require.NoError(t, s.Delete(ctx, manifest.BatchID))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "processing", StateProcessing.String())
	assert.Equal(t, "completed", StateCompleted.String())
	assert.Equal(t, "aborted", StateAborted.String())
	assert.Equal(t, "state(9)", State(9).String())
}

func TestRunTransitions(t *testing.T) {
	r := newRun("b", 2)
	assert.Equal(t, StatePending, r.state)

	r.advance(1)
	assert.Equal(t, StateProcessing, r.state)
	assert.Equal(t, 1, r.index)

	err := r.abort(1, errors.New("x"))
	assert.Equal(t, StateAborted, r.state)
	assert.Equal(t, "batch b aborted at image 1: x", err.Error())
}
