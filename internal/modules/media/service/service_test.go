package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"anoa.com/communityreview/internal/entity"
	"anoa.com/communityreview/pkg/apperror"
	commonDto "anoa.com/communityreview/pkg/dto"
	"anoa.com/communityreview/pkg/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryMedia struct {
	mu        sync.Mutex
	video     *entity.MainVideo
	images    []entity.GalleryImage
	orphans   []entity.OrphanBlob
	failAfter int
	writes    int
}

func (m *memoryMedia) UpsertVideo(_ context.Context, v *entity.MainVideo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	cp.ID = entity.MainVideoKey
	m.video = &cp
	return nil
}

func (m *memoryMedia) GetVideo(context.Context) (*entity.MainVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.video == nil {
		return nil, apperror.ErrNotFound
	}
	cp := *m.video
	return &cp, nil
}

func (m *memoryMedia) CreateImage(_ context.Context, img *entity.GalleryImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.failAfter > 0 && m.writes > m.failAfter {
		return errors.New("metadata store unavailable")
	}
	img.ID = uint(len(m.images) + 1)
	m.images = append(m.images, *img)
	return nil
}

func (m *memoryMedia) ListImages(context.Context) ([]entity.GalleryImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entity.GalleryImage, 0, len(m.images))
	for i := len(m.images) - 1; i >= 0; i-- {
		out = append(out, m.images[i])
	}
	return out, nil
}

func (m *memoryMedia) CreateOrphan(_ context.Context, o *entity.OrphanBlob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = uint(len(m.orphans) + 1)
	m.orphans = append(m.orphans, *o)
	return nil
}

func (m *memoryMedia) ListOrphans(context.Context, int) ([]entity.OrphanBlob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.OrphanBlob(nil), m.orphans...), nil
}

func (m *memoryMedia) DeleteOrphan(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.orphans {
		if o.ID == id {
			m.orphans = append(m.orphans[:i], m.orphans[i+1:]...)
			return nil
		}
	}
	return nil
}

// stickyStorage wraps a real store but can refuse deletes.
type stickyStorage struct {
	storage.ImageStorage
	refuseDelete bool
}

func (s *stickyStorage) DeleteImage(ctx context.Context, url string) error {
	if s.refuseDelete {
		return errors.New("storage refused delete")
	}
	return s.ImageStorage.DeleteImage(ctx, url)
}

func pngFile(t *testing.T, name string) *commonDto.UploadFile {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return &commonDto.UploadFile{Reader: bytes.NewReader(buf.Bytes()), FileName: name}
}

func newTestService(repo *memoryMedia, store storage.ImageStorage) *mediaService {
	svc := NewMediaService(repo, store, storage.NewImageProcessor(1<<20, 512)).(*mediaService)
	tick := time.UnixMilli(1700000000000)
	svc.now = func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}
	return svc
}

func TestUploadAndLoadVideo(t *testing.T) {
	repo := &memoryMedia{}
	svc := newTestService(repo, nil)
	ctx := context.Background()

	video, err := svc.LoadVideo(ctx)
	require.NoError(t, err)
	assert.Nil(t, video)

	_, err = svc.UploadVideo(ctx, "https://youtu.be/short")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Nil(t, repo.video)

	video, err = svc.UploadVideo(ctx, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", video.VideoID)
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", video.EmbedURL)

	video, err = svc.UploadVideo(ctx, "https://youtu.be/9bZkp7q19f0")
	require.NoError(t, err)
	assert.Equal(t, "9bZkp7q19f0", video.VideoID)
	assert.Equal(t, "https://youtu.be/9bZkp7q19f0", repo.video.URL)
}

func TestUploadGalleryImagesSequentially(t *testing.T) {
	repo := &memoryMedia{}
	fsys := afero.NewMemMapFs()
	svc := newTestService(repo, storage.NewLocalStorage(fsys, "/uploads"))
	ctx := context.Background()

	report, err := svc.UploadGalleryImages(ctx, []*commonDto.UploadFile{pngFile(t, "a.png"), pngFile(t, "b.png")})
	require.NoError(t, err)
	require.Len(t, report.Uploaded, 2)
	assert.Empty(t, report.Failed)
	assert.Equal(t, "1700000000001-a.png", report.Uploaded[0].ImageID)
	assert.Equal(t, "/uploads/gallery/1700000000002-b.png", report.Uploaded[1].ImageURL)
	assert.Equal(t, "image/png", report.Uploaded[0].ContentType)

	gallery, err := svc.LoadGallery(ctx)
	require.NoError(t, err)
	require.Len(t, gallery, 2)
	assert.Equal(t, "1700000000002-b.png", gallery[0].ImageID)
}

func TestUploadGalleryStopsAtFirstInvalidFile(t *testing.T) {
	repo := &memoryMedia{}
	svc := newTestService(repo, storage.NewLocalStorage(afero.NewMemMapFs(), "/uploads"))

	files := []*commonDto.UploadFile{
		pngFile(t, "a.png"),
		{Reader: strings.NewReader("not an image"), FileName: "notes.txt"},
		pngFile(t, "c.png"),
	}
	report, err := svc.UploadGalleryImages(context.Background(), files)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	require.NotNil(t, report)
	assert.Len(t, report.Uploaded, 1)
	assert.Equal(t, "notes.txt", report.Failed)
	assert.Len(t, repo.images, 1)
}

func TestFailedMetadataWriteDeletesBlob(t *testing.T) {
	repo := &memoryMedia{failAfter: 1}
	fsys := afero.NewMemMapFs()
	svc := newTestService(repo, storage.NewLocalStorage(fsys, "/uploads"))

	report, err := svc.UploadGalleryImages(context.Background(), []*commonDto.UploadFile{pngFile(t, "a.png"), pngFile(t, "b.png")})
	require.Error(t, err)
	assert.Len(t, report.Uploaded, 1)
	assert.Equal(t, "b.png", report.Failed)

	entries, err := afero.ReadDir(fsys, "gallery")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1700000000001-a.png", entries[0].Name())
	assert.Empty(t, repo.orphans)
}

func TestUndeletableBlobIsRecordedAndSweptLater(t *testing.T) {
	// the only metadata write fails
	repo := &memoryMedia{failAfter: 1, writes: 1}
	fsys := afero.NewMemMapFs()
	store := &stickyStorage{ImageStorage: storage.NewLocalStorage(fsys, "/uploads"), refuseDelete: true}
	svc := newTestService(repo, store)
	ctx := context.Background()

	_, err := svc.UploadGalleryImages(ctx, []*commonDto.UploadFile{pngFile(t, "a.png")})
	require.Error(t, err)
	require.Len(t, repo.orphans, 1)
	assert.Equal(t, "/uploads/gallery/1700000000001-a.png", repo.orphans[0].FileURL)

	n, err := svc.CleanupOrphanBlobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, repo.orphans, 1)

	store.refuseDelete = false
	n, err = svc.CleanupOrphanBlobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, repo.orphans)

	exists, err := afero.Exists(fsys, "gallery/1700000000001-a.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUploadGalleryRejectsEmptySelection(t *testing.T) {
	svc := newTestService(&memoryMedia{}, storage.NewLocalStorage(afero.NewMemMapFs(), "/uploads"))
	_, err := svc.UploadGalleryImages(context.Background(), nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestOrphanCleanupJob(t *testing.T) {
	job := NewOrphanCleanupJob(nil, 0)
	assert.Equal(t, OrphanCleanupJobName, job.Name())
	assert.Equal(t, "@every 12h0m0s", job.Schedule())

	repo := &memoryMedia{failAfter: 1, writes: 1}
	fsys := afero.NewMemMapFs()
	store := &stickyStorage{ImageStorage: storage.NewLocalStorage(fsys, "/uploads"), refuseDelete: true}
	svc := newTestService(repo, store)

	_, err := svc.UploadGalleryImages(context.Background(), []*commonDto.UploadFile{pngFile(t, "a.png")})
	require.Error(t, err)
	require.Len(t, repo.orphans, 1)

	store.refuseDelete = false
	require.NoError(t, NewOrphanCleanupJob(svc, time.Hour).Run(context.Background()))
	assert.Empty(t, repo.orphans)
}
