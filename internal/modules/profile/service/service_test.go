package profile

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"anoa.com/communityreview/internal/entity"
	"anoa.com/communityreview/pkg/apperror"
	commonDto "anoa.com/communityreview/pkg/dto"
	"anoa.com/communityreview/pkg/storage"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryProfiles struct {
	profiles  map[uuid.UUID]*entity.Profile
	updateErr error
}

func (m *memoryProfiles) FindProfile(_ context.Context, id uuid.UUID) (*entity.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryProfiles) UpdateAvatar(_ context.Context, id uuid.UUID, url string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	p, ok := m.profiles[id]
	if !ok {
		return apperror.ErrNotFound
	}
	p.AvatarURL = &url
	return nil
}

type fixedStats map[uuid.UUID]*entity.ReviewStats

func (f fixedStats) GetStats(_ context.Context, id uuid.UUID) (*entity.ReviewStats, error) {
	if st, ok := f[id]; ok {
		return st, nil
	}
	return &entity.ReviewStats{UserID: id}, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestLoadUserProfile(t *testing.T) {
	member := uuid.New()
	admin := uuid.New()
	repo := &memoryProfiles{profiles: map[uuid.UUID]*entity.Profile{
		member: {UserID: member, FullName: "ana lima", Nickname: "ana", Email: "ana@example.com", CreatedAt: time.Date(2023, 5, 2, 0, 0, 0, 0, time.UTC)},
		admin:  {UserID: admin, FullName: "Root", Nickname: "root", Email: "admin@example.com", IsAdmin: true, CreatedAt: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)},
	}}
	stats := fixedStats{member: {UserID: member, ReviewCount: 3, RatingSum: 12}}
	svc := NewProfileService(repo, stats, nil, storage.NewImageProcessor(1<<20, 256))
	ctx := context.Background()

	view, err := svc.LoadUserProfile(ctx, member)
	require.NoError(t, err)
	assert.Equal(t, "A", view.Initial)
	assert.Nil(t, view.AvatarURL)
	assert.Equal(t, 2023, view.JoinYear)
	assert.Equal(t, "ana@example.com", view.ReviewEmail)
	assert.Equal(t, int64(3), view.ReviewCount)
	assert.Equal(t, "4.0", view.AverageRating)
	assert.False(t, view.IsAdmin)
	assert.False(t, view.AdminControls.Video || view.AdminControls.Gallery || view.AdminControls.DeleteReviews)

	view, err = svc.LoadUserProfile(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, "0.0", view.AverageRating)
	assert.True(t, view.AdminControls.Video && view.AdminControls.Gallery && view.AdminControls.DeleteReviews)

	_, err = svc.LoadUserProfile(ctx, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateAvatarStoresImageAndUpdatesProfile(t *testing.T) {
	member := uuid.New()
	repo := &memoryProfiles{profiles: map[uuid.UUID]*entity.Profile{
		member: {UserID: member, FullName: "Ana", Email: "ana@example.com"},
	}}
	fsys := afero.NewMemMapFs()
	svc := NewProfileService(repo, fixedStats{}, storage.NewLocalStorage(fsys, "/uploads"), storage.NewImageProcessor(1<<20, 256)).(*profileService)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	view, err := svc.UpdateAvatar(context.Background(), member, &commonDto.UploadFile{
		Reader:   bytes.NewReader(pngBytes(t)),
		FileName: "me.png",
	})
	require.NoError(t, err)
	require.NotNil(t, view.AvatarURL)
	assert.Equal(t, "/uploads/avatars/1700000000000-me.png", *view.AvatarURL)
	assert.Empty(t, view.Initial)

	exists, err := afero.Exists(fsys, "avatars/1700000000000-me.png")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpdateAvatarRejectsNonImagesAndCleansUpOnFailure(t *testing.T) {
	member := uuid.New()
	repo := &memoryProfiles{profiles: map[uuid.UUID]*entity.Profile{member: {UserID: member}}}
	fsys := afero.NewMemMapFs()
	svc := NewProfileService(repo, fixedStats{}, storage.NewLocalStorage(fsys, "/uploads"), storage.NewImageProcessor(1<<20, 256))
	ctx := context.Background()

	_, err := svc.UpdateAvatar(ctx, member, &commonDto.UploadFile{Reader: strings.NewReader("plain text"), FileName: "a.txt"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	repo.updateErr = errors.New("db down")
	_, err = svc.UpdateAvatar(ctx, member, &commonDto.UploadFile{Reader: bytes.NewReader(pngBytes(t)), FileName: "a.png"})
	require.Error(t, err)

	files, err := afero.ReadDir(fsys, "avatars")
	require.NoError(t, err)
	assert.Empty(t, files)
}
