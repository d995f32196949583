package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chatapp/internal/config"
	"chatapp/internal/models"
	"chatapp/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newUploadService(t *testing.T) (*UploadService, string) {
	t.Helper()
	root := t.TempDir()
	svc := NewUploadService(storage.NewLocal(root, "http://localhost:3333/uploads"), &config.Config{UploadMaxSizeMB: 2})
	tick := int64(1700000000000)
	svc.now = func() time.Time {
		tick++
		return time.UnixMilli(tick)
	}
	return svc, root
}

func TestUploadServiceReplace(t *testing.T) {
	svc, root := newUploadService(t)
	ctx := context.Background()

	key, err := svc.Replace(ctx, AvatarImage, "", UploadInput{OwnerID: "user-1", Filename: "me.PNG", Content: pngBytes(t, 32, 32)})
	require.NoError(t, err)
	assert.Equal(t, "1700000000001-user-1.png", key)
	assert.FileExists(t, filepath.Join(root, key))
	assert.FileExists(t, filepath.Join(root, "1700000000001-user-1.webp"))
	assert.Equal(t, "http://localhost:3333/uploads/1700000000001-user-1.png", svc.URL(key))

	next, err := svc.Replace(ctx, AvatarImage, key, UploadInput{OwnerID: "user-1", Filename: "me.png", Content: pngBytes(t, 32, 32)})
	require.NoError(t, err)
	assert.NotEqual(t, key, next)
	assert.NoFileExists(t, filepath.Join(root, key))
	assert.NoFileExists(t, filepath.Join(root, VariantKey(key)))
	assert.FileExists(t, filepath.Join(root, next))
}

func TestUploadServiceGroupImagePrefix(t *testing.T) {
	svc, root := newUploadService(t)

	key, err := svc.Replace(context.Background(), GroupImage, "", UploadInput{OwnerID: "group-1", Filename: "g.png", Content: pngBytes(t, 8, 8)})
	require.NoError(t, err)
	assert.Equal(t, "group-image/1700000000001-group-1.png", key)
	assert.Equal(t, "http://localhost:3333/uploads/group-image/1700000000001-group-1.png", svc.URL(key))
	assert.FileExists(t, filepath.Join(root, "group-image", "1700000000001-group-1.png"))
}

func TestUploadServiceResizesLargeImages(t *testing.T) {
	svc, root := newUploadService(t)

	key, err := svc.Replace(context.Background(), AvatarImage, "", UploadInput{OwnerID: "user-1", Filename: "big.png", Content: pngBytes(t, 2048, 1024)})
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(root, key))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, MaxImageDimension, cfg.Width)
	assert.Equal(t, MaxImageDimension/2, cfg.Height)
}

func TestUploadServiceRejects(t *testing.T) {
	svc, root := newUploadService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		kind    ImageKind
		in      UploadInput
		message string
	}{
		{"empty", AvatarImage, UploadInput{Filename: "a.png"}, "Avatar is required"},
		{"too large", AvatarImage, UploadInput{Filename: "a.png", Content: make([]byte, 2*1024*1024+1)}, "Avatar must be less than 2MB"},
		{"bad extension", AvatarImage, UploadInput{Filename: "a.gif", Content: pngBytes(t, 4, 4)}, "Avatar must be a valid image (jpg, jpeg, png)"},
		{"extension mismatch", GroupImage, UploadInput{Filename: "a.jpg", Content: pngBytes(t, 4, 4)}, "Group image must be a valid image (jpg, jpeg, png)"},
		{"not an image", AvatarImage, UploadInput{Filename: "a.png", Content: []byte("plain text pretending")}, "Avatar must be a valid image (jpg, jpeg, png)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.OwnerID = "user-1"
			_, err := svc.Replace(ctx, tt.kind, "keep.png", tt.in)
			assertAppError(t, err, models.CodeBadRequest, tt.message)
		})
	}

	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.png"), []byte("x"), 0o644))
	_, err := svc.Replace(ctx, AvatarImage, "keep.png", UploadInput{OwnerID: "user-1", Filename: "a.gif", Content: pngBytes(t, 4, 4)})
	require.Error(t, err)
	assert.FileExists(t, filepath.Join(root, "keep.png"), "a rejected upload keeps the previous file")
}

func TestVariantKey(t *testing.T) {
	assert.Equal(t, "1-u.webp", VariantKey("1-u.png"))
	assert.Equal(t, "group-image/1-g.webp", VariantKey("group-image/1-g.jpeg"))
}
