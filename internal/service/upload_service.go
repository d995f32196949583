package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"path"
	"strings"
	"time"

	"chatapp/internal/config"
	"chatapp/internal/middleware"
	"chatapp/internal/models"
	"chatapp/internal/observability"
	"chatapp/internal/storage"

	"github.com/chai2010/webp"
	"go.opentelemetry.io/otel/attribute"
	xdraw "golang.org/x/image/draw"
)

const (
	DefaultUploadMaxSizeMB = 2
	MaxImageDimension      = 1024
	JPEGQuality            = 85
	WebPQuality            = 70
)

// ImageKind describes one upload slot: its form field, its client-facing
// label and the key prefix it is stored under.
type ImageKind struct {
	Field  string
	Label  string
	Prefix string
}

var (
	AvatarImage = ImageKind{Field: "avatar", Label: "Avatar"}
	GroupImage  = ImageKind{Field: "group_image", Label: "Group image", Prefix: "group-image/"}
)

var allowedImageExts = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// UploadInput is one uploaded file, already read into memory.
type UploadInput struct {
	OwnerID     string
	Filename    string
	ContentType string
	Content     []byte
}

// UploadService validates images and replaces stored files.
type UploadService struct {
	store    storage.Storage
	maxBytes int64
	now      func() time.Time
}

// NewUploadService returns an UploadService writing to store.
func NewUploadService(store storage.Storage, cfg *config.Config) *UploadService {
	maxMB := DefaultUploadMaxSizeMB
	if cfg != nil && cfg.UploadMaxSizeMB > 0 {
		maxMB = cfg.UploadMaxSizeMB
	}
	return &UploadService{
		store:    store,
		maxBytes: int64(maxMB) * 1024 * 1024,
		now:      time.Now,
	}
}

// URL resolves a stored key into its public URL.
func (s *UploadService) URL(key string) string {
	return s.store.URL(key)
}

// Resolver returns URL as a models.URLResolver.
func (s *UploadService) Resolver() models.URLResolver {
	if s == nil {
		return nil
	}
	return s.URL
}

// Replace validates in, deletes oldKey (and its webp variant) and stores the
// new file as "<prefix><unixMillis>-<owner>.<ext>". It returns the new key.
func (s *UploadService) Replace(ctx context.Context, kind ImageKind, oldKey string, in UploadInput) (key string, err error) {
	ctx, span := observability.StartSpan(ctx, "uploads", "replace",
		attribute.String("upload.kind", kind.Field), attribute.Int("upload.bytes", len(in.Content)))
	defer func() { observability.EndSpan(span, err) }()

	ext, img, err := s.validate(kind, in)
	if err != nil {
		return "", err
	}

	content := in.Content
	if resized, changed := fitWithin(img, MaxImageDimension); changed {
		content, err = encodeAs(resized, ext)
		if err != nil {
			return "", models.NewInternalError(err)
		}
		img = resized
	}

	variant, err := encodeWebP(img)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	if oldKey != "" && !strings.Contains(oldKey, "://") {
		for _, k := range []string{oldKey, VariantKey(oldKey)} {
			if err := s.store.Delete(ctx, k); err != nil {
				middleware.Logger.WarnContext(ctx, "failed to delete previous upload", "key", k, "error", err)
			}
		}
	}

	key = fmt.Sprintf("%s%d-%s.%s", kind.Prefix, s.now().UnixMilli(), in.OwnerID, ext)
	if err := s.store.Put(ctx, key, bytes.NewReader(content), int64(len(content)), allowedImageExts[ext]); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := s.store.Put(ctx, VariantKey(key), bytes.NewReader(variant), int64(len(variant)), "image/webp"); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to store webp variant", "key", key, "error", err)
	}

	observability.UploadBytes.Observe(float64(len(content)))
	return key, nil
}

func (s *UploadService) validate(kind ImageKind, in UploadInput) (string, image.Image, error) {
	if len(in.Content) == 0 {
		return "", nil, models.NewBadRequestError(kind.Label + " is required")
	}
	if int64(len(in.Content)) > s.maxBytes {
		return "", nil, models.NewBadRequestError(
			fmt.Sprintf("%s must be less than %dMB", kind.Label, s.maxBytes/(1024*1024)))
	}

	invalid := models.NewBadRequestError(kind.Label + " must be a valid image (jpg, jpeg, png)")

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(in.Filename), "."))
	want, ok := allowedImageExts[ext]
	if !ok {
		return "", nil, invalid
	}
	if http.DetectContentType(in.Content) != want {
		return "", nil, invalid
	}

	img, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", nil, invalid
	}
	return ext, img, nil
}

// VariantKey is the key of the webp rendition stored next to key.
func VariantKey(key string) string {
	return strings.TrimSuffix(key, path.Ext(key)) + ".webp"
}

func fitWithin(src image.Image, maxDim int) (image.Image, bool) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return src, false
	}

	if w >= h {
		h = h * maxDim / w
		w = maxDim
	} else {
		w = w * maxDim / h
		h = maxDim
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst, true
}

func encodeAs(img image.Image, ext string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if ext == "png" {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality})
	}
	return buf.Bytes(), err
}

func encodeWebP(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
