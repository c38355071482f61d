package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"mix/internal/config"
	"mix/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newPhotoHarness(t *testing.T) *PhotoService {
	t.Helper()
	db := newTestDB(t)
	cfg := &config.Config{MediaDir: t.TempDir(), MediaMaxUploadMB: 5}
	return NewPhotoService(repository.NewImageRepository(db), cfg)
}

func TestProcessRejectsBadUploads(t *testing.T) {
	svc := newPhotoHarness(t)
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		_, err := svc.Process(ctx, 1, nil)
		assert.Equal(t, "VALIDATION_ERROR", appErrCode(t, err))
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := svc.Process(ctx, 1, []byte("definitely text"))
		assert.Equal(t, "VALIDATION_ERROR", appErrCode(t, err))
	})

	t.Run("truncated image", func(t *testing.T) {
		data := pngBytes(t, 300, 300)
		_, err := svc.Process(ctx, 1, data[:100])
		assert.Equal(t, "VALIDATION_ERROR", appErrCode(t, err))
	})

	t.Run("too small", func(t *testing.T) {
		_, err := svc.Process(ctx, 1, pngBytes(t, 120, 300))
		assert.Equal(t, "VALIDATION_ERROR", appErrCode(t, err))
	})
}

func TestProcessStoresAndDeduplicates(t *testing.T) {
	svc := newPhotoHarness(t)
	ctx := context.Background()
	data := pngBytes(t, 400, 300)

	blob, err := svc.Process(ctx, 1, data)
	require.NoError(t, err)
	assert.Len(t, blob.Hash, 64)
	assert.Equal(t, 400, blob.Width)
	assert.Equal(t, 300, blob.Height)
	assert.Equal(t, "image/jpeg", blob.MimeType)

	again, err := svc.Process(ctx, 2, data)
	require.NoError(t, err)
	assert.Equal(t, blob.ID, again.ID)

	t.Run("serves both formats", func(t *testing.T) {
		_, jpegPath, err := svc.ResolveForServing(ctx, blob.Hash, "jpeg")
		require.NoError(t, err)
		assert.Contains(t, jpegPath, ".jpg")

		_, webpPath, err := svc.ResolveForServing(ctx, blob.Hash, "webp")
		require.NoError(t, err)
		assert.Contains(t, webpPath, ".webp")
	})

	t.Run("rejects crafted hashes", func(t *testing.T) {
		_, _, err := svc.ResolveForServing(ctx, "../../etc/passwd", "jpeg")
		assert.Equal(t, "VALIDATION_ERROR", appErrCode(t, err))
	})

	t.Run("unknown hash", func(t *testing.T) {
		_, _, err := svc.ResolveForServing(ctx, "deadbeef", "jpeg")
		assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
	})
}

func TestProcessDownscalesOversized(t *testing.T) {
	svc := newPhotoHarness(t)

	blob, err := svc.Process(context.Background(), 1, pngBytes(t, 2000, 1000))
	require.NoError(t, err)
	assert.Equal(t, 1440, blob.Width)
	assert.Equal(t, 720, blob.Height)
}
