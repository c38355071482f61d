package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mix/internal/config"
	"mix/internal/models"
	"mix/internal/repository"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder

	_ "image/gif"
	_ "image/png"
)

const (
	defaultMediaDir    = "/tmp/mix/media"
	defaultMaxUploadMB = 5
	photoMaxSize       = 1440
	photoJPEGQuality   = 82
	photoWebPQuality   = 70
	photoMinDimension  = 200
)

// PhotoService ingests uploaded images for profile photos and chat messages.
// Images are verified by decoding, downscaled, re-encoded as JPEG and WebP,
// and stored content-addressed so identical uploads share one blob.
type PhotoService struct {
	repo           repository.ImageRepository
	mediaDir       string
	maxUploadBytes int64
}

// NewPhotoService returns a new PhotoService.
func NewPhotoService(repo repository.ImageRepository, cfg *config.Config) *PhotoService {
	mediaDir := defaultMediaDir
	maxUploadMB := defaultMaxUploadMB
	if cfg != nil {
		if cfg.MediaDir != "" {
			mediaDir = cfg.MediaDir
		}
		if cfg.MediaMaxUploadMB > 0 {
			maxUploadMB = cfg.MediaMaxUploadMB
		}
	}
	return &PhotoService{
		repo:           repo,
		mediaDir:       mediaDir,
		maxUploadBytes: int64(maxUploadMB) * 1024 * 1024,
	}
}

// Process validates, normalizes, and stores an uploaded image, returning the
// stored blob record. Re-uploading identical bytes returns the existing blob.
func (s *PhotoService) Process(ctx context.Context, userID uint, data []byte) (*models.MessageImageBlob, error) {
	if len(data) == 0 {
		return nil, models.NewValidationError("No image data")
	}
	if int64(len(data)) > s.maxUploadBytes {
		return nil, models.NewValidationError(fmt.Sprintf("Image too large (max %dMB)", s.maxUploadBytes/(1024*1024)))
	}

	detected := http.DetectContentType(data)
	if !isAllowedPhotoMIME(detected) {
		return nil, models.NewValidationError("Unsupported image type")
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	b := decoded.Bounds()
	if b.Dx() < photoMinDimension || b.Dy() < photoMinDimension {
		return nil, models.NewValidationError(fmt.Sprintf("Image must be at least %dpx on each side", photoMinDimension))
	}

	master := resizeToFit(decoded, photoMaxSize, photoMaxSize)

	jpegBytes, err := encodeJPEG(master, photoJPEGQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	hash := contentHash(jpegBytes)
	if existing, err := s.repo.GetByHash(ctx, hash); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	webpBytes, err := encodeWebP(master, photoWebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	jpegRel := hash + ".jpg"
	webpRel := hash + ".webp"
	if err := writeMediaFile(filepath.Join(s.mediaDir, jpegRel), jpegBytes); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeMediaFile(filepath.Join(s.mediaDir, webpRel), webpBytes); err != nil {
		_ = os.Remove(filepath.Join(s.mediaDir, jpegRel))
		return nil, models.NewInternalError(err)
	}

	mb := master.Bounds()
	blob := &models.MessageImageBlob{
		Hash:       hash,
		UserID:     userID,
		MimeType:   "image/jpeg",
		SizeBytes:  int64(len(jpegBytes)),
		Width:      mb.Dx(),
		Height:     mb.Dy(),
		JPEGPath:   jpegRel,
		WebPPath:   webpRel,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, blob); err != nil {
		_ = os.Remove(filepath.Join(s.mediaDir, jpegRel))
		_ = os.Remove(filepath.Join(s.mediaDir, webpRel))
		return nil, err
	}
	return blob, nil
}

// ResolveForServing maps a blob hash to the on-disk path of the requested
// format ("jpeg" or "webp"). The hash is validated to block path traversal.
func (s *PhotoService) ResolveForServing(ctx context.Context, hash, format string) (*models.MessageImageBlob, string, error) {
	if !isValidBlobHash(hash) {
		return nil, "", models.NewValidationError("Invalid image hash")
	}

	blob, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		return nil, "", err
	}
	if blob == nil {
		return nil, "", models.NewNotFoundError("Image", hash)
	}

	rel := blob.JPEGPath
	if strings.EqualFold(format, "webp") {
		rel = blob.WebPPath
	}
	full := filepath.Join(s.mediaDir, rel)
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return nil, "", models.NewNotFoundError("Image", hash)
		}
		return nil, "", models.NewInternalError(err)
	}
	return blob, full, nil
}

// isValidBlobHash checks the hash is lowercase hex, blocking crafted paths.
func isValidBlobHash(hash string) bool {
	if len(hash) == 0 || len(hash) > 128 {
		return false
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func isAllowedPhotoMIME(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeMediaFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
