package domain

// =============================================================================
// Image Constants
// =============================================================================

// SupportedImageTypes maps accepted hero image MIME types to display names.
// Thumbnailing requires a decodable format, so only JPEG and PNG are accepted.
var SupportedImageTypes = map[string]string{
	"image/jpeg": "JPEG",
	"image/png":  "PNG",
}

const (
	// MaxImageSize is the maximum allowed size for uploaded hero images (10MB).
	MaxImageSize = 10 * 1024 * 1024

	// ThumbnailMaxWidth is the maximum width for generated thumbnails.
	ThumbnailMaxWidth = 400

	// ThumbnailMaxHeight is the maximum height for generated thumbnails.
	ThumbnailMaxHeight = 300

	// ThumbnailJPEGQuality is the JPEG quality for thumbnail generation (0-100).
	ThumbnailJPEGQuality = 85
)

// =============================================================================
// Hero Image
// =============================================================================

// HeroImage describes a stored proposal hero image and its thumbnail.
// Built by the image service after a successful upload; not persisted as its
// own table, the proposal only records the public URL.
type HeroImage struct {
	URL          string // Public or presigned URL for the original
	ThumbnailURL string // Public or presigned URL for the thumbnail
	StorageKey   string // Key of the original in storage
	ThumbnailKey string // Key of the thumbnail in storage
	ContentType  string // MIME type of the original
	SizeBytes    int64  // Original file size
	Width        int32  // Original width in pixels
	Height       int32  // Original height in pixels
}

// =============================================================================
// Validation Helpers
// =============================================================================

// IsValidImageContentType checks if the content type is supported.
func IsValidImageContentType(contentType string) bool {
	_, ok := SupportedImageTypes[contentType]
	return ok
}

// ValidateImageSize checks if the file size is within limits.
func ValidateImageSize(size int64) error {
	if size > MaxImageSize {
		return Errorf(EINVALID, "image.validate", "Image size %d bytes exceeds maximum of %d bytes (%.1fMB)", size, MaxImageSize, float64(MaxImageSize)/(1024*1024))
	}
	if size == 0 {
		return Invalid("image.validate", "Image file is empty")
	}
	return nil
}
