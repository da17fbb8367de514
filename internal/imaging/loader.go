package imaging

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// cachedImage is one decoded source together with the identity of its bytes.
type cachedImage struct {
	img    image.Image
	digest string
	format string
	size   int64
}

// ImageCache provides thread-safe caching of decoded source images.
//
// Entries are keyed by the path they were loaded from, or by content digest
// for images handed over as raw bytes. Besides the decoded image, each entry
// remembers the SHA-256 digest of the encoded bytes so stipple results can be
// cached per image content rather than per path.
//
// Images are decoded with EXIF orientation applied, so a photo taken in
// portrait mode is stippled upright.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/path/to/photo.jpg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cache.Evict("/path/to/photo.jpg") // Optional: free memory
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]cachedImage
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]cachedImage),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. The image is
// cached using the exact path string provided.
func (c *ImageCache) Load(path string) (image.Image, error) {
	e, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return e.img, nil
}

// Digest returns the hex SHA-256 digest of the file contents at path,
// loading the image into the cache if needed.
func (c *ImageCache) Digest(path string) (string, error) {
	e, err := c.load(path)
	if err != nil {
		return "", err
	}
	return e.digest, nil
}

// LoadBytes decodes an encoded image held in memory. The entry is cached
// under its content digest, which is returned alongside the image.
func (c *ImageCache) LoadBytes(data []byte) (image.Image, string, error) {
	digest := contentDigest(data)
	key := "sha256:" + digest

	c.mu.RLock()
	if e, ok := c.images[key]; ok {
		c.mu.RUnlock()
		return e.img, digest, nil
	}
	c.mu.RUnlock()

	e, err := decodeEntry(data)
	if err != nil {
		return nil, "", err
	}

	c.mu.Lock()
	c.images[key] = e
	c.mu.Unlock()

	return e.img, digest, nil
}

func (c *ImageCache) load(path string) (cachedImage, error) {
	c.mu.RLock()
	if e, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return e, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return cachedImage{}, fmt.Errorf("failed to open image: %w", err)
	}

	e, err := decodeEntry(data)
	if err != nil {
		return cachedImage{}, err
	}

	c.mu.Lock()
	c.images[path] = e
	c.mu.Unlock()

	return e, nil
}

// Clear removes all images from the cache, freeing the associated memory.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]cachedImage)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len reports the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

func decodeEntry(data []byte) (cachedImage, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return cachedImage{}, fmt.Errorf("failed to decode image: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return cachedImage{}, fmt.Errorf("failed to decode image: %w", err)
	}

	return cachedImage{
		img:    img,
		digest: contentDigest(data),
		format: format,
		size:   int64(len(data)),
	}, nil
}

func contentDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels, after EXIF orientation.
	Width int `json:"width"`

	// Height is the image height in pixels, after EXIF orientation.
	Height int `json:"height"`

	// Format is the format reported by the decoder: "png", "jpeg", "gif",
	// "bmp", "tiff" or "webp".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the encoded image in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// Digest is the hex SHA-256 of the encoded bytes.
	Digest string `json:"digest"`
}

// LoadImageInfo loads an image and returns metadata about it.
//
// The format is the one detected from the file contents, not the extension.
// Color depth and alpha are derived from the decoded Go image type:
//   - *image.RGBA64, *image.NRGBA64, *image.Gray16 -> "16-bit"
//   - All other types -> "8-bit"
//
// Because decoding applies EXIF orientation, which always produces
// *image.NRGBA for rotated JPEGs, such images report HasAlpha = true.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	e, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	bounds := e.img.Bounds()

	hasAlpha := false
	colorDepth := "8-bit"
	switch e.img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        e.format,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: e.size,
		Digest:        e.digest,
	}, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of an image without additional metadata.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
