package ai

import "errors"

// Validation errors surfaced before any external call is attempted.
var (
	ErrMissingPersonImage = errors.New("person image with a base64 payload is required")
	ErrNoGarments         = errors.New("at least one garment image (top, pants or shoes) is required")
)

// ImageFile is a base64-encoded image payload with its mime type, matching the
// wire shape uploads arrive in. The mime type is optional; consumers default it.
type ImageFile struct {
	Base64   string `json:"base64"`
	MimeType string `json:"mimeType,omitempty"`
}

// Valid reports whether the file carries a payload.
func (f *ImageFile) Valid() bool {
	return f != nil && f.Base64 != ""
}

// GarmentSet holds the clothing product photos for a try-on request. Every
// slot is optional but at least one must be present.
type GarmentSet struct {
	Top   *ImageFile `json:"top,omitempty"`
	Pants *ImageFile `json:"pants,omitempty"`
	Shoes *ImageFile `json:"shoes,omitempty"`
}

// TryOnRequest asks for a photorealistic image of the person wearing the
// provided garments.
type TryOnRequest struct {
	Person   ImageFile  `json:"person"`
	Garments GarmentSet `json:"clothingItems"`
}

// TryOnResult carries the generated image as a data URI. An empty DataURI
// means the model answered without an image, which is not an error.
type TryOnResult struct {
	DataURI string `json:"generatedImage,omitempty"`
}
