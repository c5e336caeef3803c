package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/tryfit/stylist/internal/ai"
)

type imageGenerator interface {
	GenerateImage(ctx context.Context, parts []*genai.Part) (*genai.Blob, error)
}

const defaultImageMimeType = "image/jpeg"

// TryOn generates a virtual try-on image: the person of the reference photo
// wearing the provided garments.
type TryOn struct {
	generator imageGenerator
	logger    *zap.Logger
}

// NewTryOn creates a TryOn service on top of an image generator.
func NewTryOn(generator imageGenerator, logger *zap.Logger) *TryOn {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TryOn{generator: generator, logger: logger}
}

// Available reports whether the service is backed by a configured generator.
func (t *TryOn) Available() bool {
	return t != nil && t.generator != nil
}

// Generate validates the request, assembles the model parts and returns the
// generated image as a data URI. A result with an empty DataURI means the
// model answered without an image. Upstream failures, after the retry policy
// is exhausted, are returned to the caller.
func (t *TryOn) Generate(ctx context.Context, req *ai.TryOnRequest) (*ai.TryOnResult, error) {
	if !t.Available() {
		return nil, errors.New("try-on generator is not configured")
	}

	if req == nil || !req.Person.Valid() {
		return nil, ai.ErrMissingPersonImage
	}

	parts, pieces, err := buildTryOnParts(req)
	if err != nil {
		return nil, err
	}

	t.logger.Debug("generating try-on image",
		zap.Strings("garments", pieces),
		zap.Int("parts", len(parts)),
	)

	blob, err := t.generator.GenerateImage(ctx, parts)
	if err != nil {
		return nil, fmt.Errorf("try-on generation: %w", err)
	}

	if blob == nil || len(blob.Data) == 0 {
		t.logger.Warn("model returned no image")
		return &ai.TryOnResult{}, nil
	}

	mime := blob.MIMEType
	if mime == "" {
		mime = "image/png"
	}

	uri := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(blob.Data)
	return &ai.TryOnResult{DataURI: uri}, nil
}

// buildTryOnParts orders the content as the model expects: the combined
// instruction first, then the person photo, then the garment photos.
func buildTryOnParts(req *ai.TryOnRequest) ([]*genai.Part, []string, error) {
	personPart, err := imagePart(&req.Person)
	if err != nil {
		return nil, nil, fmt.Errorf("person image: %w", err)
	}

	garments := []struct {
		name string
		file *ai.ImageFile
	}{
		{"top", req.Garments.Top},
		{"pants", req.Garments.Pants},
		{"shoes", req.Garments.Shoes},
	}

	parts := []*genai.Part{personPart}
	var pieces []string
	for _, garment := range garments {
		if !garment.file.Valid() {
			continue
		}
		part, err := imagePart(garment.file)
		if err != nil {
			return nil, nil, fmt.Errorf("%s image: %w", garment.name, err)
		}
		parts = append(parts, part)
		pieces = append(pieces, "the "+garment.name)
	}

	if len(pieces) == 0 {
		return nil, nil, ai.ErrNoGarments
	}

	instruction := safetyDirectives() + "\n\nTASK:\n" + taskPrompt(pieces)
	parts = append([]*genai.Part{{Text: instruction}}, parts...)

	return parts, pieces, nil
}

func imagePart(file *ai.ImageFile) (*genai.Part, error) {
	payload := file.Base64
	// Tolerate full data URIs by stripping the prefix.
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ";base64,"); idx != -1 {
			payload = payload[idx+len(";base64,"):]
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64 payload: %w", err)
	}

	mime := file.MimeType
	if mime == "" {
		mime = defaultImageMimeType
	}

	return &genai.Part{InlineData: &genai.Blob{MIMEType: mime, Data: data}}, nil
}

func safetyDirectives() string {
	return strings.Join([]string{
		"CRITICAL SAFETY AND CONSISTENCY DIRECTIVES:",
		"- The FIRST image MUST be used as the definitive source for the person's face and overall appearance.",
		"- ABSOLUTELY NO re-synthesis, redrawing, retouching, or alteration of the person's face is permitted.",
		"- The person's facial structure, landmarks, skin texture, hairline, and expression MUST remain IDENTICAL and UNCHANGED.",
		"- Preserve the EXACT facial identity. NO beautification, smoothing, makeup application, or landmark adjustments.",
		"- Maintain the background, perspective, and lighting IDENTICALLY to the original person image.",
		"- REPLACE existing garments with the provided clothing: top replaces top layer, pants replace pants, shoes replace shoes.",
		"- Remove/ignore backgrounds from clothing product photos; segment the garment only (no mannequin or logos).",
		"- Fit garments to the person's pose with correct scale, rotation and warping; align perspective and seams.",
		"- Respect occlusion: body parts naturally occlude garments when in front.",
		"- Ensure the ENTIRE PERSON is visible; garments must cover their appropriate regions.",
		"- Do NOT add or remove accessories or objects. No text, logos, or watermarks.",
		"- If any instruction conflicts with another, the preservation of the person's facial identity is the ABSOLUTE HIGHEST PRIORITY.",
	}, "\n")
}

func taskPrompt(pieces []string) string {
	return "Use the FIRST image as the base. Remove backgrounds from the clothing product photos and extract only the garments. " +
		"REPLACE the person's existing garments with the provided items. " +
		"Output a single photorealistic image of the SAME person wearing: " + strings.Join(pieces, ", ") + ". " +
		"Fit garments to the person's pose with correct scale, rotation and warping; match perspective and seam alignment. " +
		"Keep lighting and shadows consistent. Preserve the face and body shape exactly. No text, logos, or watermarks."
}
