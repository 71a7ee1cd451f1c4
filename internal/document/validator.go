package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	// Registered decoders for best-effort image metadata extraction.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/sync/errgroup"

	"seacert/internal/requirement"
)

// ValidationResult aggregates every violation found in a candidate file.
// Checks are not short-circuited so the caller can report all of them at
// once.
type ValidationResult struct {
	IsValid  bool              `json:"is_valid"`
	Errors   []string          `json:"errors"`
	Warnings []string          `json:"warnings"`
	Metadata map[string]string `json:"metadata"`
}

// CustomCheck is an injected predicate for domain-specific content
// inspection. Returned strings are appended as validation errors. An error
// (or panic) from the check itself counts as a validation failure, never a
// pass: fail-closed is the only safe default for an accreditation system.
type CustomCheck func(ctx context.Context, file FileInfo) ([]string, error)

// Validator decides whether a candidate file satisfies a requirement
// descriptor before it is accepted into the registry. It is pure: the only
// side effect is best-effort metadata extraction for warnings.
type Validator struct {
	custom CustomCheck
}

// NewValidator builds a Validator with an optional custom check (nil to
// disable).
func NewValidator(custom CustomCheck) *Validator {
	return &Validator{custom: custom}
}

// Validate runs the type, size and custom checks concurrently (they are
// read-only, so completion order cannot affect the outcome) and aggregates
// errors deterministically: type first, then size, then custom.
func (v *Validator) Validate(ctx context.Context, file FileInfo, desc requirement.Descriptor) ValidationResult {
	var (
		mu         sync.Mutex
		typeErrs   []string
		sizeErrs   []string
		customErrs []string
		warnings   []string
		metadata   = map[string]string{}
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if !desc.AcceptsType(file.Name, file.MimeType) {
			mu.Lock()
			typeErrs = append(typeErrs, fmt.Sprintf(
				"Invalid file type for %q: accepted types are %v", file.Name, desc.AcceptedTypes))
			mu.Unlock()
		}
		return nil
	})

	g.Go(func() error {
		switch {
		case desc.MaxSizeBytes <= 0:
			// A non-positive ceiling is a configuration error; rejecting every
			// file is safer than silently accepting.
			mu.Lock()
			sizeErrs = append(sizeErrs, fmt.Sprintf(
				"Requirement %q has an invalid size limit (%d bytes); uploads are disabled for this slot", desc.Key, desc.MaxSizeBytes))
			mu.Unlock()
		case file.SizeBytes > desc.MaxSizeBytes:
			mu.Lock()
			sizeErrs = append(sizeErrs, fmt.Sprintf(
				"File exceeds the %.1f MB size limit", float64(desc.MaxSizeBytes)/1_000_000))
			mu.Unlock()
		}
		return nil
	})

	if v.custom != nil {
		g.Go(func() error {
			extra, err := v.runCustom(gctx, file)
			mu.Lock()
			customErrs = append(customErrs, extra...)
			if err != nil {
				customErrs = append(customErrs, "File failed content validation")
			}
			mu.Unlock()
			return nil
		})
	}

	g.Go(func() error {
		meta, warn := extractMetadata(file)
		mu.Lock()
		for k, val := range meta {
			metadata[k] = val
		}
		if warn != "" {
			warnings = append(warnings, warn)
		}
		mu.Unlock()
		return nil
	})

	// Goroutines above only record findings; they never return errors.
	_ = g.Wait()

	errs := make([]string, 0, len(typeErrs)+len(sizeErrs)+len(customErrs))
	errs = append(errs, typeErrs...)
	errs = append(errs, sizeErrs...)
	errs = append(errs, customErrs...)

	return ValidationResult{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
		Metadata: metadata,
	}
}

// runCustom shields the pipeline from a misbehaving injected check: both
// returned errors and panics surface as a generic validation failure.
func (v *Validator) runCustom(ctx context.Context, file FileInfo) (extra []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("custom check panic: %v", r)
		}
	}()
	return v.custom(ctx, file)
}

// extractMetadata pulls descriptive attributes out of the file content.
// Extraction failures downgrade to a warning and never invalidate the file.
func extractMetadata(file FileInfo) (map[string]string, string) {
	meta := map[string]string{}
	if len(file.Content) == 0 {
		return meta, ""
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(file.Content))
	if err == nil {
		meta["image_format"] = format
		meta["image_width"] = fmt.Sprintf("%d", cfg.Width)
		meta["image_height"] = fmt.Sprintf("%d", cfg.Height)
		return meta, ""
	}
	if isImageMime(file.MimeType) {
		return meta, "could not read image dimensions"
	}
	return meta, ""
}

func isImageMime(mime string) bool {
	return len(mime) > 6 && mime[:6] == "image/"
}
