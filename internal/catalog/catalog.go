// Package catalog holds the static registry of whisper.cpp model variants
// and the on-disk inventory scan that determines which of them are usable.
package catalog

import "whisper-web/internal/domain"

const huggingFaceBase = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

var variants = []domain.ModelVariant{
	{
		ID:      "tiny",
		File:    "ggml-tiny.bin",
		Size:    "75 MB",
		Speed:   "~32x",
		Quality: "Low",
		RAM:     "~390 MB",
		URL:     huggingFaceBase + "ggml-tiny.bin",
	},
	{
		ID:      "tiny.en",
		File:    "ggml-tiny.en.bin",
		Size:    "75 MB",
		Speed:   "~32x",
		Quality: "Low (English)",
		RAM:     "~390 MB",
		URL:     huggingFaceBase + "ggml-tiny.en.bin",
	},
	{
		ID:      "base",
		File:    "ggml-base.bin",
		Size:    "142 MB",
		Speed:   "~16x",
		Quality: "Good",
		RAM:     "~500 MB",
		URL:     huggingFaceBase + "ggml-base.bin",
	},
	{
		ID:      "base.en",
		File:    "ggml-base.en.bin",
		Size:    "142 MB",
		Speed:   "~16x",
		Quality: "Good (English)",
		RAM:     "~500 MB",
		URL:     huggingFaceBase + "ggml-base.en.bin",
	},
	{
		ID:      "small",
		File:    "ggml-small.bin",
		Size:    "466 MB",
		Speed:   "~6x",
		Quality: "Better",
		RAM:     "~1 GB",
		URL:     huggingFaceBase + "ggml-small.bin",
	},
	{
		ID:      "small.en",
		File:    "ggml-small.en.bin",
		Size:    "466 MB",
		Speed:   "~6x",
		Quality: "Better (English)",
		RAM:     "~1 GB",
		URL:     huggingFaceBase + "ggml-small.en.bin",
	},
	{
		ID:      "medium",
		File:    "ggml-medium.bin",
		Size:    "1.5 GB",
		Speed:   "~2x",
		Quality: "Very good",
		RAM:     "~2.6 GB",
		URL:     huggingFaceBase + "ggml-medium.bin",
	},
	{
		ID:      "medium.en",
		File:    "ggml-medium.en.bin",
		Size:    "1.5 GB",
		Speed:   "~2x",
		Quality: "Very good (English)",
		RAM:     "~2.6 GB",
		URL:     huggingFaceBase + "ggml-medium.en.bin",
	},
	{
		ID:      "large-v1",
		File:    "ggml-large-v1.bin",
		Size:    "2.9 GB",
		Speed:   "~1x",
		Quality: "Best (v1)",
		RAM:     "~4.3 GB",
		URL:     huggingFaceBase + "ggml-large-v1.bin",
	},
	{
		ID:      "large-v2",
		File:    "ggml-large-v2.bin",
		Size:    "2.9 GB",
		Speed:   "~1x",
		Quality: "Best (v2)",
		RAM:     "~4.3 GB",
		URL:     huggingFaceBase + "ggml-large-v2.bin",
	},
	{
		ID:      "large-v3",
		File:    "ggml-large-v3.bin",
		Size:    "2.9 GB",
		Speed:   "~1x",
		Quality: "Best (v3)",
		RAM:     "~4.3 GB",
		URL:     huggingFaceBase + "ggml-large-v3.bin",
	},
	{
		ID:      "large-v3-turbo",
		File:    "ggml-large-v3-turbo.bin",
		Size:    "1.6 GB",
		Speed:   "~2x",
		Quality: "Best (Turbo)",
		RAM:     "~3.0 GB",
		URL:     huggingFaceBase + "ggml-large-v3-turbo.bin",
	},
}

// Catalog is the immutable set of known model variants. Iteration order is
// declaration order.
type Catalog struct {
	variants []domain.ModelVariant
}

// New returns the built-in whisper.cpp catalog.
func New() *Catalog {
	return &Catalog{variants: variants}
}

// Lookup returns the variant with the given ID.
func (c *Catalog) Lookup(id string) (domain.ModelVariant, bool) {
	for _, v := range c.variants {
		if v.ID == id {
			return v, true
		}
	}
	return domain.ModelVariant{}, false
}

// All returns every variant in declaration order.
func (c *Catalog) All() []domain.ModelVariant {
	out := make([]domain.ModelVariant, len(c.variants))
	copy(out, c.variants)
	return out
}
