// Package recommend picks the model variant best suited to the host.
package recommend

import (
	"slices"

	"whisper-web/internal/domain"
)

const gib = uint64(1 << 30)

// Tiered preference lists. Within a tier the earlier ID wins; IDs not in the
// inventory are skipped.
var (
	gpuHighMemory = []string{"large-v3", "large-v2"}
	gpuModerate   = []string{"medium"}
	cpuHighMemory = []string{"medium", "small"}
	cpuModerate   = []string{"small", "base"}
	cpuLow        = []string{"tiny", "base"}
)

// Recommend applies the ordered preference policy to the inventory and a
// capability snapshot. It is pure and total: an empty inventory, an absent
// GPU, and unknown memory are all ordinary inputs. The available list is
// expected in catalog declaration order, which is what Catalog.Scan produces;
// the final fallback picks its first element.
func Recommend(available []string, caps domain.Capabilities) domain.Recommendation {
	if len(available) == 0 {
		return domain.Recommendation{Reason: "no models available"}
	}

	if caps.GPUPresent {
		// When the GPU memory probe came back empty, budget against system
		// memory instead of refusing to use the GPU at all.
		budget := caps.GPUMemoryBytes
		if budget == 0 {
			budget = caps.AvailableMemoryBytes
		}

		if budget >= 8*gib {
			if id, ok := firstPresent(gpuHighMemory, available); ok {
				return domain.Recommendation{Model: id, Reason: "GPU + high memory"}
			}
		}
		if budget >= 4*gib {
			if id, ok := firstPresent(gpuModerate, available); ok {
				return domain.Recommendation{Model: id, Reason: "GPU + moderate memory"}
			}
		}
		// Any GPU beats the CPU ladder: take the smallest thing on disk.
		return domain.Recommendation{Model: available[0], Reason: "GPU available"}
	}

	switch {
	case caps.AvailableMemoryBytes >= 8*gib:
		if id, ok := firstPresent(cpuHighMemory, available); ok {
			return domain.Recommendation{Model: id, Reason: "high system memory"}
		}
	case caps.AvailableMemoryBytes >= 4*gib:
		if id, ok := firstPresent(cpuModerate, available); ok {
			return domain.Recommendation{Model: id, Reason: "moderate system memory"}
		}
	default:
		if id, ok := firstPresent(cpuLow, available); ok {
			return domain.Recommendation{Model: id, Reason: "fastest model for low memory"}
		}
	}

	return domain.Recommendation{Model: available[0], Reason: "fallback: first available"}
}

func firstPresent(preferred, available []string) (string, bool) {
	for _, id := range preferred {
		if slices.Contains(available, id) {
			return id, true
		}
	}
	return "", false
}
