package pipeline

import (
	"image"
	"sort"
)

const (
	maxSwatches   = 5
	sampleTarget  = 10000
	quantizeShift = 4
)

type namedColor struct {
	name    string
	r, g, b int
}

// Color families used for human-readable swatch names. Buckets map to the
// nearest family by squared RGB distance.
var colorFamilies = []namedColor{
	{"black", 20, 20, 20},
	{"white", 240, 240, 240},
	{"gray", 128, 128, 128},
	{"silver", 190, 190, 190},
	{"red", 200, 40, 40},
	{"dark red", 120, 20, 20},
	{"orange", 240, 140, 40},
	{"brown", 130, 90, 50},
	{"yellow", 230, 220, 60},
	{"green", 60, 160, 60},
	{"dark green", 30, 90, 40},
	{"teal", 40, 150, 150},
	{"cyan", 80, 210, 220},
	{"blue", 50, 90, 200},
	{"navy", 25, 40, 100},
	{"purple", 130, 60, 180},
	{"magenta", 200, 60, 180},
	{"pink", 240, 160, 190},
	{"beige", 220, 200, 170},
}

// ExtractColors returns the dominant color families of an image, most
// dominant first, deduplicated. Pixels are sampled on a fixed stride and
// quantized to 4 bits per channel, so the result is deterministic for the
// same pixel data.
func ExtractColors(img *image.NRGBA) []string {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	stride := 1
	for (width/stride)*(height/stride) > sampleTarget {
		stride++
	}

	counts := make(map[uint32]int)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			c := img.NRGBAAt(x, y)
			if c.A < 128 {
				continue
			}
			key := uint32(c.R>>quantizeShift)<<8 |
				uint32(c.G>>quantizeShift)<<4 |
				uint32(c.B>>quantizeShift)
			counts[key]++
		}
	}

	type bucket struct {
		key   uint32
		count int
	}
	buckets := make([]bucket, 0, len(counts))
	for key, count := range counts {
		buckets = append(buckets, bucket{key, count})
	}
	// Tie-break on the key so equal counts still order deterministically.
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].key < buckets[j].key
	})

	var swatches []string
	seen := map[string]struct{}{}
	for _, b := range buckets {
		if len(swatches) >= maxSwatches {
			break
		}
		// Bucket center back in 8-bit space.
		r := int(b.key>>8&0xf)<<quantizeShift + 1<<(quantizeShift-1)
		g := int(b.key>>4&0xf)<<quantizeShift + 1<<(quantizeShift-1)
		bl := int(b.key&0xf)<<quantizeShift + 1<<(quantizeShift-1)

		name := nearestFamily(r, g, bl)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		swatches = append(swatches, name)
	}

	return swatches
}

func nearestFamily(r, g, b int) string {
	best := colorFamilies[0].name
	bestDist := 1 << 30
	for _, family := range colorFamilies {
		dr, dg, db := r-family.r, g-family.g, b-family.b
		dist := dr*dr + dg*dg + db*db
		if dist < bestDist {
			bestDist = dist
			best = family.name
		}
	}
	return best
}
