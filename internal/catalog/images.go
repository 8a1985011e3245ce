package catalog

import "sort"

// ResolveImages picks the display image and the ordered gallery. The
// primary image wins; otherwise the image with the smallest sort order;
// no images yields nil.
func ResolveImages(images []ProductImage) (*string, []string) {
	ordered := make([]ProductImage, len(images))
	copy(ordered, images)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SortOrder < ordered[j].SortOrder
	})

	urls := make([]string, len(ordered))
	var primary *string
	for i, img := range ordered {
		urls[i] = img.ImageURL
		if img.IsPrimary && primary == nil {
			url := img.ImageURL
			primary = &url
		}
	}
	if primary == nil && len(urls) > 0 {
		url := urls[0]
		primary = &url
	}
	return primary, urls
}
