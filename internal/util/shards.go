package util

// ShardSegments slices the leading levels*width characters of digest into
// equal-width directory segments. A 2x2 split of "abcd0123..." yields
// ["ab", "cd"], which bounds any single directory to 256 child entries no
// matter how many items the cache holds.
//
// Digests here are fixed length (64 hex chars), far longer than any sane
// levels*width; a short digest is a programming error and panics via the
// slice bounds check.
func ShardSegments(digest string, levels, width int) []string {
	segs := make([]string, 0, levels)
	for i := 0; i < levels; i++ {
		segs = append(segs, digest[i*width:(i+1)*width])
	}
	return segs
}
