package cache

import (
	"path"
	"regexp"

	"github.com/filekv/filecache/internal/util"
)

const (
	// maxNameLen bounds keys and domain names.
	maxNameLen = 64

	// shardLevels and shardWidth define the fan-out directories carved from
	// the key hash: two levels of two hex characters keep every directory at
	// or under 256 entries regardless of cache size.
	shardLevels = 2
	shardWidth  = 2

	fileExt = ".json"

	dirPerm  = 0o755
	filePerm = 0o644
)

// namePattern admits letters, digits, underscore, dot and hyphen. The same
// rule covers keys and domain names; together with the dot-segment check in
// validateName it keeps every stored path free of separators and traversal
// sequences.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateKey reports whether key may be used in per-key operations.
// The returned error, if any, wraps ErrInvalidArgument.
func ValidateKey(key string) error { return validateName("key", key) }

// ValidateDomainName reports whether name may be used as a cache domain.
// The returned error, if any, wraps ErrInvalidArgument.
func ValidateDomainName(name string) error { return validateName("domain", name) }

func validateName(kind, name string) error {
	if name == "" {
		return invalidf("%s must not be empty", kind)
	}
	if len(name) > maxNameLen {
		return invalidf("%s %q exceeds %d characters", kind, name, maxNameLen)
	}
	if !namePattern.MatchString(name) {
		return invalidf("%s %q contains characters outside [A-Za-z0-9_.-]", kind, name)
	}
	// "." and ".." fit the character class but, used as a domain, alias the
	// cache root itself or its parent once joined into a path.
	if name == "." || name == ".." {
		return invalidf("%s %q is a relative path segment", kind, name)
	}
	return nil
}

// recordPath maps a key to its record file under the domain directory. The
// location is a pure function of the key; there is no index to maintain or
// corrupt. Equal keys always collapse to the same file.
func recordPath(dir, key string) string {
	digest := util.HashKey(key)
	parts := append([]string{dir}, util.ShardSegments(digest, shardLevels, shardWidth)...)
	parts = append(parts, digest+fileExt)
	return path.Join(parts...)
}
