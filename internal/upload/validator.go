package upload

import (
	"strconv"
	"strings"

	"github.com/yourorg/motionsense/pkg/types"
)

// FileInfo is what validation needs to know about a submitted file.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Extension returns "." plus the lower-cased text after the last dot. A name
// without a dot has an empty extension and yields ".", which no allow list
// matches.
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return "."
	}
	return "." + strings.ToLower(name[i+1:])
}

// ParseExtensions splits an accept string such as ".txt,.csv".
func ParseExtensions(accept string) []string {
	var out []string
	for _, part := range strings.Split(accept, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks file against the allowed extensions and size limit.
func Validate(file FileInfo, allowedExtensions []string, maxSizeBytes int64) error {
	ext := Extension(file.Name)
	if !extensionAllowed(ext, allowedExtensions) {
		return types.Errorf(types.KindInvalidType,
			"Please select a valid file type: %s", strings.Join(allowedExtensions, ","))
	}
	if file.Size > maxSizeBytes {
		return types.Errorf(types.KindTooLarge,
			"File size must be less than %s", formatSize(maxSizeBytes))
	}
	return nil
}

func extensionAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if !strings.HasPrefix(a, ".") {
			a = "." + a
		}
		if a == ext {
			return true
		}
	}
	return false
}

func formatSize(n int64) string {
	const mb = 1024 * 1024
	if n >= mb && n%mb == 0 {
		return strconv.FormatInt(n/mb, 10) + "MB"
	}
	return strconv.FormatInt(n, 10) + " bytes"
}
