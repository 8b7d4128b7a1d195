package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type FileKeyStrategy string

const (
	StrategyDateBased FileKeyStrategy = "date_based"
	StrategyFlat      FileKeyStrategy = "flat"
)

var (
	dangerousChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	unsafeChars    = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\-.]`)
	repeatedSeps   = regexp.MustCompile(`[_\-]{2,}`)
)

type FileKeyGenerator struct {
	strategy   FileKeyStrategy
	prefix     string
	maxNameLen int
	now        func() time.Time
}

func NewFileKeyGenerator(strategy FileKeyStrategy, prefix string) *FileKeyGenerator {
	return &FileKeyGenerator{
		strategy:   strategy,
		prefix:     prefix,
		maxNameLen: 80,
		now:        time.Now,
	}
}

// GenerateFileKey returns the object key for a file. id ties the key to a
// database row; a random one is used when empty.
func (fkg *FileKeyGenerator) GenerateFileKey(filename, id string) string {
	if id == "" {
		id = uuid.NewString()
	}
	cleanName := fkg.cleanFilename(filename)
	switch fkg.strategy {
	case StrategyDateBased:
		now := fkg.now().UTC()
		return fmt.Sprintf("%s/%s/%s_%s", fkg.prefix, now.Format("2006/01/02"), id, cleanName)
	default:
		return fmt.Sprintf("%s/%s_%s", fkg.prefix, id, cleanName)
	}
}

func (fkg *FileKeyGenerator) cleanFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	cleanBase := SanitizeFilename(strings.TrimSuffix(filename, filepath.Ext(filename)))

	if len(cleanBase) > fkg.maxNameLen {
		cleanBase = ensureValidUTF8End(cleanBase[:fkg.maxNameLen])
	}
	if cleanBase == "" {
		cleanBase = "document"
	}
	return cleanBase + ext
}

// SanitizeFilename drops path separators and other characters that are
// unsafe in a Content-Disposition header or an object key.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	name = dangerousChars.ReplaceAllString(name, "")
	name = unsafeChars.ReplaceAllString(name, "_")
	name = repeatedSeps.ReplaceAllString(name, "_")
	name = strings.ReplaceAll(name, "..", ".")
	return strings.Trim(name, "_-.")
}

func ensureValidUTF8End(s string) string {
	if len(s) == 0 {
		return s
	}
	for i := len(s) - 1; i >= 0 && i >= len(s)-4; i-- {
		if s[i]&0x80 == 0 { // ASCII
			return s
		}
		if s[i]&0xC0 == 0xC0 { // start of a multi-byte rune
			return s[:i]
		}
	}
	return s
}
