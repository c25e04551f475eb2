package utils

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

func SanitizeString(input string) string {
	return strings.TrimSpace(input)
}

func IsValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}

// HasMinLength reports whether s has at least n characters once surrounding whitespace is trimmed.
func HasMinLength(s string, n int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= n
}

// ParseID parses a positive numeric path or query id.
func ParseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ParsePagination reads page and limit, falling back to defaults and capping limit at max.
func ParsePagination(pageRaw, limitRaw string, defaultLimit, maxLimit int) (page, limit int) {
	page, err := strconv.Atoi(pageRaw)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(limitRaw)
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
