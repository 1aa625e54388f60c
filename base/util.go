package base

import (
	"path/filepath"
	"strings"
	"time"
)

// If given `value` is not empty, returns it. Else `defaultValue` will be returned.
func GetStrOr(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	} else {
		return value
	}
}

// GetDurationOr takes two duration value, if the first value is greater than
// zero, then this function return this value, else the second value will be
// returned.
func GetDurationOr(value, defaultValue time.Duration) time.Duration {
	if value <= 0 {
		return defaultValue
	} else {
		return value
	}
}

// GetIntOr takes two int value, if the first value is greater than zero, then
// this function return this value, else the second value will be returned.
func GetIntOr(value, defaultValue int) int {
	if value <= 0 {
		return defaultValue
	} else {
		return value
	}
}

// Expand `target` relative to given path if its a relative path, else it will
// be returned unchanged. Empty string will be returned as empty string.
func ResolveRelativePath(target, relativeTo string) string {
	if target == "" {
		return target
	}

	if filepath.IsAbs(target) {
		return target
	}

	target = filepath.Join(relativeTo, target)
	target = filepath.Clean(target)

	return target
}

var invalidPathCharReplacer = strings.NewReplacer(
	"<", "＜",
	">", "＞",
	":", "：",
	"\"", "＂",
	"/", "／",
	"\\", "＼",
	"|", "｜",
	"?", "？",
	"*", "＊",
)

// Retuns a copy of `name` with all invalid path characters replaced by their
// full-width counterpart.
func InvalidPathCharReplace(name string) string {
	return invalidPathCharReplacer.Replace(name)
}
