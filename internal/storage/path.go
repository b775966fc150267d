package storage

import (
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// SidecarPath derives the annotation sidecar location for a score: same
// directory, same base name, ".json" extension. The derivation is pure and
// stable so repeated opens of the same score find the same annotations.
func SidecarPath(scorePath string) string {
	return strings.TrimSuffix(scorePath, filepath.Ext(scorePath)) + ".json"
}

// PortablePath converts any path to the forward-slash form stored in JSON,
// so persisted paths need no backslash escaping and survive a move between
// Windows and POSIX machines.
func PortablePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// NormalizePath converts a stored path to the OS-native form suitable for
// filesystem calls. Windows drive-letter paths are translated to WSL mount
// paths on POSIX systems (Z:/x -> /mnt/z/x) and WSL mount paths back to
// drive letters on Windows, so a library shared over a network drive opens
// on either side.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}
	s := PortablePath(p)
	if runtime.GOOS == "windows" {
		if rest, ok := strings.CutPrefix(s, "/mnt/"); ok && len(rest) >= 1 && isDriveLetter(rest[0]) {
			drive := strings.ToUpper(rest[:1])
			rest = strings.TrimPrefix(rest[1:], "/")
			s = drive + ":/" + rest
		}
		return filepath.FromSlash(path.Clean(s))
	}
	if len(s) >= 2 && s[1] == ':' && isDriveLetter(s[0]) {
		rest := strings.TrimPrefix(s[2:], "/")
		s = "/mnt/" + strings.ToLower(s[:1]) + "/" + rest
	}
	return path.Clean(s)
}

func isDriveLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
