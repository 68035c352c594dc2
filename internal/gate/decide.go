package gate

import (
	"strings"
	"time"
)

// Canonical page routes guarded by the interceptor.
const (
	PathRoot   = "/"
	PathGift   = "/gift"
	PathLocked = "/coming-soon"
	PathHome   = "/home"

	adminPathPrefix = "/admin"
)

// Decision is the outcome of the edge interceptor for one request.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Allow is the pass-through decision.
var Allow = Decision{Allowed: true}

// RedirectTo builds a redirect decision toward the given path.
func RedirectTo(path string) Decision {
	return Decision{RedirectTo: path}
}

// DecideRoute is the single edge interceptor: a pure function of the request
// path, the browser's decoded flags, the current time, and the effective
// unlock instant. It never touches storage, so it is safe under arbitrary
// concurrent traffic.
//
// Rules:
//   - the main experience requires the entry ticket issued by opening the
//     gift; admin bypass does not substitute for the ticket;
//   - admin bypass, or an admin path, is otherwise always allowed;
//   - while locked, every path except the gift entry point redirects there;
//   - once unlocked, the root and the legacy locked page redirect onward to
//     the gift entry point and everything else is allowed.
//
// A browser carrying the monotonic unlocked flag is never re-locked, even if
// the clock has moved backwards relative to the unlock instant.
func DecideRoute(path string, flags Flags, now time.Time, unlockAt time.Time) Decision {
	path = normalizePath(path)

	if path == PathHome {
		if flags.EntryTicket == "" {
			return RedirectTo(PathGift)
		}
		return Allow
	}

	if flags.AdminBypass || isAdminPath(path) {
		return Allow
	}

	locked := now.Before(unlockAt) && !flags.Unlocked
	if locked {
		if path == PathGift {
			return Allow
		}
		return RedirectTo(PathGift)
	}

	if path == PathRoot || path == PathLocked {
		return RedirectTo(PathGift)
	}
	return Allow
}

// isAdminPath matches the admin panel segment exactly, so sibling paths like
// /administrator stay behind the gate.
func isAdminPath(path string) bool {
	return path == adminPathPrefix || strings.HasPrefix(path, adminPathPrefix+"/")
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return PathRoot
	}
	if path != PathRoot {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// UnlockTime resolves the effective unlock instant for the given moment.
// The target's month and day are recomputed against now's calendar year, so a
// date that already passed this year is due immediately rather than waiting
// for the next one. Accepted formats are "2006-01-02" and "01-02"; anything
// else falls back to the supplied default.
func UnlockTime(target string, fallback string, now time.Time) time.Time {
	month, day, ok := parseTarget(target)
	if !ok {
		month, day, ok = parseTarget(fallback)
		if !ok {
			// Both unparseable; unlock immediately rather than gating forever.
			return now
		}
	}
	return time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
}

func parseTarget(value string) (time.Month, int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, 0, false
	}
	for _, layout := range []string{"2006-01-02", "01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Month(), parsed.Day(), true
		}
	}
	return 0, 0, false
}
