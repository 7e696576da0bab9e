//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight per-request metadata for the web shell: user-agent
//  family, client IP, resolved host, and arrival time.  These structs are
//  inert.  They never carry session values or tokens, so they are safe to
//  log or JSON-encode.
//
//  Dependencies
//  • github.com/avct/uasurfer (UA parsing)
//

package requestinfo

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/avct/uasurfer"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// UA holds the parsed user-agent properties the access log records.
type UA struct {
	Raw       string // Entire User-Agent header
	Browser   string // "Chrome", "Firefox", "Safari", etc.
	Version   string // "124.0.6367"
	OS        string // "macOS", "Windows", "Android", "iOS", etc.
	OSVersion string // "14.5", "11", "10.0"
	Device    string // "Desktop", "Phone", "Tablet", "Other"
	IsBot     bool
}

// RequestInfo is stored in the request context by Enrich.
type RequestInfo struct {
	UA        UA
	IP        net.IP
	Host      string // normalised, no port
	Timestamp time.Time
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by Enrich.
// It returns nil if the middleware has not run.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// parseUA converts a raw header into our UA struct using uasurfer.
func parseUA(header string) UA {
	u := uasurfer.Parse(header)

	osName := strings.TrimPrefix(u.OS.Name.String(), "OS")
	if osName == "MacOSX" {
		osName = "macOS"
	}

	return UA{
		Raw:       header,
		Browser:   strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version:   trimVersion(u.Browser.Version),
		OS:        osName,
		OSVersion: trimVersion(u.OS.Version),
		Device:    deviceTypeToString(u.DeviceType),
		IsBot:     u.IsBot(),
	}
}

// trimVersion renders major.minor.patch, dropping trailing zero parts.
func trimVersion(v uasurfer.Version) string {
	switch {
	case v.Major == 0 && v.Minor == 0 && v.Patch == 0:
		return ""
	case v.Patch != 0:
		return strconv.Itoa(int(v.Major)) + "." + strconv.Itoa(int(v.Minor)) + "." + strconv.Itoa(int(v.Patch))
	case v.Minor != 0:
		return strconv.Itoa(int(v.Major)) + "." + strconv.Itoa(int(v.Minor))
	default:
		return strconv.Itoa(int(v.Major))
	}
}

func deviceTypeToString(d uasurfer.DeviceType) string {
	switch d {
	case uasurfer.DeviceComputer:
		return "Desktop"
	case uasurfer.DeviceTablet:
		return "Tablet"
	case uasurfer.DevicePhone, uasurfer.DeviceWearable:
		return "Phone"
	default:
		return "Other"
	}
}
