package utils

import (
	"fmt"

	ua "github.com/mssola/user_agent"
)

// DeviceInfo holds parsed information from a User-Agent string
type DeviceInfo struct {
	DeviceType string `json:"device_type"` // mobile or desktop
	OS         string `json:"os"`
	Browser    string `json:"browser"`
	IsBot      bool   `json:"is_bot"`
	Raw        string `json:"raw"`
}

// ParseUserAgent parses a User-Agent string into client context for the
// payment audit trail
func ParseUserAgent(userAgent string) DeviceInfo {
	if userAgent == "" || userAgent == "Unknown" {
		return DeviceInfo{
			DeviceType: "unknown",
			OS:         "Unknown",
			Browser:    "Unknown",
			Raw:        userAgent,
		}
	}

	parser := ua.New(userAgent)

	info := DeviceInfo{
		Raw:   userAgent,
		IsBot: parser.Bot(),
		OS:    parser.OS(),
	}
	if info.OS == "" {
		info.OS = "Unknown"
	}

	name, version := parser.Browser()
	switch {
	case name == "":
		info.Browser = "Unknown"
	case version == "":
		info.Browser = name
	default:
		info.Browser = fmt.Sprintf("%s %s", name, version)
	}

	if parser.Mobile() {
		info.DeviceType = "mobile"
	} else {
		info.DeviceType = "desktop"
	}

	return info
}
