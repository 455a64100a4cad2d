package model

import "fmt"

// DownloadFormat is the image format a download task is captured at creation
// time; later config changes never affect in-flight tasks.
type DownloadFormat int

const (
	FormatWebp DownloadFormat = iota
	FormatAvif
)

// Ext returns the on-disk file extension for the format.
func (f DownloadFormat) Ext() string {
	switch f {
	case FormatAvif:
		return "avif"
	default:
		return "webp"
	}
}

// Dir returns the hitomi CDN directory segment ("webp"/"avif") used by the
// URL synthesizer's convenience entrypoint.
func (f DownloadFormat) Dir() string {
	return f.Ext()
}

func (f DownloadFormat) String() string {
	switch f {
	case FormatAvif:
		return "Avif"
	default:
		return "Webp"
	}
}

func (f DownloadFormat) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.String() + `"`), nil
}

func (f *DownloadFormat) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"Avif"`:
		*f = FormatAvif
	case `"Webp"`, `""`:
		*f = FormatWebp
	default:
		return fmt.Errorf("unknown download format %s", data)
	}
	return nil
}

// ParseDownloadFormat parses the "Webp"/"Avif" config string form.
func ParseDownloadFormat(s string) (DownloadFormat, error) {
	switch s {
	case "Avif":
		return FormatAvif, nil
	case "Webp", "":
		return FormatWebp, nil
	default:
		return FormatWebp, fmt.Errorf("unknown download format %q", s)
	}
}

// ProxyMode selects how the HTTP client pool routes traffic.
type ProxyMode int

const (
	ProxySystem ProxyMode = iota
	ProxyNoProxy
	ProxyCustom
)

func (m ProxyMode) String() string {
	switch m {
	case ProxyNoProxy:
		return "NoProxy"
	case ProxyCustom:
		return "Custom"
	default:
		return "System"
	}
}

func (m ProxyMode) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *ProxyMode) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"NoProxy"`:
		*m = ProxyNoProxy
	case `"Custom"`:
		*m = ProxyCustom
	case `"System"`, `""`:
		*m = ProxySystem
	default:
		return fmt.Errorf("unknown proxy mode %s", data)
	}
	return nil
}
