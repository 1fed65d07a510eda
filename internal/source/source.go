// Package source loads SAS programs from local paths or URLs and turns them
// into the line slice consumed by the analyzer.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/minio/highwayhash"
	"github.com/viant/afs"
	"golang.org/x/text/encoding/charmap"
)

// ErrUnavailable is returned when a source cannot be found or read
var ErrUnavailable = errors.New("source unavailable")

// Encodings reported in File.Encoding
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

var fingerprintKey = []byte("SASANALYZER0123456789ABCDEF01234")

// File is a decoded source ready for analysis
type File struct {
	Location    string   `json:"location"`
	Encoding    string   `json:"encoding"`
	Fingerprint string   `json:"fingerprint"`
	Size        int      `json:"size"`
	Content     []byte   `json:"-"`
	Lines       []string `json:"-"`
}

// Loader reads sources through an afs service
type Loader struct {
	fs afs.Service
}

// NewLoader creates a loader backed by the default afs service
func NewLoader() *Loader {
	return &Loader{fs: afs.New()}
}

// IsRemote reports whether location is a URL rather than a local path
func IsRemote(location string) bool {
	return strings.Contains(location, "://")
}

// Load reads the source at location with the default loader
func Load(ctx context.Context, location string) (*File, error) {
	return NewLoader().Load(ctx, location)
}

// Load reads, decodes and splits the source at location. A missing or
// unreadable source yields an error wrapping ErrUnavailable.
func (l *Loader) Load(ctx context.Context, location string) (*File, error) {
	exists, err := l.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, location, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s: not found", ErrUnavailable, location)
	}

	data, err := l.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, location, err)
	}
	return FromBytes(location, data)
}

// FromBytes decodes raw bytes into a File without touching storage
func FromBytes(location string, data []byte) (*File, error) {
	fingerprint, err := Fingerprint(data)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint %s: %w", location, err)
	}

	text, encoding, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", location, err)
	}

	return &File{
		Location:    location,
		Encoding:    encoding,
		Fingerprint: fingerprint,
		Size:        len(data),
		Content:     data,
		Lines:       SplitLines(text),
	}, nil
}

// Decode returns the text of data. Valid UTF-8 is taken as is (a leading BOM
// is dropped); anything else is decoded as Windows-1252, which also covers
// Latin-1 exports from SAS on Windows.
func Decode(data []byte) (string, string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), EncodingUTF8, nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", err
	}
	return string(decoded), EncodingWindows1252, nil
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// SplitLines splits text on \n, \r\n or a bare \r. A final line ending does
// not produce an extra empty line; empty text has no lines.
func SplitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	text = lineEndings.Replace(text)
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// Fingerprint returns the 64-bit HighwayHash of data as a hex string
func Fingerprint(data []byte) (string, error) {
	hash, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return "", err
	}
	if _, err := hash.Write(data); err != nil {
		return "", err
	}
	return strconv.FormatUint(hash.Sum64(), 16), nil
}
