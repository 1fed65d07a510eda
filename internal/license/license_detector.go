// Package license detects the licenses declared by LICENSE files of an
// analyzed project.
package license

import (
	"math"
	"sort"

	"github.com/go-enry/go-license-detector/v4/licensedb"
	"github.com/go-enry/go-license-detector/v4/licensedb/filer"
)

// minConfidence filters out partial matches
const minConfidence = 0.9

// Match is a detected license
type Match struct {
	License    string  `json:"license" yaml:"license"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	File       string  `json:"file" yaml:"file"`
}

// LicenseDetector handles file-based license detection
type LicenseDetector struct{}

// NewLicenseDetector creates a new license detector
func NewLicenseDetector() *LicenseDetector {
	return &LicenseDetector{}
}

// DetectLicensesInDirectory detects licenses from LICENSE files in a directory,
// sorted by license name. Unreadable directories yield no licenses.
func (d *LicenseDetector) DetectLicensesInDirectory(dirPath string) []Match {
	fs, err := filer.FromDirectory(dirPath)
	if err != nil {
		return nil
	}

	matches, err := licensedb.Detect(fs)
	if err != nil {
		return nil
	}

	var licenses []Match
	for licenseID, match := range matches {
		if match.Confidence > minConfidence {
			licenses = append(licenses, Match{
				License:    licenseID,
				Confidence: math.Round(float64(match.Confidence)*100) / 100,
				File:       match.File,
			})
		}
	}
	sort.Slice(licenses, func(i, j int) bool { return licenses[i].License < licenses[j].License })

	return licenses
}

// DetectAll detects the licenses of several directories, one entry per license
func (d *LicenseDetector) DetectAll(dirs []string) []Match {
	seen := make(map[string]bool)
	var all []Match
	for _, dir := range dirs {
		for _, m := range d.DetectLicensesInDirectory(dir) {
			if seen[m.License] {
				continue
			}
			seen[m.License] = true
			all = append(all, m)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].License < all[j].License })
	return all
}
