package middleware

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Input validation and sanitization utilities

// allowed upload types; DICOM uploads also arrive as .dcm with a generic type
var allowedContentTypes = map[string]bool{
	"image/jpeg":  true,
	"image/jpg":   true,
	"image/png":   true,
	"image/dicom": true,
}

// ValidateUpload checks content type and filename of an uploaded scan
func ValidateUpload(filename, contentType string) error {
	if allowedContentTypes[strings.ToLower(contentType)] {
		return nil
	}
	if strings.HasSuffix(strings.ToLower(filename), ".dcm") {
		return nil
	}
	return fmt.Errorf("invalid file type %q: upload a JPEG, PNG, or DICOM file", contentType)
}

// ValidateScanName rejects control characters and oversized names
func ValidateScanName(name string) error {
	if len(name) > 200 {
		return fmt.Errorf("scan name too long (max 200 characters)")
	}
	for _, r := range name {
		if r < 0x20 {
			return fmt.Errorf("scan name contains control characters")
		}
	}
	return nil
}

// ValidateReportID ensures the id is a well-formed UUID before hitting the store
func ValidateReportID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid report id")
	}
	return nil
}

var languageRe = regexp.MustCompile(`^[A-Za-z][A-Za-z \-]{1,39}$`)

// ValidateLanguage accepts language names ("Spanish") and BCP-47-ish tags ("pt-BR")
func ValidateLanguage(lang string) error {
	if !languageRe.MatchString(lang) {
		return fmt.Errorf("invalid target language")
	}
	return nil
}
