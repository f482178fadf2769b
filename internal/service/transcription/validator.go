package transcription

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// SupportedLanguages is the fixed set of language codes accepted for both
// input and output.
var SupportedLanguages = map[string]struct{}{
	"en": {}, "sv": {}, "es": {}, "fr": {}, "de": {}, "it": {}, "pt": {}, "ru": {},
	"ja": {}, "ko": {}, "zh": {}, "ar": {}, "hi": {}, "nl": {}, "pl": {}, "tr": {},
}

// allowedExtensions is the fallback allow-list used when the declared
// content type is not audio/* or video/*.
var allowedExtensions = map[string]struct{}{
	".wav": {}, ".mp3": {}, ".m4a": {}, ".flac": {},
	".ogg": {}, ".mp4": {}, ".mov": {}, ".avi": {},
}

// ValidateLanguages checks the output language and, when present, the input
// language hint against the supported set. Output is checked first.
func ValidateLanguages(outputLanguage, inputLanguage string) error {
	if _, ok := SupportedLanguages[outputLanguage]; !ok {
		return InvalidArgument(fmt.Sprintf("Unsupported output language '%s'. Supported: %s",
			outputLanguage, supportedList()))
	}
	if inputLanguage != "" {
		if _, ok := SupportedLanguages[inputLanguage]; !ok {
			return InvalidArgument(fmt.Sprintf("Unsupported input language '%s'. Supported: %s",
				inputLanguage, supportedList()))
		}
	}
	return nil
}

// ValidateMediaType accepts uploads whose declared content type starts with
// audio/ or video/, and falls back to the filename extension allow-list for
// everything else (including an empty content type).
func ValidateMediaType(contentType, filename string) error {
	if strings.HasPrefix(contentType, "audio/") || strings.HasPrefix(contentType, "video/") {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; ok {
		return nil
	}
	return InvalidArgument(fmt.Sprintf("Unsupported file type. Allowed: %s", allowedList()))
}

func supportedList() string {
	codes := make([]string, 0, len(SupportedLanguages))
	for code := range SupportedLanguages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return strings.Join(codes, ", ")
}

func allowedList() string {
	exts := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}
