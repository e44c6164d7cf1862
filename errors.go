package codeshot

import "errors"

// Errors returned by the render pipeline. They are wrapped with context, so
// compare with errors.Is.
var (
	ErrUnknownLanguage      = errors.New("unknown language")
	ErrUnknownTheme         = errors.New("unknown theme")
	ErrNoUsableFont         = errors.New("no usable font")
	ErrInvalidThemeAsset    = errors.New("invalid theme asset")
	ErrEncoding             = errors.New("encoding error")
	ErrUnsupportedImageMode = errors.New("unsupported image mode")
	ErrInvalidOption        = errors.New("invalid option")
	ErrNoCodeBlock          = errors.New("no code block")
)
