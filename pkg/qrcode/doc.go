// Package qrcode renders short strings, typically otpauth:// enrolment URIs,
// as PNG QR codes or as data URIs that a client can drop into an <img> tag.
//
// It wraps github.com/skip2/go-qrcode with a default size and recovery level.
package qrcode
