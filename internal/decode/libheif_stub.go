//go:build !(cgo && libheif)

package decode

const libheifEnabled = false
