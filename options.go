package pdfcore

// LoadOptions configures Load.
type LoadOptions struct {
	// Password is tried as both owner and user password if the
	// document is encrypted.
	Password string

	// Lenient, when true (the default policy this package recommends
	// for untrusted input), routes around malformed cross-reference
	// information via brute-force recovery instead of failing Load
	// outright.
	Lenient bool
}

// DefaultLoadOptions returns the recommended options for loading a PDF
// of unknown provenance.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{Lenient: true}
}

// SaveOptions configures Save.
type SaveOptions struct {
	// Incremental requests an append-only update preserving the
	// original bytes. Ignored (treated as false) for documents loaded
	// from a linearized file, or for documents built from scratch.
	Incremental bool

	// CompressStreams requests that newly written streams without an
	// existing /Filter be FlateDecode-compressed on write. Streams
	// that already carry filters are written as-is.
	CompressStreams bool

	// UseXRefStream writes a PDF-1.5-style cross-reference stream
	// instead of a traditional table, on complete and incremental saves
	// alike.
	UseXRefStream bool
}
