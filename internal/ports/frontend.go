package ports

// Frontend defines the interface for a user-facing surface of the scanner
// (CLI output, SMTP content filter).
type Frontend interface {
	// Start starts the frontend.
	Start() error

	// Stop stops the frontend.
	Stop() error
}
