package databases

import "errors"

// ErrNotFound is returned when no document exists for a key
var ErrNotFound = errors.New("document not found")

// ErrAlreadyExists is returned by Create when a document for the key is present
var ErrAlreadyExists = errors.New("document already exists")

// ErrCorruptData is returned by Read when the stored content is not valid JSON
var ErrCorruptData = errors.New("document is corrupt")

// ErrInvalidKey is returned for keys or collection names that could escape the data root
var ErrInvalidKey = errors.New("invalid document key")
