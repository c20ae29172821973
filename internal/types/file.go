// Package types provides common type definitions used throughout sitemin.
// This package contains shared types to avoid circular dependencies between packages.
package types

// ContentType identifies how a file's content payload is stored.
type ContentType string

const (
	// ContentTypeString marks text content held in Content.Data.
	ContentTypeString ContentType = "string"
	// ContentTypeBytes marks binary content held in Content.Raw.
	ContentTypeBytes ContentType = "bytes"
)

// File is the unit of work passed through the pipeline: a path plus an
// optional typed content payload. Plugins may mutate Content.Data in place but
// never change Path or Content.Type.
type File struct {
	// Path is the slash-separated path relative to the pipeline's source root
	Path string
	// Content is nil until a loader has populated it
	Content *Content
}

// Content is the payload of a File.
type Content struct {
	// Type tells which of Data or Raw is meaningful
	Type ContentType
	// Data holds text content when Type is ContentTypeString
	Data string
	// Raw holds binary content when Type is ContentTypeBytes
	Raw []byte
}

// NewTextFile creates a file record carrying string content.
func NewTextFile(path, data string) *File {
	return &File{
		Path:    path,
		Content: &Content{Type: ContentTypeString, Data: data},
	}
}

// NewBinaryFile creates a file record carrying byte content.
func NewBinaryFile(path string, raw []byte) *File {
	return &File{
		Path:    path,
		Content: &Content{Type: ContentTypeBytes, Raw: raw},
	}
}

// IsText reports whether the file carries string content.
func (f *File) IsText() bool {
	return f.Content != nil && f.Content.Type == ContentTypeString
}

// Bytes returns the content as bytes regardless of its type.
func (f *File) Bytes() []byte {
	if f.Content == nil {
		return nil
	}
	if f.Content.Type == ContentTypeString {
		return []byte(f.Content.Data)
	}

	return f.Content.Raw
}

// Clone returns a deep copy of the file record.
func (f *File) Clone() *File {
	clone := &File{Path: f.Path}
	if f.Content != nil {
		content := *f.Content
		if f.Content.Raw != nil {
			content.Raw = append([]byte(nil), f.Content.Raw...)
		}
		clone.Content = &content
	}

	return clone
}
