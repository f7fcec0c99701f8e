package dto

import "io"

// UploadFile is one file taken from a multipart form.
type UploadFile struct {
	Reader   io.Reader
	FileName string
	Size     int64
}
