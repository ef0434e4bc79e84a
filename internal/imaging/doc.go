// Package imaging prepares image files for OCR.
//
// Prepare decodes an image before it reaches the OCR engine to collect its
// dimensions and to apply the JPEG EXIF orientation tag when orientation
// classification is requested. Every existing file still goes to the engine:
// a file that does not decode here is passed through as is, and
// ErrUnreadableImage marks an engine failure on such a file.
//
// Decoding uses disintegration/imaging, which reads PNG, JPEG, GIF, TIFF and
// BMP. Other formats are passed through to the engine undecoded.
//
// # Temporary Files
//
// An auto-oriented JPEG is written to a temporary PNG in the system's temp
// directory. Prepared.Cleanup deletes it.
package imaging
