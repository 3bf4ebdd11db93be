// Package media stores photo blobs behind opaque handles. The workflow
// core never sees raw storage; it keeps (handle, path) pairs and asks
// for best-effort deletion when tasks are purged.
package media

// Store persists photo blobs.
type Store interface {
	// Save writes the blob and returns its opaque handle and a
	// retrieval locator.
	Save(data []byte) (fileID string, filePath string, err error)
	// Fetch returns the blob, or found=false when the handle is
	// unknown.
	Fetch(fileID string) (data []byte, found bool, err error)
	// Delete removes the blob. Deleting an unknown handle is a no-op.
	Delete(fileID string) error
}
