//go:build !windows

package capture

// NewDuplicator reports that desktop duplication is a Windows-only facility
func NewDuplicator(display Rect) (Duplicator, error) {
	return nil, ErrUnsupported
}
