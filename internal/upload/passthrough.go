package upload

import "context"

// Passthrough returns references unchanged. Used in dev mode and tests where
// no upload backend is configured.
type Passthrough struct{}

// Upload implements the uploader contract without any network call.
func (Passthrough) Upload(_ context.Context, ref, _ string) (string, error) {
	return ref, nil
}
