package formulary

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/gofrs/flock"
)

// lockState is how commands take the state lock.
var lockState = acquireLock

// acquireLock takes the state directory lock without waiting. Only one
// process may change the installed set at a time.
func acquireLock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrStateWrite, "failed to create %s", filepath.Dir(path))
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal, "failed to lock %s", path)
	}
	if !locked {
		return nil, errors.Newf(errors.ErrLocked, "another formulary process holds %s", path).
			WithDetail("lock", path)
	}
	return lock, nil
}
