package outreach

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
)

// Lock serializes campaign invocations. The load-mutate-commit cycle
// on the state store is not safe under concurrent runs, so a second
// invocation must fail fast rather than race the first.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the invocation lock, failing immediately if
// another invocation holds it.
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrapf(err, "lock: create dir for %s", path)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, eris.Wrapf(err, "lock: acquire %s", path)
	}
	if !locked {
		return nil, eris.Errorf("lock: another outreach run holds %s", path)
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	return eris.Wrap(l.fl.Unlock(), "lock: release")
}
