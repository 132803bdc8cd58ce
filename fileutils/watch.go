package fileutils

import (
	"context"
)

// WatchFile polls the content of path on every tick and signals when it
// differs from the last content seen. Read errors are reported to onErr and
// leave the last seen content as it was, so a file that is briefly missing
// while being replaced only signals once it is back with new content. The
// returned channel is closed when ctx is done or tick is closed.
func WatchFile(ctx context.Context, path string, tick <-chan struct{}, onErr func(err error)) (<-chan struct{}, error) {
	lastSum, err := HashFile(path)
	if err != nil {
		return nil, err
	}

	changed := make(chan struct{})
	go func() {
		defer close(changed)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-tick:
				if !ok {
					return
				}
			}

			sum, err := HashFile(path)
			if err != nil {
				onErr(err)
				continue
			}
			if sum == lastSum {
				continue
			}
			lastSum = sum

			select {
			case <-ctx.Done():
				return
			case changed <- struct{}{}:
			}
		}
	}()

	return changed, nil
}
