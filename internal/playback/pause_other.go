//go:build !unix

package playback

import (
	"fmt"
	"os"
	"runtime"

	"github.com/desertthunder/ytbot/internal/shared"
)

var errProcessDone = os.ErrProcessDone

func suspend(*os.Process) error {
	return fmt.Errorf("%w: pausing the player on %s", shared.ErrNotImplemented, runtime.GOOS)
}

func resume(*os.Process) error {
	return fmt.Errorf("%w: resuming the player on %s", shared.ErrNotImplemented, runtime.GOOS)
}
