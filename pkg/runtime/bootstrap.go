package runtime

import (
	"log"

	"go.uber.org/automaxprocs/maxprocs"
)

// Bootstrap sets GOMAXPROCS from the container/cgroup CPU quota before
// any Program is created. The concurrency model is one OS thread per
// logical runtime thread (spec §5: "OS-thread per logical thread. No
// cooperative scheduler"), so GOMAXPROCS left at Go's default (the
// host's full core count, ignoring any cgroup limit) would let the
// scheduler oversubscribe a constrained container; this corrects it
// once at process start. The returned func undoes the change and
// should be deferred by main.
func Bootstrap() (undo func(), err error) {
	return maxprocs.Set(maxprocs.Logger(log.Printf))
}
