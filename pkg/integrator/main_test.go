package integrator

import (
	"fmt"
	"os"
	"testing"

	"github.com/df07/go-scene-tracer/pkg/accel"
)

// TestMain brings up the process-wide state of the backend selected by build tags
func TestMain(m *testing.M) {
	if err := accel.StaticInit(); err != nil {
		fmt.Fprintf(os.Stderr, "accel static init: %v\n", err)
		os.Exit(1)
	}
	code := m.Run()
	accel.StaticShutdown()
	os.Exit(code)
}
