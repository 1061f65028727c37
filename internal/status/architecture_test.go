package status

import (
	"testing"

	"labqms/testutil"
)

func TestStatusDerivationsArePure(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.Under("labqms/internal"), "derivations read domain values only")
}
