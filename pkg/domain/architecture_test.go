package domain

import (
	"testing"

	"labqms/testutil"
)

// TestDomainImportsStayPure keeps the domain layer free of module packages
// and of third-party dependencies other than decimal.
func TestDomainImportsStayPure(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.Under("labqms"), "domain must not depend on module packages")
	testutil.AssertNoDirectImports(t, ".", func(path string) bool {
		return testutil.ThirdParty(path) && path != "github.com/shopspring/decimal"
	}, "domain third-party allowlist is decimal only")
}
