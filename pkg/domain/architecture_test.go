package domain

import (
	"testing"

	"curriculumcore/testutil"
)

func TestDomainImportsStandardLibraryOnly(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", func(path string) bool {
		return testutil.InternalImportForbidden(path) || testutil.ThirdPartyImport(path)
	}, "domain may only use the standard library")
}
