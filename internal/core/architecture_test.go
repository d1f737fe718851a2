package core

import (
	"testing"

	"curriculumcore/testutil"
)

func TestCoreDoesNotImportCallers(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.CallerImportForbidden, "core must not depend on transports, cli or config")
}

func TestCoreExportedTypesDocumented(t *testing.T) {
	testutil.AssertExportedTypesDocumented(t, ".")
}
