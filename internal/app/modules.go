package app

import (
	"github.com/conveyor-ci/conveyor/internal/stepreg"
	"github.com/conveyor-ci/conveyor/modules/build"
	"github.com/conveyor-ci/conveyor/modules/checkout"
	"github.com/conveyor-ci/conveyor/modules/coverage"
	"github.com/conveyor-ci/conveyor/modules/release"
	"github.com/conveyor-ci/conveyor/modules/toolchain"
)

// coreModules is the default set of built-in step handlers.
var coreModules = []stepreg.Module{
	&checkout.Module{},
	&toolchain.Module{},
	&coverage.Module{},
	&build.Module{},
	&release.Module{},
}
