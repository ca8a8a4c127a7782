package main

import "tools.zach/dev/dresscode/internal/paths"

// DataPaths is the data directory layout used by the command.
type DataPaths = paths.DataDir
