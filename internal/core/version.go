package core

// Version identifies the engine build. Release builds override it with
// -ldflags "-X fincalc/internal/core.Version=<tag>".
var Version = "1.0.0-dev"
