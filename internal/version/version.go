// internal/version/version.go
package version

// Version is overridden at build time with -ldflags "-X dirtywater/internal/version.Version=...".
var Version = "dev"
