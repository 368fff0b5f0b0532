package shellbridge

// Version is the release of the bridge. Overridden at build time with
// -ldflags "-X github.com/aretw0/shellbridge.Version=...".
var Version = "0.1.0-dev"
