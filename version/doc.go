// Package version reports the statekitd build.
//
// Values come from -ldflags when set, falling back to the VCS stamp the Go
// toolchain embeds:
//
//	go build -ldflags "-X github.com/kbukum/statekit/version.Version=1.2.0" ./cmd/statekitd
package version
