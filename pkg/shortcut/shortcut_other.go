//go:build !linux

package shortcut

func newPlatformCreator() Creator {
	return noopCreator{}
}
