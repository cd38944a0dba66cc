// Package shortcut creates launcher shortcuts for the installed application
// on platforms that support them.
package shortcut

// Creator places a launcher shortcut pointing at an executable. Platforms
// without shortcut support provide a no-op implementation; callers hold the
// interface and never branch on the platform themselves.
type Creator interface {
	// Create places a shortcut named name pointing at executablePath.
	Create(name, executablePath string) error

	// Supported reports whether shortcuts can be created on this platform.
	Supported() bool
}

// New returns the Creator for the current platform, selected at startup.
func New() Creator {
	return newPlatformCreator()
}

// noopCreator is used where the platform has no shortcut mechanism.
type noopCreator struct{}

func (noopCreator) Create(name, executablePath string) error { return nil }

func (noopCreator) Supported() bool { return false }
