package updater

// Phase is a state of the update machine.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseChecking    Phase = "checking"
	PhaseUpToDate    Phase = "up-to-date"
	PhaseFetching    Phase = "fetching"
	PhaseVerifying   Phase = "verifying"
	PhaseInstalling  Phase = "installing"
	PhasePersisting  Phase = "persisting"
	PhaseLaunchReady Phase = "launch-ready"
	PhaseFailed      Phase = "failed"
)

// Mode describes why an update cycle runs.
type Mode string

const (
	// ModeAuto is the startup flow.
	ModeAuto Mode = "auto"
	// ModeManual is a cycle triggered by the operator.
	ModeManual Mode = "manual"
	// ModeFix is a repair install forced by a missing installed binary,
	// even when the versions already match.
	ModeFix Mode = "fix"
)

// Controls is the button-enablement state the display layer mirrors. It is
// recomputed from the current install state after every transition.
type Controls struct {
	CheckEnabled  bool
	UpdateEnabled bool
	RunEnabled    bool
}

// Events is the progress/status surface consumed by the display layer.
// Callbacks are invoked from the orchestrator's worker goroutine, in
// non-decreasing progress order within a cycle; consumers only read the
// latest values. All fields are optional.
type Events struct {
	// OnDownloadProgress receives archive download progress in [0,100]
	OnDownloadProgress func(percent float64)

	// OnExtractProgress receives extraction progress in [0,100]
	OnExtractProgress func(percent float64)

	// OnStatus receives one-line status messages
	OnStatus func(message string)

	// OnAlert receives user-facing failure reports
	OnAlert func(message string)

	// OnVersions receives the local and remote version whenever either is
	// re-read
	OnVersions func(local, remote string)

	// OnControls receives recomputed button-enablement state
	OnControls func(controls Controls)

	// OnPhase receives machine phase changes
	OnPhase func(phase Phase)
}

// CheckResult is the outcome of a version check without an update cycle.
type CheckResult struct {
	LocalVersion    string
	RemoteVersion   string
	UpdateAvailable bool
	BinaryPresent   bool
}
