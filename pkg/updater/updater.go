// Package updater sequences version checks, artifact retrieval, verification,
// installation, state persistence and launch into one update cycle.
package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dikkadev/slipway/pkg/archive"
	"github.com/dikkadev/slipway/pkg/config"
	"github.com/dikkadev/slipway/pkg/fetch"
	"github.com/dikkadev/slipway/pkg/history"
	"github.com/dikkadev/slipway/pkg/integrity"
	"github.com/dikkadev/slipway/pkg/launch"
	"github.com/dikkadev/slipway/pkg/logging"
	"github.com/dikkadev/slipway/pkg/state"
	"github.com/dikkadev/slipway/pkg/version"
)

// ErrBusy is returned when a trigger arrives while a cycle is already
// running. Triggers are rejected, never queued.
var ErrBusy = errors.New("updater: update cycle already in progress")

// Options configures an Orchestrator. Zero-value fields take defaults.
type Options struct {
	// Client handles remote access; defaults to fetch.NewClient()
	Client fetch.Client
	// Store persists the version marker; defaults to the configured path
	Store *state.VersionStore
	// Journal is the optional cycle journal; may be nil
	Journal history.Store
	// Events is the display surface
	Events Events
	// Retry applies independently to the manifest fetch and the archive
	// download
	Retry fetch.RetryPolicy
	// Launch starts the installed binary; defaults to launch.Launch
	Launch func(path string) error
	// Install applies a downloaded archive; defaults to archive.Install
	Install func(archivePath, targetDir string, onProgress archive.ProgressFunc) error
	// NoLaunch runs cycles but never starts the application
	NoLaunch bool
}

// Orchestrator drives the update state machine. All I/O happens on the
// goroutine that calls RunAuto/TriggerManual; display layers read progress
// through Events and the accessor methods.
type Orchestrator struct {
	cfg       *config.Config
	paths     *config.Paths
	client    fetch.Client
	store     *state.VersionStore
	journal   history.Store
	events    Events
	retry     fetch.RetryPolicy
	launchFn  func(string) error
	installFn func(string, string, archive.ProgressFunc) error
	noLaunch  bool

	// single-flight guard: only one cycle may be active
	busy atomic.Bool

	mu            sync.RWMutex
	phase         Phase
	localVersion  string
	remoteVersion string
}

// New creates an orchestrator for the given configuration.
func New(cfg *config.Config, opts Options) *Orchestrator {
	paths := cfg.GetPaths()

	client := opts.Client
	if client == nil {
		client = fetch.NewClient()
	}
	store := opts.Store
	if store == nil {
		store = state.NewVersionStore(paths.VersionMarker)
	}
	retry := opts.Retry
	if retry.Attempts == 0 {
		retry = fetch.DefaultRetryPolicy()
	}
	launchFn := opts.Launch
	if launchFn == nil {
		launchFn = launch.Launch
	}
	installFn := opts.Install
	if installFn == nil {
		installFn = archive.Install
	}

	return &Orchestrator{
		cfg:       cfg,
		paths:     paths,
		client:    client,
		store:     store,
		journal:   opts.Journal,
		events:    opts.Events,
		retry:     retry,
		launchFn:  launchFn,
		installFn: installFn,
		noLaunch:  opts.NoLaunch,
		phase:     PhaseIdle,
	}
}

// Phase returns the current machine phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.phase
}

// LocalVersion returns the last loaded installed version.
func (o *Orchestrator) LocalVersion() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.localVersion
}

// RemoteVersion returns the last fetched remote version.
func (o *Orchestrator) RemoteVersion() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.remoteVersion
}

// Busy reports whether a cycle is currently running.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// RunAuto runs the startup flow: check, update if stale or broken, launch.
// It is rejected with ErrBusy if a cycle is already active.
func (o *Orchestrator) RunAuto(ctx context.Context) error {
	return o.runGuarded(ctx, ModeAuto)
}

// TriggerManual runs an operator-triggered cycle. A trigger received while
// another cycle is in progress is rejected with ErrBusy, not queued.
func (o *Orchestrator) TriggerManual(ctx context.Context) error {
	return o.runGuarded(ctx, ModeManual)
}

func (o *Orchestrator) runGuarded(ctx context.Context, trigger Mode) error {
	if !o.busy.CompareAndSwap(false, true) {
		o.emitAlert("An update cycle is already in progress")
		return ErrBusy
	}
	// Whatever happens inside the cycle, leave the controls in a
	// consistent, retriable state. Deferred after the guard clears so the
	// recomputation sees the idle state.
	defer o.emitControls()
	defer o.busy.Store(false)

	return o.runCycle(ctx, trigger)
}

// Check fetches the remote version and compares without updating. Rejected
// with ErrBusy while a cycle runs.
func (o *Orchestrator) Check(ctx context.Context) (*CheckResult, error) {
	if !o.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.emitControls()
	defer o.busy.Store(false)

	o.setPhase(PhaseChecking)
	o.emitStatus("Checking for updates...")

	remote, err := o.fetchRemoteVersion(ctx)
	if err != nil {
		o.failCheck(err)
		return nil, err
	}

	local := o.store.Load()
	o.setVersions(local, remote)

	present := o.binaryPresent()
	result := &CheckResult{
		LocalVersion:    local,
		RemoteVersion:   remote,
		UpdateAvailable: version.Compare(remote, local) == version.Newer || !present,
		BinaryPresent:   present,
	}

	switch {
	case !present:
		o.emitStatus(fmt.Sprintf("Installed program is missing; repair needed (version %s)", remote))
	case version.Compare(remote, local) == version.Newer:
		o.emitStatus(fmt.Sprintf("New version found: %s (current: %s)", remote, local))
	case version.Compare(remote, local) == version.Older:
		o.emitStatus(fmt.Sprintf("Local version is newer: %s (remote: %s)", local, remote))
	default:
		o.emitStatus("Already up to date")
	}

	o.setPhase(PhaseIdle)
	return result, nil
}

// Launch starts the installed application after a final presence check.
func (o *Orchestrator) Launch() error {
	if o.noLaunch {
		o.emitStatus("Launch skipped")
		return nil
	}

	o.emitStatus("Starting application...")
	if err := o.launchFn(o.paths.Executable); err != nil {
		o.emitStatus(fmt.Sprintf("Launch failed: %v", err))
		o.emitAlert(fmt.Sprintf("Failed to start application:\n%v", err))
		return err
	}

	o.emitStatus("Application started")
	return nil
}

// runCycle is the machine body. It runs entirely on the calling goroutine.
func (o *Orchestrator) runCycle(ctx context.Context, trigger Mode) error {
	o.setPhase(PhaseChecking)
	o.emitStatus("Checking for updates...")
	o.resetProgress()

	remote, err := o.fetchRemoteVersion(ctx)
	if err != nil {
		o.fail(fmt.Sprintf("Update check failed: %v", err), err, 0)
		return err
	}

	// Install state is read fresh at every decision point; the cycle is
	// exactly what changes it.
	local := o.store.Load()
	o.setVersions(local, remote)
	present := o.binaryPresent()

	mode := trigger
	switch {
	case !present:
		// A present-but-equal version with a missing binary still
		// triggers a repair install.
		mode = ModeFix
		o.emitStatus(fmt.Sprintf("Installed program is missing; repairing (version %s)", remote))
	case version.Compare(remote, local) == version.Newer:
		o.emitStatus(fmt.Sprintf("New version found: %s (current: %s)", remote, local))
	case version.Compare(remote, local) == version.Older:
		// The local version is authoritative; never downgrade.
		o.emitStatus(fmt.Sprintf("Local version is newer: %s (remote: %s)", local, remote))
		o.finishUpToDate(ctx, trigger, local, remote)
		return o.Launch()
	default:
		o.emitStatus("Already up to date")
		o.finishUpToDate(ctx, trigger, local, remote)
		return o.Launch()
	}

	if err := o.updateSequence(ctx, mode, local, remote); err != nil {
		return err
	}

	o.setPhase(PhaseLaunchReady)
	return o.Launch()
}

// updateSequence runs Fetch -> Verify -> Install -> Persist in strict order.
// A failure at any step aborts the remaining steps; the version marker is
// only ever written after a successful install.
func (o *Orchestrator) updateSequence(ctx context.Context, mode Mode, local, remote string) error {
	cycleID := o.beginJournal(ctx, mode, local, remote)

	// Fetch
	o.setPhase(PhaseFetching)
	o.emitStatus("Downloading update package...")
	err := o.retry.Do(ctx, func() error {
		// Each attempt independently re-creates the destination file.
		return o.client.DownloadArchive(ctx, o.cfg.ArchiveURL, o.paths.TempArchive, o.events.OnDownloadProgress)
	})
	if err != nil {
		o.fail(fmt.Sprintf("Download failed: %v", err), err, cycleID)
		return err
	}
	o.emitStatus("Download complete")

	// Verify, only when an expected digest is configured
	if o.cfg.ExpectedDigest != "" {
		o.setPhase(PhaseVerifying)
		o.emitStatus("Verifying file integrity...")
		if err := integrity.Verify(o.paths.TempArchive, o.cfg.Algorithm(), o.cfg.ExpectedDigest); err != nil {
			os.Remove(o.paths.TempArchive)
			o.fail(fmt.Sprintf("Integrity check failed: %v", err), err, cycleID)
			return err
		}
	}

	// Install
	o.setPhase(PhaseInstalling)
	o.emitStatus("Extracting files...")
	if err := o.installFn(o.paths.TempArchive, o.paths.InstallDir, o.events.OnExtractProgress); err != nil {
		o.fail(fmt.Sprintf("Extraction failed: %v", err), err, cycleID)
		return err
	}
	o.emitStatus("Extraction complete")

	// Persist, only now that the install the record describes is on disk
	o.setPhase(PhasePersisting)
	markerWarning := ""
	if err := o.store.Save(remote); err != nil {
		// The cycle itself succeeded, but the persisted version now
		// diverges from the installed tree; say so loudly.
		markerWarning = err.Error()
		logging.Warn("version marker save failed", logging.Err(err))
		o.emitStatus(fmt.Sprintf("Failed to save version marker: %v", err))
		o.emitAlert(fmt.Sprintf("Update installed, but saving the version marker failed:\n%v", err))
	} else {
		o.setVersions(remote, remote)
	}

	// Discard the temporary artifact
	if err := os.Remove(o.paths.TempArchive); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove temporary archive", logging.Err(err))
	}

	o.finishJournal(ctx, cycleID, history.OutcomeUpdated, markerWarning)
	o.emitStatus("Update complete!")
	return nil
}

// fetchRemoteVersion gets the manifest with its own bounded retry, separate
// from the archive download retry.
func (o *Orchestrator) fetchRemoteVersion(ctx context.Context) (string, error) {
	var manifest *fetch.Manifest
	err := o.retry.Do(ctx, func() error {
		m, err := o.client.FetchManifest(ctx, o.cfg.ManifestURL)
		if err != nil {
			return err
		}
		manifest = m
		return nil
	})
	if err != nil {
		return "", err
	}
	return manifest.Version, nil
}

func (o *Orchestrator) binaryPresent() bool {
	info, err := os.Stat(o.paths.Executable)
	return err == nil && !info.IsDir()
}

func (o *Orchestrator) finishUpToDate(ctx context.Context, mode Mode, local, remote string) {
	o.setPhase(PhaseUpToDate)
	if o.journal != nil {
		cycle := &history.Cycle{Mode: string(mode), FromVersion: local, ToVersion: remote}
		if err := o.journal.BeginCycle(ctx, cycle); err == nil {
			_ = o.journal.FinishCycle(ctx, cycle.ID, history.OutcomeUpToDate, "")
		}
	}
}

func (o *Orchestrator) beginJournal(ctx context.Context, mode Mode, local, remote string) int64 {
	if o.journal == nil {
		return 0
	}
	cycle := &history.Cycle{Mode: string(mode), FromVersion: local, ToVersion: remote}
	if err := o.journal.BeginCycle(ctx, cycle); err != nil {
		logging.Warn("failed to record cycle start", logging.Err(err))
		return 0
	}
	return cycle.ID
}

func (o *Orchestrator) finishJournal(ctx context.Context, id int64, outcome, detail string) {
	if o.journal == nil || id == 0 {
		return
	}
	if err := o.journal.FinishCycle(ctx, id, outcome, detail); err != nil {
		logging.Warn("failed to record cycle outcome", logging.Err(err))
	}
}

// fail reports a cycle failure and returns the machine to a retriable state.
// Failures never escape to terminate the host process.
func (o *Orchestrator) fail(message string, err error, cycleID int64) {
	o.setPhase(PhaseFailed)
	o.emitStatus(message)
	o.emitAlert(message)
	logging.Error("update cycle failed", logging.Err(err))
	o.finishJournal(context.Background(), cycleID, history.OutcomeFailed, err.Error())
	o.setPhase(PhaseIdle)
}

func (o *Orchestrator) failCheck(err error) {
	o.setPhase(PhaseFailed)
	msg := fmt.Sprintf("Update check failed: %v", err)
	o.emitStatus(msg)
	o.emitAlert(msg)
	o.setPhase(PhaseIdle)
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
	if o.events.OnPhase != nil {
		o.events.OnPhase(p)
	}
	o.emitControls()
}

func (o *Orchestrator) setVersions(local, remote string) {
	o.mu.Lock()
	o.localVersion = local
	o.remoteVersion = remote
	o.mu.Unlock()
	if o.events.OnVersions != nil {
		o.events.OnVersions(local, remote)
	}
}

func (o *Orchestrator) resetProgress() {
	if o.events.OnDownloadProgress != nil {
		o.events.OnDownloadProgress(0)
	}
	if o.events.OnExtractProgress != nil {
		o.events.OnExtractProgress(0)
	}
}

func (o *Orchestrator) emitStatus(message string) {
	logging.Debug("status", "message", message)
	if o.events.OnStatus != nil {
		o.events.OnStatus(message)
	}
}

func (o *Orchestrator) emitAlert(message string) {
	if o.events.OnAlert != nil {
		o.events.OnAlert(message)
	}
}

// emitControls recomputes button enablement from the current install state.
func (o *Orchestrator) emitControls() {
	if o.events.OnControls == nil {
		return
	}

	o.mu.RLock()
	local, remote := o.localVersion, o.remoteVersion
	o.mu.RUnlock()

	busy := o.busy.Load()
	present := o.binaryPresent()

	o.events.OnControls(Controls{
		CheckEnabled:  !busy,
		UpdateEnabled: !busy && remote != "" && (version.Compare(remote, local) == version.Newer || !present),
		RunEnabled:    !busy && present,
	})
}
