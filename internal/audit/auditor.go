package audit

import (
	"github.com/blackwell-systems/droidops/internal/android"
)

// DefaultOp is the app-op toggled by default.
const DefaultOp = "REQUEST_INSTALL_PACKAGES"

// Hooks receive progress as the sweep runs. Nil hooks are skipped.
type Hooks struct {
	// OnListed is called once with the enumerated packages.
	OnListed func(pkgs []string, fallback bool)
	// OnSetAttempt is called right before the mode is changed.
	OnSetAttempt func(pkg string)
	// OnOutcome is called as soon as a package reaches its terminal state.
	OnOutcome func(Outcome)
}

// Auditor runs the permission sweep.
type Auditor struct {
	client *android.Client
	marker string
	op     string
	hooks  Hooks
}

// New returns an Auditor that looks for marker in package dumps and sets op
// to allow. Empty values select the REQUEST_INSTALL_PACKAGES defaults.
func New(client *android.Client, marker, op string, hooks Hooks) *Auditor {
	if marker == "" {
		marker = android.DefaultPermissionMarker
	}
	if op == "" {
		op = DefaultOp
	}
	return &Auditor{client: client, marker: marker, op: op, hooks: hooks}
}

// Run enumerates installed packages and processes each in order.
func (a *Auditor) Run() *Report {
	pkgs, fallback := a.client.InstalledPackages()
	if a.hooks.OnListed != nil {
		a.hooks.OnListed(pkgs, fallback)
	}
	return a.RunPackages(pkgs, fallback)
}

// RunPackages processes an already enumerated package list.
func (a *Auditor) RunPackages(pkgs []string, fallback bool) *Report {
	report := &Report{Total: len(pkgs), UsedFallback: fallback}
	for _, pkg := range pkgs {
		o := a.Process(pkg)
		report.Add(o)
		if a.hooks.OnOutcome != nil {
			a.hooks.OnOutcome(o)
		}
	}
	return report
}

// Process drives one package to its terminal state.
func (a *Auditor) Process(pkg string) Outcome {
	if !a.client.DeclaresPermission(pkg, a.marker) {
		return Outcome{Package: pkg, State: SkippedNoPermission}
	}

	current, err := a.client.GetAppOp(pkg, a.op)
	if err != nil {
		return Outcome{Package: pkg, State: CheckFailed, Reason: "appops get failed: " + err.Error()}
	}
	if android.Allows(current) {
		return Outcome{Package: pkg, State: AlreadyAllowed}
	}

	if a.hooks.OnSetAttempt != nil {
		a.hooks.OnSetAttempt(pkg)
	}
	if err := a.client.SetAppOp(pkg, a.op, android.ModeAllow); err != nil {
		return Outcome{Package: pkg, State: SetFailed, Reason: "appops set failed: " + err.Error()}
	}

	after, err := a.client.GetAppOp(pkg, a.op)
	if err != nil {
		return Outcome{Package: pkg, State: SetFailed, Reason: "verification failed: " + err.Error()}
	}
	if !android.Allows(after) {
		return Outcome{Package: pkg, State: SetFailed, Reason: "verification failed: mode is still not allow"}
	}
	return Outcome{Package: pkg, State: SetSuccess}
}
