package loader

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/Zaltu/AIGIS/internal/plugin"
	"github.com/Zaltu/AIGIS/internal/plugin/childproc"
	"github.com/Zaltu/AIGIS/internal/plugin/watchdog"
	"github.com/Zaltu/AIGIS/internal/skills"
)

// SpawnConfig is the set of dependencies an internal-local or
// internal-remote loader needs, gathered here so the agent wiring code has
// one struct to fill in rather than a long constructor argument list.
type SpawnConfig struct {
	Record *plugin.Record
	Skills *skills.Registry
	Burier plugin.Burier
	// BrokerAddr is the address the injector is told to dial for a
	// locally-spawned child. It is the host's bind address, which for a
	// wildcard bind (0.0.0.0:port) also happens to be reachable from
	// localhost.
	BrokerAddr string
	// BrokerAdvertiseAddr is the address an internal-remote child, spawned
	// over ssh onto a different host, should dial instead -- BrokerAddr's
	// bind wildcard would resolve to the remote host's own loopback and
	// never reach back here. Operators deploying internal-remote plugins
	// must set this to this host's address as seen from the remote host.
	// Falls back to BrokerAddr if unset, which only works when BrokerAddr
	// is already a concrete, externally reachable address.
	BrokerAdvertiseAddr string
	BrokerSecret        string
	LaunchTimeout       time.Duration
	InjectorPath        string
}

type remoteTarget struct {
	host, login, password string
}

// spawnLoader is the shared implementation behind both internal-local and
// internal-remote: both launch the aigis-injector against the plugin's
// LAUNCH file and talk to it over the broker, differing only in whether
// the injector itself runs locally or over ssh.
type spawnLoader struct {
	cfg    SpawnConfig
	remote *remoteTarget
	handle *childproc.Handle
}

// NewInternalLocal builds the loader for a plugin whose LAUNCH file runs
// on this host.
func NewInternalLocal(cfg SpawnConfig) plugin.Loader {
	return &spawnLoader{cfg: cfg}
}

// NewInternalRemote builds the loader for a plugin whose LAUNCH file runs
// on a remote host reached over ssh, per the manifest's HOST field and the
// agent's configured system login.
func NewInternalRemote(cfg SpawnConfig, host, login, password string) plugin.Loader {
	return &spawnLoader{cfg: cfg, remote: &remoteTarget{host: host, login: login, password: password}}
}

func (l *spawnLoader) soPath() string {
	return filepath.Join(l.cfg.Record.Root, "AIGIS", "AIGIS.core.so")
}

// Run optionally injects an accompanying core skill set, then spawns the
// injector and waits up to LaunchTimeout for it to actually start before
// declaring the load successful.
func (l *spawnLoader) Run(ctx context.Context) error {
	if err := injectCoreSkillsIfPresent(l.cfg.Record, l.cfg.Skills, l.soPath()); err != nil {
		return err
	}

	cmd := l.buildCommand()
	stdout, stderr := logWriters(l.cfg.Record.Log.Logger)
	cmd.Stdout, cmd.Stderr = stdout, stderr

	launchCtx, cancel := context.WithTimeout(ctx, l.cfg.LaunchTimeout)
	defer cancel()

	type startResult struct {
		handle *childproc.Handle
		err    error
	}
	resultCh := make(chan startResult, 1)
	go func() {
		h, err := childproc.Start(cmd)
		resultCh <- startResult{handle: h, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return plugin.WrapLoadError(plugin.KindLaunchTimeout, res.err, "failed to launch %s", l.cfg.Record.Name)
		}
		l.handle = res.handle
		l.watch()
		l.cfg.Record.Log.Boot("running")
		return nil
	case <-launchCtx.Done():
		return plugin.NewLoadError(plugin.KindLaunchTimeout, "launch of %s did not start within %s", l.cfg.Record.Name, l.cfg.LaunchTimeout)
	}
}

func (l *spawnLoader) watch() {
	record := l.cfg.Record
	burier := l.cfg.Burier
	watchdog.WatchCrossProcess(l.handle, func(state *os.ProcessState, _ error) {
		record.Log.Shutdown("process exited", "code", exitCode(state))
		burier.Bury(record)
	})
}

func (l *spawnLoader) buildCommand() *exec.Cmd {
	m := l.cfg.Record.Manifest
	args := []string{
		"--ENTRYPOINT", m.Entrypoint,
		"--LAUNCH", m.Launch[0],
		"--broker-addr", l.brokerAddrForChild(),
		"--broker-secret", l.cfg.BrokerSecret,
	}

	if l.remote == nil {
		return exec.Command(l.cfg.InjectorPath, args...)
	}

	sshArgs := []string{"-l", l.remote.login, l.remote.host, l.cfg.InjectorPath}
	sshArgs = append(sshArgs, args...)
	return exec.Command("ssh", sshArgs...)
}

// brokerAddrForChild is the address the spawned injector is told to dial.
// A local child can reach the bind address directly; an internal-remote
// child needs this host's externally reachable address instead, since the
// bind address is typically a wildcard that resolves to the remote host's
// own loopback.
func (l *spawnLoader) brokerAddrForChild() string {
	if l.remote == nil {
		return l.cfg.BrokerAddr
	}
	if l.cfg.BrokerAdvertiseAddr != "" {
		return l.cfg.BrokerAdvertiseAddr
	}
	l.cfg.Record.Log.Warn(
		"internal-remote plugin has no broker_advertise_addr configured, falling back to broker_bind; " +
			"the child will likely be unable to reach the capability broker")
	return l.cfg.BrokerAddr
}

// Stop deregisters the plugin's skills and gracefully terminates its
// process.
func (l *spawnLoader) Stop(ctx context.Context) error {
	l.cfg.Skills.ForgetSkill(l.cfg.Record.Name)
	return gracefulStop(ctx, l.handle, l.cfg.Record.Log.Logger)
}

// Reload deregisters the plugin's skills, marks it for reload, and
// stops its process; the watchdog then buries it, so it relaunches from
// scratch once its process exits.
func (l *spawnLoader) Reload(ctx context.Context) error {
	l.cfg.Skills.ForgetSkill(l.cfg.Record.Name)
	l.cfg.Record.Reload = true
	return gracefulStop(ctx, l.handle, l.cfg.Record.Log.Logger)
}
