//go:build windows

package winsvc

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/eventlog"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/go-tangra/go-tangra-hwreport/internal/logging"
)

type eventLogWriter struct {
	elog *eventlog.Log
}

// Write sends one formatted log line as an informational event.
func (w *eventLogWriter) Write(p []byte) (int, error) {
	if err := w.elog.Info(1, string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// EventLogWriter opens the named event log source. It returns nil when the
// source cannot be opened, in which case logs stay on stderr.
func EventLogWriter(name string) io.Writer {
	elog, err := eventlog.Open(name)
	if err != nil {
		return nil
	}
	return &eventLogWriter{elog: elog}
}

// IsWindowsService reports whether the process was started by the SCM.
func IsWindowsService() bool {
	ok, err := svc.IsWindowsService()
	return err == nil && ok
}

// service adapts a blocking run function to svc.Handler.
type service struct {
	name string
	run  func(ctx context.Context) error
	log  *log.Logger
}

func (s *service) Execute(_ []string, req <-chan svc.ChangeRequest, status chan<- svc.Status) (bool, uint32) {
	status <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.run(ctx) }()

	status <- svc.Status{State: svc.Running, Accepts: svc.AcceptStop | svc.AcceptShutdown}

	for {
		select {
		case err := <-done:
			status <- svc.Status{State: svc.StopPending}
			if err != nil {
				s.log.Error("collector exited", "service", s.name, "err", err)
			}
			code := exitCode(err)
			return code != 0, code

		case cr := <-req:
			switch cr.Cmd {
			case svc.Interrogate:
				status <- cr.CurrentStatus
			case svc.Stop, svc.Shutdown:
				status <- svc.Status{State: svc.StopPending}
				cancel()
				return false, s.awaitRun(done)
			}
		}
	}
}

// awaitRun waits up to stopTimeout for run to return after cancellation.
func (s *service) awaitRun(done <-chan error) uint32 {
	select {
	case err := <-done:
		return exitCode(err)
	case <-time.After(stopTimeout):
		s.log.Warn("collector did not stop in time", "service", s.name, "timeout", stopTimeout)
		return 0
	}
}

// RunService hands control to the SCM until the service stops. run gets a
// context that is cancelled on stop or shutdown.
func RunService(name string, run func(ctx context.Context) error) error {
	return svc.Run(name, &service{name: name, run: run, log: logging.Get("service")})
}

func recoveryActions(spec Spec) []mgr.RecoveryAction {
	actions := make([]mgr.RecoveryAction, 0, len(spec.RestartDelays)+1)
	for _, d := range spec.RestartDelays {
		actions = append(actions, mgr.RecoveryAction{Type: mgr.ServiceRestart, Delay: d})
	}
	return append(actions, mgr.RecoveryAction{Type: mgr.NoAction})
}

// Install registers spec with the SCM, configures restart on failure and
// creates an event log source of the same name.
func Install(spec Spec) error {
	if err := spec.validate(); err != nil {
		return err
	}
	spec = spec.withDefaults()
	logger := logging.Get("service")

	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connect to SCM: %w", err)
	}
	defer m.Disconnect()

	if existing, err := m.OpenService(spec.Name); err == nil {
		existing.Close()
		return fmt.Errorf("%w: %s", ErrServiceExists, spec.Name)
	}

	s, err := m.CreateService(spec.Name, spec.ExePath, mgr.Config{
		DisplayName: spec.DisplayName,
		Description: spec.Description,
		StartType:   mgr.StartAutomatic,
	}, spec.Args...)
	if err != nil {
		return fmt.Errorf("create service %s: %w", spec.Name, err)
	}
	defer s.Close()

	if err := s.SetRecoveryActions(recoveryActions(spec), uint32(spec.ResetPeriod/time.Second)); err != nil {
		logger.Warn("could not set recovery actions", "service", spec.Name, "err", err)
	}
	if err := eventlog.InstallAsEventCreate(spec.Name, eventlog.Error|eventlog.Warning|eventlog.Info); err != nil {
		logger.Warn("could not install event log source", "service", spec.Name, "err", err)
	}
	return nil
}

// stopAndWait asks a running service to stop and polls until it reports
// Stopped or timeout passes.
func stopAndWait(s *mgr.Service, timeout time.Duration) {
	st, err := s.Query()
	if err != nil || st.State == svc.Stopped {
		return
	}
	if _, err := s.Control(svc.Stop); err != nil {
		return
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		time.Sleep(250 * time.Millisecond)
		if st, err = s.Query(); err != nil || st.State == svc.Stopped {
			return
		}
	}
	logging.Get("service").Warn("service still running, deleting anyway", "timeout", timeout)
}

// Uninstall stops the named service if needed, deletes it and removes its
// event log source.
func Uninstall(name string) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connect to SCM: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(name)
	if err != nil {
		return fmt.Errorf("open service %s: %w", name, err)
	}
	defer s.Close()

	stopAndWait(s, uninstallTimeout)

	if err := s.Delete(); err != nil {
		return fmt.Errorf("delete service %s: %w", name, err)
	}
	_ = eventlog.Remove(name)
	return nil
}

// ExePath returns the path of the running executable, used as the service
// binary.
func ExePath() (string, error) {
	p, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("cannot determine executable path: %w", err)
	}
	return p, nil
}
