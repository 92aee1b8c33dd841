// Package fixture creates and tears down the instance and session a
// scenario runs against.
package fixture

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/xr-cts/verifier"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

// Flags select how far New takes the session.
type Flags uint8

const (
	// CreateSession creates a session on the instance.
	CreateSession Flags = 1 << iota
	// BeginSession waits for READY and begins the session. Implies CreateSession.
	BeginSession
)

const DefaultApplicationName = "xr-cts"

// Options configures the created instance and session.
type Options struct {
	ApplicationName string
	FormFactor      xr.FormFactor
	GraphicsBinding string
	Verifier        verifier.Options
}

// Session holds whatever New created. Fields are zero for the parts that
// were not requested.
type Session struct {
	Runtime  xr.Runtime
	Instance xr.Instance
	Session  xr.Session
	Verifier *verifier.Verifier

	log log.Logger
}

// New creates an instance and, depending on flags, a session. On error
// everything created so far is released.
func New(ctx context.Context, rt xr.Runtime, opts Options, flags Flags, log log.Logger) (*Session, error) {
	if opts.ApplicationName == "" {
		opts.ApplicationName = DefaultApplicationName
	}
	if opts.FormFactor == 0 {
		opts.FormFactor = xr.FormFactorHeadMountedDisplay
	}
	if flags&BeginSession != 0 {
		flags |= CreateSession
	}

	s := &Session{Runtime: rt, log: log}
	inst, res, err := rt.CreateInstance(ctx, opts.ApplicationName)
	if err := xr.Check("xrCreateInstance", res, err); err != nil {
		return nil, err
	}
	s.Instance = inst

	if flags&CreateSession == 0 {
		return s, nil
	}
	sess, res, err := rt.CreateSession(ctx, inst, xr.SessionCreateInfo{
		FormFactor:      opts.FormFactor,
		GraphicsBinding: opts.GraphicsBinding,
	})
	if err := xr.Check("xrCreateSession", res, err); err != nil {
		return nil, errors.Join(err, s.Close(ctx))
	}
	s.Session = sess
	s.Verifier = verifier.New(rt, inst, sess, opts.Verifier, log)

	if flags&BeginSession == 0 {
		return s, nil
	}
	v := s.Verifier
	if err := v.RunToSessionState(ctx, xr.SessionStateReady, v.Options().StateTimeout); err != nil {
		return nil, errors.Join(fmt.Errorf("session never became ready: %w", err), s.Close(ctx))
	}
	if err := v.BeginSession(ctx, xr.Success); err != nil {
		return nil, errors.Join(err, s.Close(ctx))
	}
	return s, nil
}

// Close ends a running session and destroys the session and instance.
// Contract errors from teardown are logged, not returned.
func (s *Session) Close(ctx context.Context) error {
	var errs error
	if s.Verifier != nil && s.Verifier.Running() {
		if err := s.Verifier.EndSession(ctx, xr.Success); err != nil {
			s.log.Debug("end session during teardown", "err", err)
		}
	}
	if s.Session != xr.NullHandle {
		res, err := s.Runtime.DestroySession(ctx, s.Session)
		errs = errors.Join(errs, xr.Check("xrDestroySession", res, err))
		s.Session = xr.NullHandle
	}
	if s.Instance != xr.NullHandle {
		res, err := s.Runtime.DestroyInstance(ctx, s.Instance)
		errs = errors.Join(errs, xr.Check("xrDestroyInstance", res, err))
		s.Instance = xr.NullHandle
	}
	return errs
}
