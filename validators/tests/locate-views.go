package tests

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/fixture"
	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

// LocateViews locates the views of the session's own view configuration
// and checks the display time argument is validated.
var LocateViews = cts.Test{
	ID:          "locate-views",
	Description: "Locating views returns one view per configuration view and rejects non-positive display times",
	Fn: func(ctx context.Context, log log.Logger, cfg cts.Config, params interface{}) (bool, error) {
		return withSession(ctx, log, cfg, params, fixture.BeginSession, func(s *fixture.Session) error {
			viewType := s.Verifier.Options().ViewConfiguration
			supported, res, err := s.Runtime.EnumerateViewConfigurations(ctx, s.Instance)
			if err != nil || res.Failed() {
				return fmt.Errorf("enumerating view configurations: %s %v", res, err)
			}
			if !containsViewType(supported, viewType) {
				return fmt.Errorf("session view configuration %s is not in the enumerated list %v", viewType, supported)
			}
			return locateFocused(ctx, log, s, viewType)
		})
	},
}

// LocateViewsAllViewTypes walks every known view configuration type. Types
// the runtime supports get a session of their own; the rest must be rejected.
var LocateViewsAllViewTypes = cts.Test{
	ID:          "locate-views-all-view-types",
	Description: "Every supported view configuration type can be located and unsupported types are rejected",
	Fn: func(ctx context.Context, log log.Logger, cfg cts.Config, params interface{}) (bool, error) {
		var supported []xr.ViewConfigurationType
		ok, err := withSession(ctx, log, cfg, params, fixture.BeginSession, func(s *fixture.Session) error {
			var res xr.Result
			var err error
			supported, res, err = s.Runtime.EnumerateViewConfigurations(ctx, s.Instance)
			if err != nil || res.Failed() {
				return fmt.Errorf("enumerating view configurations: %s %v", res, err)
			}
			if err := s.Verifier.RunToSessionState(ctx, xr.SessionStateFocused, s.Verifier.Options().StateTimeout); err != nil {
				return errors.Wrap(err, "running to FOCUSED")
			}
			if err := s.Verifier.SubmitFrame(ctx); err != nil {
				return err
			}
			displayTime := s.Verifier.LastFrameState().PredictedDisplayTime
			for _, viewType := range xr.KnownViewConfigurationTypes() {
				if containsViewType(supported, viewType) {
					continue
				}
				_, views, res, err := s.Runtime.LocateViews(ctx, s.Session, xr.ViewLocateInfo{
					ViewConfigurationType: viewType,
					DisplayTime:           displayTime,
					Space:                 xr.ReferenceSpaceTypeLocal,
				})
				if err != nil {
					return errors.Wrapf(err, "locating unsupported %s", viewType)
				}
				switch res {
				case xr.ErrorValidationFailure:
					if viewType.IsCore() {
						log.Warn("core view configuration rejected as invalid", "view_type", viewType)
					}
				case xr.ErrorViewConfigurationTypeUnsupported:
					if !viewType.IsCore() {
						log.Warn("extension view configuration reported unsupported", "view_type", viewType)
					}
				default:
					return fmt.Errorf("locating unsupported %s: got %s with %d views, want %s or %s",
						viewType, res, len(views), xr.ErrorValidationFailure, xr.ErrorViewConfigurationTypeUnsupported)
				}
			}
			return nil
		})
		if !ok || err != nil {
			return ok, err
		}

		for _, viewType := range supported {
			typed := cfg
			typed.Session.Verifier.ViewConfiguration = viewType
			if _, err := withSession(ctx, log, typed, params, fixture.BeginSession, func(s *fixture.Session) error {
				return locateFocused(ctx, log, s, viewType)
			}); err != nil {
				return false, errors.Wrapf(err, "view configuration %s", viewType)
			}
		}
		return true, nil
	},
}

// locateFocused runs s to FOCUSED and locates viewType's views at the
// predicted display time, then at the invalid times 0 and -42.
func locateFocused(ctx context.Context, log log.Logger, s *fixture.Session, viewType xr.ViewConfigurationType) error {
	configViews, res, err := s.Runtime.EnumerateViewConfigurationViews(ctx, s.Instance, viewType)
	if err != nil || res.Failed() {
		return fmt.Errorf("enumerating views of %s: %s %v", viewType, res, err)
	}

	v := s.Verifier
	if err := v.RunToSessionState(ctx, xr.SessionStateFocused, v.Options().StateTimeout); err != nil {
		return errors.Wrap(err, "running to FOCUSED")
	}
	if err := v.SubmitFrame(ctx); err != nil {
		return err
	}
	info := xr.ViewLocateInfo{
		ViewConfigurationType: viewType,
		DisplayTime:           v.LastFrameState().PredictedDisplayTime,
		Space:                 xr.ReferenceSpaceTypeLocal,
	}

	flags, views, res, err := s.Runtime.LocateViews(ctx, s.Session, info)
	if err != nil {
		return errors.Wrap(err, "locating views")
	}
	if res != xr.Success {
		return fmt.Errorf("locating %s at %d: got %s, want %s", viewType, info.DisplayTime, res, xr.Success)
	}
	if len(views) != len(configViews) {
		return fmt.Errorf("locating %s returned %d views, want %d", viewType, len(views), len(configViews))
	}
	log.Debug("located views", "view_type", viewType, "views", len(views), "flags", fmt.Sprintf("%#x", uint64(flags)))

	for _, t := range []xr.Time{0, -42} {
		bad := info
		bad.DisplayTime = t
		_, _, res, err := s.Runtime.LocateViews(ctx, s.Session, bad)
		if err != nil {
			return errors.Wrapf(err, "locating views at %d", t)
		}
		if res != xr.ErrorTimeInvalid {
			return fmt.Errorf("locating %s at %d: got %s, want %s", viewType, t, res, xr.ErrorTimeInvalid)
		}
	}

	_, _, res, err = s.Runtime.LocateViews(ctx, xr.NullHandle, info)
	if err != nil {
		return errors.Wrap(err, "locating views on a null session")
	}
	if res != xr.ErrorHandleInvalid {
		return fmt.Errorf("locating views on a null session: got %s, want %s", res, xr.ErrorHandleInvalid)
	}
	return nil
}

func containsViewType(types []xr.ViewConfigurationType, t xr.ViewConfigurationType) bool {
	for _, have := range types {
		if have == t {
			return true
		}
	}
	return false
}
