// Package simruntime is an in-process reference runtime. It models a
// conforming session lifecycle driven purely by submitted frames, and can be
// told to misbehave so that the verifier's failure paths can be exercised.
// It does no rendering.
package simruntime

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/xr-cts/xr"
)

var _ xr.Runtime = (*Runtime)(nil)

// Faults make the runtime violate specific lifecycle contracts.
type Faults struct {
	// SkipVisible moves SYNCHRONIZED straight to FOCUSED.
	SkipVisible bool
	// SkipVisibleOnExit moves FOCUSED straight to SYNCHRONIZED after an exit request.
	SkipVisibleOnExit bool
	// PrematureIdle queues IDLE right after STOPPING, before end-session.
	PrematureIdle bool
	// AdvanceWithoutFrames queues SYNCHRONIZED as soon as the session begins.
	AdvanceWithoutFrames bool
	// AllowEndOutsideStopping accepts end-session in any running state.
	AllowEndOutsideStopping bool
	// AllowSecondBegin accepts begin-session on a running session.
	AllowSecondBegin bool
	// AllowFramesWhileNotRunning accepts frame calls before begin-session.
	AllowFramesWhileNotRunning bool
	// NeverFocus keeps the session VISIBLE.
	NeverFocus bool
	// NoiseEvents queues unrelated events around every state change.
	NoiseEvents bool
	// NeverShouldRender clears shouldRender in every frame state.
	NeverShouldRender bool
	// WrongViewCount makes locate-views return one view fewer than the
	// view configuration defines.
	WrongViewCount bool
	// AcceptInvalidViewTime makes locate-views accept a zero or negative
	// display time.
	AcceptInvalidViewTime bool
	// LocateUnsupportedViews makes locate-views succeed for view
	// configuration types the runtime does not support.
	LocateUnsupportedViews bool
}

// Options configures a Runtime.
type Options struct {
	// FramesPerStep is the number of frames a session spends in each state
	// before the runtime advances it. Defaults to 2.
	FramesPerStep int
	// DisplayPeriod is the predicted display period. Defaults to 11ms.
	DisplayPeriod time.Duration
	// BlendModes lists the accepted environment blend modes. Defaults to OPAQUE.
	BlendModes []xr.EnvironmentBlendMode
	// ViewConfigurations lists the accepted primary view configurations.
	// Defaults to PRIMARY_STEREO and PRIMARY_MONO.
	ViewConfigurations []xr.ViewConfigurationType
	// SwapchainFormats is returned by EnumerateSwapchainFormats.
	SwapchainFormats []int64
	Faults           Faults
	Log              log.Logger
}

type instance struct {
	queue []xr.Event
}

type session struct {
	instance      xr.Instance
	state         xr.SessionState
	running       bool
	exitRequested bool
	primary       xr.ViewConfigurationType
	waited        bool
	inFrame       bool
	framesInState int
	frames        int
}

// Runtime implements xr.Runtime in memory. It is safe for concurrent use.
type Runtime struct {
	mu        sync.Mutex
	opts      Options
	log       log.Logger
	epoch     time.Time
	next      uint64
	instances map[xr.Instance]*instance
	sessions  map[xr.Session]*session
}

// New creates a reference runtime.
func New(opts Options) *Runtime {
	if opts.FramesPerStep <= 0 {
		opts.FramesPerStep = 2
	}
	if opts.DisplayPeriod <= 0 {
		opts.DisplayPeriod = 11 * time.Millisecond
	}
	if len(opts.BlendModes) == 0 {
		opts.BlendModes = []xr.EnvironmentBlendMode{xr.EnvironmentBlendModeOpaque}
	}
	if len(opts.ViewConfigurations) == 0 {
		opts.ViewConfigurations = []xr.ViewConfigurationType{
			xr.ViewConfigurationTypePrimaryStereo,
			xr.ViewConfigurationTypePrimaryMono,
		}
	}
	if opts.Log == nil {
		opts.Log = log.New("component", "simruntime")
	}
	return &Runtime{
		opts:      opts,
		log:       opts.Log,
		epoch:     time.Now(),
		instances: make(map[xr.Instance]*instance),
		sessions:  make(map[xr.Session]*session),
	}
}

func (r *Runtime) handle() uint64 {
	r.next++
	return r.next
}

func (r *Runtime) now() xr.Time {
	return xr.Time(time.Since(r.epoch).Nanoseconds())
}

func (r *Runtime) CreateInstance(_ context.Context, applicationName string) (xr.Instance, xr.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := xr.Instance(r.handle())
	r.instances[h] = &instance{}
	r.log.Debug("instance created", "instance", h, "application", applicationName)
	return h, xr.Success, nil
}

func (r *Runtime) DestroyInstance(_ context.Context, h xr.Instance) (xr.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.instances[h]; !ok {
		return xr.ErrorHandleInvalid, nil
	}
	for sh, s := range r.sessions {
		if s.instance == h {
			delete(r.sessions, sh)
		}
	}
	delete(r.instances, h)
	return xr.Success, nil
}

func (r *Runtime) CreateSession(_ context.Context, h xr.Instance, info xr.SessionCreateInfo) (xr.Session, xr.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.instances[h]; !ok {
		return xr.NullHandle, xr.ErrorHandleInvalid, nil
	}
	if info.FormFactor != xr.FormFactorHeadMountedDisplay && info.FormFactor != xr.FormFactorHandheldDisplay {
		return xr.NullHandle, xr.ErrorFormFactorUnsupported, nil
	}
	sh := xr.Session(r.handle())
	s := &session{instance: h}
	r.sessions[sh] = s
	r.log.Debug("session created", "session", sh, "form_factor", info.FormFactor)

	r.transition(sh, s, xr.SessionStateIdle)
	r.transition(sh, s, xr.SessionStateReady)
	return sh, xr.Success, nil
}

func (r *Runtime) DestroySession(_ context.Context, sh xr.Session) (xr.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sh]; !ok {
		return xr.ErrorHandleInvalid, nil
	}
	delete(r.sessions, sh)
	return xr.Success, nil
}

func (r *Runtime) PollEvent(_ context.Context, h xr.Instance) (xr.Event, xr.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.instances[h]
	if !ok {
		return nil, xr.ErrorHandleInvalid, nil
	}
	if len(inst.queue) == 0 {
		return nil, xr.EventUnavailable, nil
	}
	evt := inst.queue[0]
	inst.queue = inst.queue[1:]
	return evt, xr.Success, nil
}

func (r *Runtime) BeginSession(_ context.Context, sh xr.Session, info xr.SessionBeginInfo) (xr.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sh]
	if !ok {
		return xr.ErrorHandleInvalid, nil
	}
	if !r.supportsViewConfiguration(info.PrimaryViewConfigurationType) {
		return xr.ErrorViewConfigurationTypeUnsupported, nil
	}
	if s.running {
		if r.opts.Faults.AllowSecondBegin {
			return xr.Success, nil
		}
		return xr.ErrorSessionRunning, nil
	}
	if s.state != xr.SessionStateReady {
		return xr.ErrorSessionNotReady, nil
	}
	s.running = true
	s.primary = info.PrimaryViewConfigurationType
	s.framesInState = 0
	if r.opts.Faults.AdvanceWithoutFrames {
		r.transition(sh, s, xr.SessionStateSynchronized)
	}
	return xr.Success, nil
}

func (r *Runtime) EndSession(_ context.Context, sh xr.Session) (xr.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sh]
	if !ok {
		return xr.ErrorHandleInvalid, nil
	}
	if !s.running {
		return xr.ErrorSessionNotRunning, nil
	}
	if s.state != xr.SessionStateStopping && !r.opts.Faults.AllowEndOutsideStopping {
		return xr.ErrorSessionNotStopping, nil
	}
	s.running = false
	s.waited = false
	s.inFrame = false
	if s.state != xr.SessionStateIdle {
		r.transition(sh, s, xr.SessionStateIdle)
	}
	if s.exitRequested {
		r.transition(sh, s, xr.SessionStateExiting)
	}
	return xr.Success, nil
}

func (r *Runtime) RequestExitSession(_ context.Context, sh xr.Session) (xr.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sh]
	if !ok {
		return xr.ErrorHandleInvalid, nil
	}
	if !s.running {
		return xr.ErrorSessionNotRunning, nil
	}
	s.exitRequested = true
	return xr.Success, nil
}

func (r *Runtime) WaitFrame(_ context.Context, sh xr.Session) (xr.FrameState, xr.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sh]
	if !ok {
		return xr.FrameState{}, xr.ErrorHandleInvalid, nil
	}
	if !s.running && !r.opts.Faults.AllowFramesWhileNotRunning {
		return xr.FrameState{}, xr.ErrorSessionNotRunning, nil
	}
	s.waited = true
	return xr.FrameState{
		PredictedDisplayTime:   r.now() + xr.Time(r.opts.DisplayPeriod.Nanoseconds()),
		PredictedDisplayPeriod: r.opts.DisplayPeriod,
		ShouldRender:           !r.opts.Faults.NeverShouldRender && (s.state == xr.SessionStateVisible || s.state == xr.SessionStateFocused),
	}, xr.Success, nil
}

func (r *Runtime) BeginFrame(_ context.Context, sh xr.Session) (xr.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sh]
	if !ok {
		return xr.ErrorHandleInvalid, nil
	}
	if !s.running && !r.opts.Faults.AllowFramesWhileNotRunning {
		return xr.ErrorSessionNotRunning, nil
	}
	if !s.waited {
		return xr.ErrorCallOrderInvalid, nil
	}
	s.waited = false
	if s.inFrame {
		// The previous frame was never ended; the runtime discards it.
		return xr.FrameDiscarded, nil
	}
	s.inFrame = true
	return xr.Success, nil
}

func (r *Runtime) EndFrame(_ context.Context, sh xr.Session, info xr.FrameEndInfo) (xr.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sh]
	if !ok {
		return xr.ErrorHandleInvalid, nil
	}
	if !s.running && !r.opts.Faults.AllowFramesWhileNotRunning {
		return xr.ErrorSessionNotRunning, nil
	}
	if !s.inFrame {
		return xr.ErrorCallOrderInvalid, nil
	}
	if info.DisplayTime <= 0 {
		return xr.ErrorTimeInvalid, nil
	}
	if !r.supportsBlendMode(info.EnvironmentBlendMode) {
		return xr.ErrorEnvironmentBlendModeUnsupported, nil
	}
	s.inFrame = false
	s.frames++
	if s.running {
		r.advance(sh, s)
	}
	return xr.Success, nil
}

func (r *Runtime) EnumerateSwapchainFormats(_ context.Context, sh xr.Session) ([]int64, xr.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sh]; !ok {
		return nil, xr.ErrorHandleInvalid, nil
	}
	return append([]int64(nil), r.opts.SwapchainFormats...), xr.Success, nil
}

func (r *Runtime) EnumerateViewConfigurations(_ context.Context, h xr.Instance) ([]xr.ViewConfigurationType, xr.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.instances[h]; !ok {
		return nil, xr.ErrorHandleInvalid, nil
	}
	return append([]xr.ViewConfigurationType(nil), r.opts.ViewConfigurations...), xr.Success, nil
}

func (r *Runtime) EnumerateViewConfigurationViews(_ context.Context, h xr.Instance, viewType xr.ViewConfigurationType) ([]xr.ViewConfigurationView, xr.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.instances[h]; !ok {
		return nil, xr.ErrorHandleInvalid, nil
	}
	if !r.supportsViewConfiguration(viewType) {
		return nil, xr.ErrorViewConfigurationTypeUnsupported, nil
	}
	views := make([]xr.ViewConfigurationView, viewType.ViewCount())
	for i := range views {
		views[i] = xr.ViewConfigurationView{
			RecommendedImageRectWidth:       1024,
			RecommendedImageRectHeight:      1024,
			RecommendedSwapchainSampleCount: 1,
		}
	}
	return views, xr.Success, nil
}

// LocateViews returns fixed eye poses. A running session only locates its
// primary view configuration.
func (r *Runtime) LocateViews(_ context.Context, sh xr.Session, info xr.ViewLocateInfo) (xr.ViewStateFlags, []xr.View, xr.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sh]
	if !ok {
		return 0, nil, xr.ErrorHandleInvalid, nil
	}
	f := r.opts.Faults
	if !r.supportsViewConfiguration(info.ViewConfigurationType) && !f.LocateUnsupportedViews {
		if info.ViewConfigurationType.ViewCount() == 0 || !info.ViewConfigurationType.IsCore() {
			return 0, nil, xr.ErrorValidationFailure, nil
		}
		return 0, nil, xr.ErrorViewConfigurationTypeUnsupported, nil
	}
	if s.running && info.ViewConfigurationType != s.primary && !f.LocateUnsupportedViews {
		return 0, nil, xr.ErrorValidationFailure, nil
	}
	if info.DisplayTime <= 0 && !f.AcceptInvalidViewTime {
		return 0, nil, xr.ErrorTimeInvalid, nil
	}

	count := info.ViewConfigurationType.ViewCount()
	if count == 0 {
		count = 1
	}
	if f.WrongViewCount {
		count--
	}
	views := make([]xr.View, count)
	for i := range views {
		views[i] = eyeView(i, count)
	}
	flags := xr.ViewStateOrientationValid | xr.ViewStatePositionValid |
		xr.ViewStateOrientationTracked | xr.ViewStatePositionTracked
	return flags, views, xr.Success, nil
}

// eyeView spreads count views along the x axis around the head, 64mm apart.
func eyeView(i, count int) xr.View {
	const ipd = 0.064
	offset := (float32(i) - float32(count-1)/2) * ipd
	return xr.View{
		Pose: xr.Pose{
			Orientation: xr.Quaternion{W: 1},
			Position:    xr.Vector3{X: offset, Y: 1.6},
		},
		Fov: xr.Fov{AngleLeft: -0.785, AngleRight: 0.785, AngleUp: 0.785, AngleDown: -0.785},
	}
}

// FramesSubmitted returns the number of frames ended on a session.
func (r *Runtime) FramesSubmitted(sh xr.Session) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[sh]; ok {
		return s.frames
	}
	return 0
}

// advance moves a running session one step along its lifecycle once it has
// spent enough frames in its current state.
func (r *Runtime) advance(sh xr.Session, s *session) {
	s.framesInState++
	needed := r.opts.FramesPerStep
	if s.state == xr.SessionStateReady {
		needed = 1
	}
	if s.framesInState < needed {
		return
	}

	f := r.opts.Faults
	if s.exitRequested {
		switch s.state {
		case xr.SessionStateFocused:
			if f.SkipVisibleOnExit {
				r.transition(sh, s, xr.SessionStateSynchronized)
			} else {
				r.transition(sh, s, xr.SessionStateVisible)
			}
		case xr.SessionStateVisible:
			r.transition(sh, s, xr.SessionStateSynchronized)
		case xr.SessionStateReady:
			r.transition(sh, s, xr.SessionStateSynchronized)
		case xr.SessionStateSynchronized:
			r.transition(sh, s, xr.SessionStateStopping)
			if f.PrematureIdle {
				r.transition(sh, s, xr.SessionStateIdle)
			}
		}
		return
	}

	switch s.state {
	case xr.SessionStateReady:
		r.transition(sh, s, xr.SessionStateSynchronized)
	case xr.SessionStateSynchronized:
		if f.SkipVisible {
			r.transition(sh, s, xr.SessionStateFocused)
		} else {
			r.transition(sh, s, xr.SessionStateVisible)
		}
	case xr.SessionStateVisible:
		if !f.NeverFocus {
			r.transition(sh, s, xr.SessionStateFocused)
		}
	}
}

func (r *Runtime) transition(sh xr.Session, s *session, to xr.SessionState) {
	inst, ok := r.instances[s.instance]
	if !ok {
		return
	}
	if r.opts.Faults.NoiseEvents {
		inst.queue = append(inst.queue, xr.InteractionProfileChanged{Session: sh})
	}
	r.log.Debug("session state queued", "session", sh, "from", s.state, "to", to)
	s.state = to
	s.framesInState = 0
	inst.queue = append(inst.queue, xr.SessionStateChanged{Session: sh, State: to, Time: r.now()})
	if r.opts.Faults.NoiseEvents {
		inst.queue = append(inst.queue, xr.EventsLost{LostCount: 0})
	}
}

func (r *Runtime) supportsBlendMode(mode xr.EnvironmentBlendMode) bool {
	for _, m := range r.opts.BlendModes {
		if m == mode {
			return true
		}
	}
	return false
}

func (r *Runtime) supportsViewConfiguration(v xr.ViewConfigurationType) bool {
	for _, c := range r.opts.ViewConfigurations {
		if c == v {
			return true
		}
	}
	return false
}
