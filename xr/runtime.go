package xr

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ViewConfigurationType selects the primary view configuration of a session.
type ViewConfigurationType int32

const (
	ViewConfigurationTypePrimaryMono                          ViewConfigurationType = 1
	ViewConfigurationTypePrimaryStereo                        ViewConfigurationType = 2
	ViewConfigurationTypePrimaryQuadVarjo                     ViewConfigurationType = 1000037000
	ViewConfigurationTypeSecondaryMonoFirstPersonObserverMSFT ViewConfigurationType = 1000054000
)

// EnvironmentBlendMode selects how rendered frames blend with the real world.
type EnvironmentBlendMode int32

const (
	EnvironmentBlendModeOpaque     EnvironmentBlendMode = 1
	EnvironmentBlendModeAdditive   EnvironmentBlendMode = 2
	EnvironmentBlendModeAlphaBlend EnvironmentBlendMode = 3
)

// FormFactor is the kind of system a session is created for.
type FormFactor int32

const (
	FormFactorHeadMountedDisplay FormFactor = 1
	FormFactorHandheldDisplay    FormFactor = 2
)

// ReferenceSpaceType identifies a well-known reference space.
type ReferenceSpaceType int32

const (
	ReferenceSpaceTypeView  ReferenceSpaceType = 1
	ReferenceSpaceTypeLocal ReferenceSpaceType = 2
	ReferenceSpaceTypeStage ReferenceSpaceType = 3
)

var viewConfigurationNames = map[ViewConfigurationType]string{
	ViewConfigurationTypePrimaryMono:                          "PRIMARY_MONO",
	ViewConfigurationTypePrimaryStereo:                        "PRIMARY_STEREO",
	ViewConfigurationTypePrimaryQuadVarjo:                     "PRIMARY_QUAD_VARJO",
	ViewConfigurationTypeSecondaryMonoFirstPersonObserverMSFT: "SECONDARY_MONO_FIRST_PERSON_OBSERVER_MSFT",
}

var viewCounts = map[ViewConfigurationType]int{
	ViewConfigurationTypePrimaryMono:                          1,
	ViewConfigurationTypePrimaryStereo:                        2,
	ViewConfigurationTypePrimaryQuadVarjo:                     4,
	ViewConfigurationTypeSecondaryMonoFirstPersonObserverMSFT: 1,
}

// KnownViewConfigurationTypes lists every view configuration type this
// package has a name for, core types first.
func KnownViewConfigurationTypes() []ViewConfigurationType {
	return []ViewConfigurationType{
		ViewConfigurationTypePrimaryMono,
		ViewConfigurationTypePrimaryStereo,
		ViewConfigurationTypePrimaryQuadVarjo,
		ViewConfigurationTypeSecondaryMonoFirstPersonObserverMSFT,
	}
}

// IsCore reports whether v is defined without an extension. Extension types
// are invalid unless the extension is enabled, which the tester never does.
func (v ViewConfigurationType) IsCore() bool {
	return v == ViewConfigurationTypePrimaryMono || v == ViewConfigurationTypePrimaryStereo
}

// ViewCount is the number of views v defines, or 0 for an unknown type.
func (v ViewConfigurationType) ViewCount() int {
	return viewCounts[v]
}

var blendModeNames = map[EnvironmentBlendMode]string{
	EnvironmentBlendModeOpaque:     "OPAQUE",
	EnvironmentBlendModeAdditive:   "ADDITIVE",
	EnvironmentBlendModeAlphaBlend: "ALPHA_BLEND",
}

var formFactorNames = map[FormFactor]string{
	FormFactorHeadMountedDisplay: "HEAD_MOUNTED_DISPLAY",
	FormFactorHandheldDisplay:    "HANDHELD_DISPLAY",
}

func (v ViewConfigurationType) String() string {
	if name, ok := viewConfigurationNames[v]; ok {
		return name
	}
	return fmt.Sprintf("ViewConfigurationType(%d)", int32(v))
}

func (b EnvironmentBlendMode) String() string {
	if name, ok := blendModeNames[b]; ok {
		return name
	}
	return fmt.Sprintf("EnvironmentBlendMode(%d)", int32(b))
}

func (f FormFactor) String() string {
	if name, ok := formFactorNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FormFactor(%d)", int32(f))
}

// ParseViewConfigurationType accepts names like "PRIMARY_STEREO" or
// "primary-stereo".
func ParseViewConfigurationType(s string) (ViewConfigurationType, error) {
	key := normalizeName(s)
	for v, name := range viewConfigurationNames {
		if name == key {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown view configuration type %q", s)
}

// ParseEnvironmentBlendMode accepts names like "OPAQUE" or "alpha-blend".
func ParseEnvironmentBlendMode(s string) (EnvironmentBlendMode, error) {
	key := normalizeName(s)
	for b, name := range blendModeNames {
		if name == key {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown environment blend mode %q", s)
}

// ParseFormFactor accepts names like "HEAD_MOUNTED_DISPLAY" or "hmd".
func ParseFormFactor(s string) (FormFactor, error) {
	key := normalizeName(s)
	switch key {
	case "HMD":
		return FormFactorHeadMountedDisplay, nil
	case "HANDHELD":
		return FormFactorHandheldDisplay, nil
	}
	for f, name := range formFactorNames {
		if name == key {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown form factor %q", s)
}

func normalizeName(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
}

// FrameState is the timing data returned by WaitFrame. It is only valid for
// the frame cycle that produced it.
type FrameState struct {
	PredictedDisplayTime   Time          `json:"predictedDisplayTime"`
	PredictedDisplayPeriod time.Duration `json:"predictedDisplayPeriod"`
	ShouldRender           bool          `json:"shouldRender"`
}

// FrameEndInfo is passed to EndFrame.
type FrameEndInfo struct {
	DisplayTime          Time                 `json:"displayTime"`
	EnvironmentBlendMode EnvironmentBlendMode `json:"environmentBlendMode"`
	LayerCount           uint32               `json:"layerCount"`
}

// SessionBeginInfo is passed to BeginSession.
type SessionBeginInfo struct {
	PrimaryViewConfigurationType ViewConfigurationType `json:"primaryViewConfigurationType"`
}

// ViewConfigurationView is one view of a view configuration as reported by
// EnumerateViewConfigurationViews.
type ViewConfigurationView struct {
	RecommendedImageRectWidth       uint32 `json:"recommendedImageRectWidth"`
	RecommendedImageRectHeight      uint32 `json:"recommendedImageRectHeight"`
	RecommendedSwapchainSampleCount uint32 `json:"recommendedSwapchainSampleCount"`
}

// ViewLocateInfo is passed to LocateViews.
type ViewLocateInfo struct {
	ViewConfigurationType ViewConfigurationType `json:"viewConfigurationType"`
	DisplayTime           Time                  `json:"displayTime"`
	Space                 ReferenceSpaceType    `json:"space"`
}

// ViewStateFlags report which parts of the located poses are valid.
type ViewStateFlags uint64

const (
	ViewStateOrientationValid ViewStateFlags = 1 << iota
	ViewStatePositionValid
	ViewStateOrientationTracked
	ViewStatePositionTracked
)

type Quaternion struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
	W float32 `json:"w"`
}

type Vector3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

type Pose struct {
	Orientation Quaternion `json:"orientation"`
	Position    Vector3    `json:"position"`
}

// Fov holds the view frustum half angles in radians.
type Fov struct {
	AngleLeft  float32 `json:"angleLeft"`
	AngleRight float32 `json:"angleRight"`
	AngleUp    float32 `json:"angleUp"`
	AngleDown  float32 `json:"angleDown"`
}

// View is one located view.
type View struct {
	Pose Pose `json:"pose"`
	Fov  Fov  `json:"fov"`
}

// SessionCreateInfo is passed to CreateSession.
type SessionCreateInfo struct {
	FormFactor      FormFactor `json:"formFactor"`
	GraphicsBinding string     `json:"graphicsBinding,omitempty"`
}

// Runtime is the platform API surface of the runtime under test. Every call
// returns the runtime's result code; a non-nil error means the call never
// reached the runtime (transport failure) and the result is meaningless.
type Runtime interface {
	CreateInstance(ctx context.Context, applicationName string) (Instance, Result, error)
	DestroyInstance(ctx context.Context, instance Instance) (Result, error)
	CreateSession(ctx context.Context, instance Instance, info SessionCreateInfo) (Session, Result, error)
	DestroySession(ctx context.Context, session Session) (Result, error)

	// PollEvent returns EventUnavailable and a nil event when the queue is empty.
	PollEvent(ctx context.Context, instance Instance) (Event, Result, error)

	BeginSession(ctx context.Context, session Session, info SessionBeginInfo) (Result, error)
	EndSession(ctx context.Context, session Session) (Result, error)
	RequestExitSession(ctx context.Context, session Session) (Result, error)

	WaitFrame(ctx context.Context, session Session) (FrameState, Result, error)
	BeginFrame(ctx context.Context, session Session) (Result, error)
	EndFrame(ctx context.Context, session Session, info FrameEndInfo) (Result, error)

	EnumerateSwapchainFormats(ctx context.Context, session Session) ([]int64, Result, error)

	EnumerateViewConfigurations(ctx context.Context, instance Instance) ([]ViewConfigurationType, Result, error)
	EnumerateViewConfigurationViews(ctx context.Context, instance Instance, viewType ViewConfigurationType) ([]ViewConfigurationView, Result, error)
	LocateViews(ctx context.Context, session Session, info ViewLocateInfo) (ViewStateFlags, []View, Result, error)
}
