package swapchain

// Swapchain usage flags.
const (
	UsageColorAttachment        uint64 = 0x00000001
	UsageDepthStencilAttachment uint64 = 0x00000002
	UsageUnorderedAccess        uint64 = 0x00000004
	UsageTransferSrc            uint64 = 0x00000008
	UsageTransferDst            uint64 = 0x00000010
	UsageSampled                uint64 = 0x00000020
	UsageMutableFormat          uint64 = 0x00000040
	UsageInputAttachment        uint64 = 0x00000080
)

// Swapchain create flags.
const (
	CreateProtectedContent uint64 = 0x00000001
	CreateStaticImage      uint64 = 0x00000002
)

// Format is one record of a format table as stored on disk.
type Format struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
	// Mutable marks a typeless format.
	Mutable bool `yaml:"mutable"`
	// SupportsMutable marks a format that accepts UsageMutableFormat.
	SupportsMutable bool `yaml:"supports_mutable"`
	Color           bool `yaml:"color"`
	Compressed      bool `yaml:"compressed"`
	Renderable      bool `yaml:"renderable"`
	// ExpectedCreated is the format the runtime reports after creation, when
	// it differs from ID.
	ExpectedCreated int64              `yaml:"expected_created,omitempty"`
	Components      RawColorComponents `yaml:"components"`
	IntegerRange    ColorIntegerRange  `yaml:"integer_range"`
	Depth           bool               `yaml:"depth"`
	Stencil         bool               `yaml:"stencil"`
}

// Parameters describes how one format is exercised. It is read-only once
// built by a Table.
type Parameters struct {
	Format

	ExpectedCreatedFormat int64
	UsageFlags            []uint64
	CreateFlags           []uint64
	ArrayCounts           []uint32
	SampleCounts          []uint32
	MipCounts             []uint32
}

// deriveParameters expands a format record into the parameter vectors to
// exercise.
func deriveParameters(f Format) Parameters {
	p := Parameters{
		Format:                f,
		ExpectedCreatedFormat: f.ID,
		CreateFlags:           []uint64{0, CreateStaticImage},
		ArrayCounts:           []uint32{1, 2},
		SampleCounts:          []uint32{1},
		MipCounts:             []uint32{1, 2},
	}
	if f.ExpectedCreated != 0 {
		p.ExpectedCreatedFormat = f.ExpectedCreated
	}

	p.UsageFlags = []uint64{UsageSampled}
	if f.Renderable {
		if f.Color {
			p.UsageFlags = append(p.UsageFlags, UsageSampled|UsageColorAttachment)
		} else {
			p.UsageFlags = append(p.UsageFlags, UsageSampled|UsageDepthStencilAttachment)
		}
	}
	if f.SupportsMutable {
		p.UsageFlags = append(p.UsageFlags, UsageSampled|UsageMutableFormat)
	}
	if !f.Compressed {
		p.UsageFlags = append(p.UsageFlags, UsageSampled|UsageTransferSrc|UsageTransferDst)
	}

	if f.Color && f.Renderable {
		p.SampleCounts = []uint32{1, 2, 4}
	}
	if f.Compressed {
		p.MipCounts = []uint32{1}
	}
	return p
}

// CreateInfo is the minimal swapchain description a scenario creates.
type CreateInfo struct {
	CreateFlags uint64
	UsageFlags  uint64
	Format      int64
	SampleCount uint32
	Width       uint32
	Height      uint32
	FaceCount   uint32
	ArraySize   uint32
	MipCount    uint32
}

// DefaultCreateInfo returns a 64x64 single-sample single-face swapchain of
// format using the first entry of each parameter vector.
func DefaultCreateInfo(format int64, p Parameters) CreateInfo {
	return CreateInfo{
		CreateFlags: p.CreateFlags[0],
		UsageFlags:  p.UsageFlags[0],
		Format:      format,
		SampleCount: 1,
		Width:       64,
		Height:      64,
		FaceCount:   1,
		ArraySize:   p.ArrayCounts[0],
		MipCount:    p.MipCounts[0],
	}
}
