package logtap

import (
	"github.com/tapward/logtap/event"
	pipelinepkg "github.com/tapward/logtap/internal/pipeline"
	configpkg "github.com/tapward/logtap/internal/pipeline/config"
	errspkg "github.com/tapward/logtap/internal/pipeline/errors"
	idspkg "github.com/tapward/logtap/internal/pipeline/ids"
	jsoncodec "github.com/tapward/logtap/internal/pipeline/jsoncodec"
	loggingpkg "github.com/tapward/logtap/internal/pipeline/logging"
	sinkpkg "github.com/tapward/logtap/sink"
)

type (
	Config       = configpkg.Config
	Pipeline     = pipelinepkg.Pipeline
	Dependencies = pipelinepkg.Dependencies

	// Event model
	Event            = event.Event
	RequestID        = event.RequestID
	Category         = event.Category
	Note             = event.Note
	NoteKind         = event.NoteKind
	Detail           = event.Detail
	DetailKind       = event.DetailKind
	Fault            = event.Fault
	Outcome          = event.Outcome
	StatusDescriptor = event.StatusDescriptor

	// Handler registry
	HandlerID   = pipelinepkg.HandlerID
	HandlerInfo = pipelinepkg.HandlerInfo

	// Delivery hooks
	DeliveryContext = pipelinepkg.DeliveryContext
	DeliveryHooks   = pipelinepkg.DeliveryHooks

	LogFields = loggingpkg.LogFields
	Logger    = loggingpkg.Logger

	ConfigValidationError = errspkg.ConfigValidationError

	// Modular sink types (sink package structure)
	Sink             = sinkpkg.Sink
	SinkBuilder      = sinkpkg.Builder
	SinkConfig       = sinkpkg.Config
	SinkRegistry     = sinkpkg.Registry
	SinkCapabilities = sinkpkg.Capabilities
)

var (
	New            = pipelinepkg.New
	ValidateConfig = configpkg.ValidateConfig

	// Status descriptors and resolution
	Status         = event.Status
	Halt           = event.Halt
	Faulted        = event.Faulted
	Unavailable    = event.Unavailable
	Resolve        = event.Resolve
	ResolveChecked = event.ResolveChecked

	// Note constructors
	InfoNote   = event.InfoNote
	ErrorNote  = event.ErrorNote
	FaultNote  = event.FaultNote
	HaltNote   = event.HaltNote
	StreamNote = event.StreamNote
	FlagNote   = event.FlagNote

	// Delivery hooks
	LoggingHooks = pipelinepkg.LoggingHooks
	MetricsHooks = pipelinepkg.MetricsHooks

	// Modular sink registry (sink package structure)
	// Use RegisterSink and BuildSink to work with the modular sink packages.
	// Import individual sinks via: _ "github.com/tapward/logtap/sink/nats"
	DefaultSinkRegistry          = sinkpkg.DefaultRegistry
	RegisterSink                 = sinkpkg.Register
	RegisterSinkWithCapabilities = sinkpkg.RegisterWithCapabilities
	BuildSink                    = sinkpkg.Build

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrPipelineRequired = errspkg.ErrPipelineRequired
	ErrSinkRequired     = errspkg.ErrSinkRequired
	ErrSinkNameRequired = errspkg.ErrSinkNameRequired
	ErrConfigRequired   = errspkg.ErrConfigRequired
	ErrLoggerRequired   = errspkg.ErrLoggerRequired
	ErrPipelineClosed   = errspkg.ErrPipelineClosed
	ErrTopicRequired    = errspkg.ErrTopicRequired

	NewSlogLogger      = loggingpkg.NewSlogLogger
	NewWatermillLogger = loggingpkg.NewWatermillLogger

	CreateULID = idspkg.CreateULID
)

// Event categories.
const (
	CategoryAccess = event.CategoryAccess
	CategoryInfo   = event.CategoryInfo
	CategoryError  = event.CategoryError
)

// Metadata keys - use these constants for standard event metadata fields.
const (
	MetaRequestID     = event.MetaRequestID
	MetaSupplementary = event.MetaSupplementary
	MetaPostHoc       = event.MetaPostHoc
)

// Overflow policies for per-handler delivery queues.
const (
	OverflowDropOldest = configpkg.OverflowDropOldest
	OverflowDropNewest = configpkg.OverflowDropNewest
	OverflowBlock      = configpkg.OverflowBlock
)

// Canonical fallback statuses.
const (
	DefaultErrorStatus = event.DefaultErrorStatus
	UnavailableStatus  = event.UnavailableStatus
)
