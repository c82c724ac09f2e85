package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/room-booking/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// RoomServiceDeps captures dependencies for constructing a room service.
type RoomServiceDeps struct {
	Rooms    application.RoomRepository
	Schedule application.RoomSchedule
	Logger   *slog.Logger
}

// NewRoomService builds a room service on the factory's clock and IDs.
func (f *ServiceFactory) NewRoomService(deps RoomServiceDeps) *application.RoomService {
	return application.NewRoomServiceWithConfig(
		deps.Rooms,
		deps.Schedule,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		application.RoomServiceConfig{Logger: deps.Logger},
	)
}

// MeetingServiceDeps captures dependencies for constructing a meeting service.
type MeetingServiceDeps struct {
	Meetings application.MeetingRepository
	Rooms    application.RoomLookup
	Notifier application.Notifier
	Logger   *slog.Logger
}

// NewMeetingService builds a meeting service on the factory's clock and IDs.
func (f *ServiceFactory) NewMeetingService(deps MeetingServiceDeps) *application.MeetingService {
	return application.NewMeetingServiceWithConfig(
		deps.Meetings,
		deps.Rooms,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		application.MeetingServiceConfig{
			Notifier: deps.Notifier,
			Logger:   deps.Logger,
		},
	)
}
