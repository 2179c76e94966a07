package realtime

import (
	"log/slog"

	"github.com/google/wire"

	"nebulachat/config"
)

// ProvideBroker is a Wire provider function that creates the configured Broker
func ProvideBroker(cfg *config.Config) (Broker, func(), error) {
	var (
		broker Broker
		err    error
	)
	switch cfg.RealtimeDriver {
	case config.RealtimeDriverNats:
		broker, err = NewNatsBroker(cfg.NatsURL, cfg.NatsSubjectPrefix)
		if err != nil {
			return nil, nil, err
		}
	default:
		broker = NewMemoryBroker()
	}

	cleanup := func() {
		if err := broker.Close(); err != nil {
			slog.Error("Error closing realtime broker", "error", err)
		}
	}
	return broker, cleanup, nil
}

var Set = wire.NewSet(ProvideBroker)
