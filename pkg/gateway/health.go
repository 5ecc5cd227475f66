package gateway

import (
	"net/http"
	"time"

	"github.com/hgm-king/ostrich-api/pkg/provider"
)

// health reports aggregate liveness. The endpoint answering at all means the
// gateway is alive, so it always returns 200; whether the identity provider
// is reachable is carried in the body, computed fresh per request.
func (s *service) health(r *http.Request) (int, any, error) {
	status := provider.HealthStatus{
		ProviderReachable: true,
		Timestamp:         time.Now().UTC(),
	}

	if err := s.provider.HealthCheck(r.Context()); err != nil {
		s.log.WithError(err).Warn("Identity provider unreachable")
		status.ProviderReachable = false
	}

	return http.StatusOK, status, nil
}
