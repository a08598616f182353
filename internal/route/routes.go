// Package route wires handler.Server methods onto an http.ServeMux,
// grounded on the teacher's internal/route/routes.go SetupRoutes.
package route

import (
	"net/http"

	"webserver/internal/handler"
	"webserver/internal/logger"
	"webserver/internal/middleware"
)

// SetupRoutes registers every admin/query endpoint (§6) on a fresh mux
// and wraps it with request logging.
func SetupRoutes(s *handler.Server, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.Health)

	mux.HandleFunc("/zones", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			s.CreateZone(w, r)
		case http.MethodGet:
			s.ListZones(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/zones/", s.ZoneByID)

	mux.HandleFunc("/analyze", s.Analyze)
	mux.HandleFunc("/analyze-stream", s.AnalyzeStream)
	mux.HandleFunc("/background", s.SetBackground)
	mux.HandleFunc("/backgrounds/capture-all", s.CaptureAllBackgrounds)

	mux.HandleFunc("/occupancy", s.GetOccupancy)
	mux.HandleFunc("/frame/", s.Frame)
	mux.HandleFunc("/events", s.ListEvents)
	mux.HandleFunc("/events/stats", s.EventStats)
	mux.HandleFunc("/cameras", s.Cameras)

	mux.HandleFunc("/detection/modes", s.DetectionModes)
	mux.HandleFunc("/detection/mode", s.DetectionMode)

	mux.HandleFunc("/round-robin/start", s.RoundRobinStart)
	mux.HandleFunc("/round-robin/stop", s.RoundRobinStop)
	mux.HandleFunc("/round-robin/status", s.RoundRobinStatus)

	mux.HandleFunc("/live", s.Live)

	return middleware.Logging(mux, log)
}
