package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/internal/config"
	"github.com/railswift/booking-backend/internal/database"
	"github.com/railswift/booking-backend/internal/models"
)

type routePoint struct {
	Lat float64
	Lon float64
}

// trainSim is the per-train simulation state owned by the service registry.
type trainSim struct {
	route  []routePoint
	cancel context.CancelFunc
}

// LivePositionService owns all live simulation state: a registry of active
// per-train tickers and a cache of precomputed routes. Constructed once at
// process start; losing the registry on restart just means simulations
// restart on the next scan.
type LivePositionService struct {
	trainRepo *database.TrainRepository
	posRepo   *database.LivePositionRepository
	redis     *redis.Client
	config    *config.SimulatorConfig
	logger    *logrus.Logger

	mu     sync.Mutex
	active map[int64]*trainSim

	routesMu sync.Mutex
	routes   map[int64][]routePoint
}

// NewLivePositionService creates a new LivePositionService. The redis client
// may be nil; position broadcasting is then disabled and only the snapshot
// table is written.
func NewLivePositionService(
	trainRepo *database.TrainRepository,
	posRepo *database.LivePositionRepository,
	redisClient *redis.Client,
	cfg *config.SimulatorConfig,
	logger *logrus.Logger,
) *LivePositionService {
	return &LivePositionService{
		trainRepo: trainRepo,
		posRepo:   posRepo,
		redis:     redisClient,
		config:    cfg,
		logger:    logger,
		active:    make(map[int64]*trainSim),
		routes:    make(map[int64][]routePoint),
	}
}

// Scan starts a simulation for every train currently RUNNING that has none
// yet. Invoked periodically by the cron scheduler.
func (s *LivePositionService) Scan() {
	trains, err := s.trainRepo.List()
	if err != nil {
		s.logger.WithError(err).Error("Simulator scan failed to list trains")
		return
	}

	now := time.Now()
	for i := range trains {
		train := &trains[i]
		window := ResolveWindow(now, train.DepartureTime, train.ArrivalTime, train.DelayMinutes)
		if window == nil {
			continue
		}
		if DeriveStatus(now, window) != models.RunRunning {
			continue
		}
		s.StartSimulation(train)
	}
}

// StartSimulation begins ticking for a train. No-op if already active.
func (s *LivePositionService) StartSimulation(train *models.Train) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, running := s.active[train.ID]; running {
		return
	}

	route := s.routeFor(train)
	ctx, cancel := context.WithCancel(context.Background())
	s.active[train.ID] = &trainSim{route: route, cancel: cancel}

	go s.run(ctx, train.ID, route)

	s.logger.WithFields(logrus.Fields{
		"train_id": train.ID,
		"name":     train.Name,
	}).Info("Live-position simulation started")
}

// StopSimulation cancels an active simulation. No-op if none is running.
func (s *LivePositionService) StopSimulation(trainID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sim, ok := s.active[trainID]; ok {
		sim.cancel()
		delete(s.active, trainID)
		s.logger.WithField("train_id", trainID).Info("Live-position simulation stopped")
	}
}

// StopAll cancels every active simulation. Called on shutdown.
func (s *LivePositionService) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sim := range s.active {
		sim.cancel()
		delete(s.active, id)
	}
}

// ActiveCount returns the number of running simulations
func (s *LivePositionService) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// run is the per-train tick loop. The train row is re-read on every tick so
// an operator delay injection takes effect mid-flight without a restart.
func (s *LivePositionService) run(ctx context.Context, trainID int64, route []routePoint) {
	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done := s.tick(trainID, route, time.Now()); done {
				s.StopSimulation(trainID)
				return
			}
		}
	}
}

// tick computes and publishes one snapshot. Returns true once the run is
// complete and the loop should stop.
func (s *LivePositionService) tick(trainID int64, route []routePoint, now time.Time) bool {
	train, err := s.trainRepo.GetByID(trainID)
	if err != nil || train == nil {
		s.logger.WithField("train_id", trainID).Error("Simulator tick failed to reload train")
		return true
	}

	window := ResolveWindow(now, train.DepartureTime, train.ArrivalTime, train.DelayMinutes)
	if window == nil {
		return true
	}

	progress := DeriveProgress(now, window)
	lat, lon, heading := interpolateRoute(route, progress)
	speed := averageSpeedKmh(route, window)
	if progress >= 1.0 {
		speed = 0
	}

	snap := &models.LivePositionSnapshot{
		TrainID:    trainID,
		Latitude:   lat,
		Longitude:  lon,
		SpeedKmh:   speed,
		HeadingDeg: heading,
		Progress:   progress,
		RecordedAt: now,
	}
	if err := s.posRepo.Upsert(snap); err != nil {
		s.logger.WithField("train_id", trainID).WithError(err).Error("Failed to write live position snapshot")
	}
	s.broadcast(snap)

	return progress >= 1.0
}

// GetLiveLocation serves the passenger-facing position query. When the
// schedule cannot be resolved the response degrades to the raw last-known
// snapshot coordinates with its stored progress.
func (s *LivePositionService) GetLiveLocation(trainID int64, now time.Time) (*models.LiveLocationResponse, error) {
	train, err := s.trainRepo.GetByID(trainID)
	if err != nil {
		return nil, err
	}
	if train == nil {
		return nil, models.ErrTrainNotFound
	}

	snap, err := s.posRepo.GetByTrainID(trainID)
	if err != nil {
		return nil, err
	}

	window := ResolveWindow(now, train.DepartureTime, train.ArrivalTime, train.DelayMinutes)
	if window == nil {
		resp := &models.LiveLocationResponse{
			TrainID:    trainID,
			Status:     models.RunNotStarted,
			Degraded:   true,
			ServerTime: now,
		}
		if snap != nil {
			resp.Latitude = snap.Latitude
			resp.Longitude = snap.Longitude
			resp.Progress = snap.Progress
			resp.SpeedKmh = snap.SpeedKmh
			resp.HeadingDeg = snap.HeadingDeg
			if snap.Progress > 0 && snap.Progress < 1 {
				resp.Status = models.RunRunning
			} else if snap.Progress >= 1 {
				resp.Status = models.RunArrived
			}
		}
		return resp, nil
	}

	status := DeriveStatus(now, window)
	progress := DeriveProgress(now, window)
	route := s.routeFor(train)
	lat, lon, heading := interpolateRoute(route, progress)

	resp := &models.LiveLocationResponse{
		TrainID:    trainID,
		Status:     status,
		Progress:   progress,
		Latitude:   lat,
		Longitude:  lon,
		HeadingDeg: heading,
		ServerTime: now,
	}
	if status == models.RunRunning {
		resp.SpeedKmh = averageSpeedKmh(route, window)
	}
	if snap != nil && status == models.RunRunning {
		// Prefer the simulator's actual last write when it is fresh
		if now.Sub(snap.RecordedAt) < 30*time.Second {
			resp.Latitude = snap.Latitude
			resp.Longitude = snap.Longitude
			resp.SpeedKmh = snap.SpeedKmh
			resp.HeadingDeg = snap.HeadingDeg
		}
	}
	return resp, nil
}

func (s *LivePositionService) broadcast(snap *models.LivePositionSnapshot) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	channel := fmt.Sprintf("train.live.%d", snap.TrainID)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.redis.Publish(ctx, channel, payload).Err(); err != nil {
		s.logger.WithField("channel", channel).WithError(err).Warn("Failed to publish live position")
	}
}

// routeFor returns the cached perturbed route for a train, building it on
// first use.
func (s *LivePositionService) routeFor(train *models.Train) []routePoint {
	s.routesMu.Lock()
	defer s.routesMu.Unlock()
	if route, ok := s.routes[train.ID]; ok {
		return route
	}
	route := buildRoute(train, s.config.RoutePoints)
	s.routes[train.ID] = route
	return route
}

// buildRoute precomputes intermediate points between source and destination
// with a small deterministic perturbation so the track curves instead of
// being a straight line. Seeded from the train id: the same train always
// gets the same track.
func buildRoute(train *models.Train, points int) []routePoint {
	if points < 2 {
		points = 2
	}
	route := make([]routePoint, points)
	seed := float64(train.ID)

	dLat := train.DestLat - train.SourceLat
	dLon := train.DestLon - train.SourceLon
	span := math.Hypot(dLat, dLon)

	for i := 0; i < points; i++ {
		f := float64(i) / float64(points-1)
		lat := train.SourceLat + dLat*f
		lon := train.SourceLon + dLon*f

		// Zero perturbation at the endpoints so the track pins to the stations
		wave := math.Sin(f*math.Pi) * math.Sin(f*7*math.Pi+seed)
		offset := wave * span * 0.03
		// Push perpendicular to the direction of travel
		if span > 0 {
			lat += offset * (-dLon / span)
			lon += offset * (dLat / span)
		}

		route[i] = routePoint{Lat: lat, Lon: lon}
	}
	return route
}

// interpolateRoute maps a progress fraction onto the route polyline and
// returns position plus bearing toward the next point.
func interpolateRoute(route []routePoint, progress float64) (lat, lon, heading float64) {
	if len(route) == 0 {
		return 0, 0, 0
	}
	if progress <= 0 {
		p := route[0]
		return p.Lat, p.Lon, bearing(route[0], route[min(1, len(route)-1)])
	}
	if progress >= 1 {
		p := route[len(route)-1]
		return p.Lat, p.Lon, bearing(route[max(0, len(route)-2)], p)
	}

	scaled := progress * float64(len(route)-1)
	idx := int(scaled)
	frac := scaled - float64(idx)
	a, b := route[idx], route[idx+1]

	lat = a.Lat + (b.Lat-a.Lat)*frac
	lon = a.Lon + (b.Lon-a.Lon)*frac
	return lat, lon, bearing(a, b)
}

// bearing computes the initial great-circle bearing from a to b in degrees
func bearing(a, b routePoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// averageSpeedKmh is route length divided by the scheduled window duration
func averageSpeedKmh(route []routePoint, window *ScheduleWindow) float64 {
	if len(route) < 2 {
		return 0
	}
	var km float64
	for i := 1; i < len(route); i++ {
		km += haversineKm(route[i-1], route[i])
	}
	hours := window.Arrival.Sub(window.Departure).Hours()
	if hours <= 0 {
		return 0
	}
	return km / hours
}

// haversineKm is the great-circle distance between two points in kilometers
func haversineKm(a, b routePoint) float64 {
	const earthRadiusKm = 6371.0
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
