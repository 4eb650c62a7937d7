package dbus

import (
	"fmt"
	"sync"

	"github.com/dooshek/livecomp/internal/logger"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	dbusServiceName = "com.dooshek.livecomp"
	dbusObjectPath  = "/com/dooshek/livecomp/Compressor"
	dbusInterface   = "com.dooshek.livecomp.Compressor"
)

// GainSource reports the most recently published compressor gain
type GainSource interface {
	Gain() float32
}

// StatsSource renders session statistics as JSON
type StatsSource interface {
	JSON() (string, error)
}

// Server implements the D-Bus control surface of a running compressor
type Server struct {
	conn   *dbus.Conn
	gain   GainSource
	stats  StatsSource
	stopFn func()

	mu      sync.Mutex
	stopped bool
}

// NewServer creates a D-Bus server. stop is called at most once, when a
// client invokes the Stop method.
func NewServer(gain GainSource, stats StatsSource, stop func()) *Server {
	return &Server{
		gain:   gain,
		stats:  stats,
		stopFn: stop,
	}
}

// Start connects to the session bus and exports the compressor object
func (s *Server) Start() error {
	var err error
	s.conn, err = dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	reply, err := s.conn.RequestName(dbusServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		s.conn.Close()
		return fmt.Errorf("name %s already taken", dbusServiceName)
	}

	if err := s.conn.Export(&compressorObject{s}, dbusObjectPath, dbusInterface); err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to export object: %w", err)
	}

	if err := s.conn.Export(introspect.NewIntrospectable(introspectNode()), dbusObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		s.conn.Close()
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	logger.Infof("🔌 D-Bus service started: %s", dbusServiceName)
	return nil
}

// Close releases the bus connection
func (s *Server) Close() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	logger.Infof("🔌 D-Bus service stopped")
}

// StreamStarted emits the StreamStarted signal
func (s *Server) StreamStarted() {
	s.emitSignal("StreamStarted")
}

// StreamStopped emits the StreamStopped signal
func (s *Server) StreamStopped() {
	s.emitSignal("StreamStopped")
}

func (s *Server) requestStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	if s.stopFn != nil {
		s.stopFn()
	}
}

func (s *Server) emitSignal(name string, args ...interface{}) {
	if s.conn == nil {
		logger.Debugf("D-Bus: not connected, skipping signal %s", name)
		return
	}

	err := s.conn.Emit(dbus.ObjectPath(dbusObjectPath), dbusInterface+"."+name, args...)
	if err != nil {
		logger.Errorf("D-Bus: Failed to emit signal %s", err, name)
	} else {
		logger.Debugf("D-Bus: Emitted signal: %s", name)
	}
}

// compressorObject carries the exported method set, which would otherwise
// collide with the Server lifecycle methods.
type compressorObject struct {
	s *Server
}

// Stop ends the running stream (D-Bus method)
func (o *compressorObject) Stop() *dbus.Error {
	logger.Debugf("D-Bus: Stop called")
	o.s.requestStop()
	return nil
}

// GetGain returns the current smoothed gain (D-Bus method)
func (o *compressorObject) GetGain() (float64, *dbus.Error) {
	return float64(o.s.gain.Gain()), nil
}

// GetStats returns the session statistics as JSON (D-Bus method)
func (o *compressorObject) GetStats() (string, *dbus.Error) {
	data, err := o.s.stats.JSON()
	if err != nil {
		logger.Errorf("D-Bus: GetStats failed", err)
		return "", dbus.MakeFailedError(err)
	}
	return data, nil
}

func introspectNode() *introspect.Node {
	return &introspect.Node{
		Name: dbusObjectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: dbusInterface,
				Methods: []introspect.Method{
					{Name: "Stop"},
					{
						Name: "GetGain",
						Args: []introspect.Arg{
							{Name: "gain", Type: "d", Direction: "out"},
						},
					},
					{
						Name: "GetStats",
						Args: []introspect.Arg{
							{Name: "stats", Type: "s", Direction: "out"},
						},
					},
				},
				Signals: []introspect.Signal{
					{Name: "StreamStarted"},
					{Name: "StreamStopped"},
				},
			},
		},
	}
}
