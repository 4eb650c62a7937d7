package state

import (
	"sync"

	"github.com/dooshek/livecomp/internal/compressor"
	"github.com/dooshek/livecomp/internal/types"
)

var (
	once     sync.Once
	instance *AppState
)

// AppState is the process-wide configuration resolved at startup
type AppState struct {
	Config *types.Config
	Params compressor.Params
}

func Init(cfg *types.Config, params compressor.Params) {
	once.Do(func() {
		instance = &AppState{
			Config: cfg,
			Params: params,
		}
	})
}

func Get() *AppState {
	if instance == nil {
		panic("AppState not initialized")
	}
	return instance
}

func (s *AppState) GetStreamConfig() types.StreamConfig {
	return s.Config.GetStreamConfig()
}

func (s *AppState) GetMode() compressor.Mode {
	return s.Params.Mode
}
