package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// components maps a pipeline component (coco, server, config) to its logger.
var components = struct {
	sync.RWMutex
	byName map[string]*Logger
}{byName: make(map[string]*Logger)}

// Register installs l as the logger of component name.
func Register(name string, l *Logger) {
	components.Lock()
	defer components.Unlock()
	components.byName[name] = l
}

// Get returns the logger of component name. A component that was never
// registered logs through the global logger, tagged with its name.
func Get(name string) *Logger {
	components.RLock()
	l, ok := components.byName[name]
	components.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterComponents derives each named component logger from the global
// logger, applying the level cfg.Components gives it, if any.
func RegisterComponents(cfg Config, names ...string) {
	base := GetGlobalLogger()
	for _, name := range names {
		l := base.WithComponent(name)
		if lvl := cfg.Components[name]; lvl != "" {
			if level, err := zerolog.ParseLevel(lvl); err == nil {
				l = l.WithLevel(level)
			}
		}
		Register(name, l)
	}
}
