package ws

import (
	"sync"
	"time"
)

// MapMarker is a fuzzed user location for the nearby-users map.
type MapMarker struct {
	UserID    uint    `json:"user_id"`
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	IsOnline  bool    `json:"is_online"`
	UpdatedAt int64   `json:"updated_at"`
}

// MapHub streams fuzzed user locations to map viewers.
type MapHub struct {
	*Hub
	mu      sync.RWMutex
	markers map[uint]MapMarker
}

func NewMapHub() *MapHub {
	return &MapHub{
		Hub:     NewHub(),
		markers: make(map[uint]MapMarker),
	}
}

// UpdateLocation is called when a user's location changes (already fuzzed
// by the caller) and broadcasts the marker to all viewers.
func (m *MapHub) UpdateLocation(userID uint, name string, lat, lng float64, isOnline bool) {
	marker := MapMarker{
		UserID:    userID,
		Name:      name,
		Lat:       lat,
		Lng:       lng,
		IsOnline:  isOnline,
		UpdatedAt: time.Now().Unix(),
	}
	m.mu.Lock()
	m.markers[userID] = marker
	m.mu.Unlock()
	m.BroadcastAll(map[string]interface{}{"type": "marker", "marker": marker})
}

// RemoveMarker drops a user from the map (logout or location cleared).
func (m *MapHub) RemoveMarker(userID uint) {
	m.mu.Lock()
	delete(m.markers, userID)
	m.mu.Unlock()
	m.BroadcastAll(map[string]interface{}{"type": "marker_removed", "user_id": userID})
}

// GetMarkers returns current markers for online users (initial map load).
func (m *MapHub) GetMarkers() []MapMarker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]MapMarker, 0, len(m.markers))
	for _, v := range m.markers {
		if v.IsOnline {
			list = append(list, v)
		}
	}
	return list
}
