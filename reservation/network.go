package reservation

import (
	"fmt"
	"time"
)

// PeerInfo describes one simulated peer in the reservation network.
// There is one peer per location code; no real networking happens.
type PeerInfo struct {
	Name               string `json:"name"`
	LocationCode       string `json:"location_code"`
	Status             string `json:"status"`
	Rooms              int    `json:"rooms"`
	ActiveReservations int    `json:"active_reservations"`
	LastSeen           int64  `json:"last_seen"`
}

// NetworkInfo summarizes the simulated peer network.
type NetworkInfo struct {
	Peers             []PeerInfo `json:"peers"`
	Channel           string     `json:"channel"`
	TotalPeers        int        `json:"total_peers"`
	TotalRooms        int        `json:"total_rooms"`
	TotalReservations int        `json:"total_reservations"`
	ConnectedUsers    int        `json:"connected_users"`
}

// NetworkInfo returns one connected peer per location code, each
// reporting the number of active reservations in its location.
func (s *Service) NetworkInfo() NetworkInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	roomsPerLocation := len(floors) * len(roomSuffixes)

	activeByLocation := make(map[string]int)
	totalActive := 0
	for _, r := range s.resList {
		if r.Status == StatusActive {
			activeByLocation[r.LocationCode]++
			totalActive++
		}
	}

	peers := make([]PeerInfo, 0, len(locationCodes))
	for _, code := range locationCodes {
		peers = append(peers, PeerInfo{
			Name:               fmt.Sprintf("peer0.block%s.university.com", code),
			LocationCode:       code,
			Status:             "connected",
			Rooms:              roomsPerLocation,
			ActiveReservations: activeByLocation[code],
			LastSeen:           now,
		})
	}

	return NetworkInfo{
		Peers:             peers,
		Channel:           "universitychannel",
		TotalPeers:        len(peers),
		TotalRooms:        len(s.rooms),
		TotalReservations: totalActive,
		ConnectedUsers:    len(s.users),
	}
}
