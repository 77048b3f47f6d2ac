package reservation

import "fmt"

// Room is an entry in the fixed room catalog.
type Room struct {
	LocationCode string `json:"location_code"`
	Floor        string `json:"floor"`
	Number       string `json:"number"`
	FullName     string `json:"full_name"`
}

var (
	locationCodes = []string{"33", "34", "35"}
	floors        = []string{"1", "2", "3"}
	roomSuffixes  = []string{"00", "01", "02", "03", "04"}
)

// generateRooms builds the full catalog: five rooms per floor, three
// floors per location, three locations. Room numbers are the floor
// digit followed by the suffix, e.g. room "302" on floor 3.
func generateRooms() []Room {
	rooms := make([]Room, 0, len(locationCodes)*len(floors)*len(roomSuffixes))
	for _, code := range locationCodes {
		for _, floor := range floors {
			for _, suffix := range roomSuffixes {
				number := floor + suffix
				rooms = append(rooms, Room{
					LocationCode: code,
					Floor:        floor,
					Number:       number,
					FullName:     fmt.Sprintf("Block %s - Room %s", code, number),
				})
			}
		}
	}
	return rooms
}
