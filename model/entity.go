package model

// EntityKind classifies a normalized entity within a destination hierarchy.
type EntityKind string

const (
	KindDestination EntityKind = "DESTINATION"
	KindPark        EntityKind = "PARK"
	KindAttraction  EntityKind = "ATTRACTION"
	KindShow        EntityKind = "SHOW"
	KindRestaurant  EntityKind = "RESTAURANT"
)

// Entity is one normalized record in the common schema: a destination, park,
// attraction, show or restaurant. ParentID and DestinationID are resolved by
// the driver when a connector leaves them empty.
type Entity struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Kind          EntityKind `json:"entityType"`
	ParentID      string     `json:"parentId,omitempty"`
	DestinationID string     `json:"destinationId,omitempty"`
	Timezone      string     `json:"timezone,omitempty"`
	Location      *Location  `json:"location,omitempty"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
