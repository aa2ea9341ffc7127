package driver

import "github.com/openparks/gondola/model"

// resolveHierarchy fills DestinationID and ParentID on entities the
// connector left unparented. Parks hang off the destination; other children
// default to the single park when there is exactly one, otherwise to the
// destination.
func resolveHierarchy(dest *model.Entity, parks []model.Entity, childGroups ...[]model.Entity) {
	dest.Kind = model.KindDestination
	dest.DestinationID = dest.ID
	dest.ParentID = ""

	for i := range parks {
		parks[i].DestinationID = dest.ID
		if parks[i].ParentID == "" {
			parks[i].ParentID = dest.ID
		}
	}

	defaultParent := dest.ID
	if len(parks) == 1 {
		defaultParent = parks[0].ID
	}

	for _, group := range childGroups {
		for i := range group {
			group[i].DestinationID = dest.ID
			if group[i].ParentID == "" {
				group[i].ParentID = defaultParent
			}
		}
	}
}
