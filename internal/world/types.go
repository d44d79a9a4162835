// Package world holds the physical model of the galaxy: catalog entries,
// spacecraft with their cargo bays and damage systems, and sectors.
package world

// Stable identifiers. Every cross-entity reference in the simulation uses
// these rather than pointers so state can be saved and restored by key.
type (
	CompanyID    string
	SectorID     string
	SpacecraftID string
	FleetID      string
	ResourceID   string
	TechnologyID string
	ComponentID  string
)

// ResourceUse is how a spacecraft declares it handles a resource.
type ResourceUse uint8

const (
	UseDefault ResourceUse = iota
	UseFactoryInput
	UseFactoryOutput
	UseConsumerConsumption
	UseMaintenanceConsumption
)

var resourceUseNames = [...]string{"default", "factory_input", "factory_output", "consumer", "maintenance"}

func (u ResourceUse) String() string {
	if int(u) < len(resourceUseNames) {
		return resourceUseNames[u]
	}
	return "unknown"
}

// ResourceAmount pairs a resource with a quantity.
type ResourceAmount struct {
	Resource ResourceID `json:"resource" yaml:"resource"`
	Quantity int        `json:"quantity" yaml:"quantity"`
}
