package enums

import "fmt"

// StationType classifies a managed station.
type StationType string

const (
	StationTypeCharging  StationType = "charging"
	StationTypeService   StationType = "service"
	StationTypeParking   StationType = "parking"
	StationTypeDispatch  StationType = "dispatch"
	StationTypeWarehouse StationType = "warehouse"
)

var validStationTypes = []StationType{
	StationTypeCharging,
	StationTypeService,
	StationTypeParking,
	StationTypeDispatch,
	StationTypeWarehouse,
}

// String implements fmt.Stringer.
func (s StationType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StationType.
func (s StationType) IsValid() bool {
	for _, candidate := range validStationTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStationType converts raw input into a StationType.
func ParseStationType(value string) (StationType, error) {
	for _, candidate := range validStationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid station type %q", value)
}

// StationStatus captures the operational state of a station.
type StationStatus string

const (
	StationStatusActive      StationStatus = "active"
	StationStatusMaintenance StationStatus = "maintenance"
	StationStatusClosed      StationStatus = "closed"
)

var validStationStatuses = []StationStatus{
	StationStatusActive,
	StationStatusMaintenance,
	StationStatusClosed,
}

// String implements fmt.Stringer.
func (s StationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StationStatus.
func (s StationStatus) IsValid() bool {
	for _, candidate := range validStationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStationStatus converts raw input into a StationStatus.
func ParseStationStatus(value string) (StationStatus, error) {
	for _, candidate := range validStationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid station status %q", value)
}
