package enums

import "fmt"

// AuditAggregateType maps to the aggregate_type column on outbox_events.
type AuditAggregateType string

const (
	AuditAggregateAccount AuditAggregateType = "account"
	AuditAggregateStation AuditAggregateType = "station"
	AuditAggregateVehicle AuditAggregateType = "vehicle"
	AuditAggregateDriver  AuditAggregateType = "driver"
	AuditAggregateReport  AuditAggregateType = "report"
	AuditAggregateMember  AuditAggregateType = "member"
)

var validAuditAggregateTypes = []AuditAggregateType{
	AuditAggregateAccount,
	AuditAggregateStation,
	AuditAggregateVehicle,
	AuditAggregateDriver,
	AuditAggregateReport,
	AuditAggregateMember,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a AuditAggregateType) IsValid() bool {
	for _, candidate := range validAuditAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// AuditEventType maps to the event_type column on outbox_events.
type AuditEventType string

const (
	AuditEventUserRegistered         AuditEventType = "user_registered"
	AuditEventUserLoggedIn           AuditEventType = "user_logged_in"
	AuditEventProfileUpdated         AuditEventType = "profile_updated"
	AuditEventPasswordResetRequested AuditEventType = "password_reset_requested"
	AuditEventStationCreated         AuditEventType = "station_created"
	AuditEventStationUpdated         AuditEventType = "station_updated"
	AuditEventStationDeleted         AuditEventType = "station_deleted"
	AuditEventVehicleCreated         AuditEventType = "vehicle_created"
	AuditEventVehicleUpdated         AuditEventType = "vehicle_updated"
	AuditEventVehicleDeleted         AuditEventType = "vehicle_deleted"
	AuditEventDriverCreated          AuditEventType = "driver_created"
	AuditEventDriverUpdated          AuditEventType = "driver_updated"
	AuditEventDriverDeleted          AuditEventType = "driver_deleted"
	AuditEventReportFiled            AuditEventType = "report_filed"
	AuditEventReportUpdated          AuditEventType = "report_updated"
	AuditEventMemberCreated          AuditEventType = "member_created"
	AuditEventMemberUpdated          AuditEventType = "member_updated"
	AuditEventMemberDeleted          AuditEventType = "member_deleted"
)

var validAuditEventTypes = []AuditEventType{
	AuditEventUserRegistered,
	AuditEventUserLoggedIn,
	AuditEventProfileUpdated,
	AuditEventPasswordResetRequested,
	AuditEventStationCreated,
	AuditEventStationUpdated,
	AuditEventStationDeleted,
	AuditEventVehicleCreated,
	AuditEventVehicleUpdated,
	AuditEventVehicleDeleted,
	AuditEventDriverCreated,
	AuditEventDriverUpdated,
	AuditEventDriverDeleted,
	AuditEventReportFiled,
	AuditEventReportUpdated,
	AuditEventMemberCreated,
	AuditEventMemberUpdated,
	AuditEventMemberDeleted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e AuditEventType) IsValid() bool {
	for _, candidate := range validAuditEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseAuditEventType converts raw input into an AuditEventType.
func ParseAuditEventType(value string) (AuditEventType, error) {
	for _, candidate := range validAuditEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit event type %q", value)
}
