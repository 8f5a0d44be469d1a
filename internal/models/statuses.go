package models

type RequestStatus string
type DistributionStatus string
type SubCategoryType string
type AuditEventType string

const (
	RequestStatusNew          RequestStatus = "new"
	RequestStatusDistributing RequestStatus = "distributing"
	RequestStatusInProgress   RequestStatus = "in_progress"
	RequestStatusNotActual    RequestStatus = "not_actual"
	RequestStatusExpired      RequestStatus = "expired"
	RequestStatusCompleted    RequestStatus = "completed"
	RequestStatusCancelled    RequestStatus = "cancelled"

	DistributionStatusPending  DistributionStatus = "pending"
	DistributionStatusAccepted DistributionStatus = "accepted"
	DistributionStatusRejected DistributionStatus = "rejected"
	DistributionStatusExpired  DistributionStatus = "expired"

	SubCategoryTypeBoolean SubCategoryType = "boolean"
	SubCategoryTypeEnum    SubCategoryType = "enum"
	SubCategoryTypeRange   SubCategoryType = "range"

	AuditEventCRMExport         AuditEventType = "crm_export"
	AuditEventDecryptionFailure AuditEventType = "decryption_failure"
)

// Таблицы переходов. Статус без исходящих переходов - терминальный.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusNew:          {RequestStatusDistributing, RequestStatusCancelled},
	RequestStatusDistributing: {RequestStatusInProgress, RequestStatusNotActual, RequestStatusExpired, RequestStatusCompleted, RequestStatusCancelled},
	RequestStatusNotActual:    {RequestStatusDistributing, RequestStatusExpired, RequestStatusCancelled},
	RequestStatusInProgress:   {RequestStatusCompleted, RequestStatusCancelled},
}

var distributionTransitions = map[DistributionStatus][]DistributionStatus{
	DistributionStatusPending: {DistributionStatusAccepted, DistributionStatusRejected, DistributionStatusExpired},
}

func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s RequestStatus) IsTerminal() bool {
	return len(requestTransitions[s]) == 0
}

func (s DistributionStatus) CanTransitionTo(next DistributionStatus) bool {
	for _, allowed := range distributionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s DistributionStatus) IsTerminal() bool {
	return len(distributionTransitions[s]) == 0
}
