package services

// ServiceContainer собирает все сервисы для передачи в хэндлеры и
// планировщик.
type ServiceContainer struct {
	UserService       UserService
	ReferenceService  ReferenceService
	RequestService    RequestService
	MatchingService   MatchingService
	AllocationService AllocationService
	LifecycleService  LifecycleService
}
