package services

// ServiceContainer aggregates the service facades handed to the HTTP layer
// and the scheduler.
type ServiceContainer struct {
	Transfer   TransferSvcFacade
	Balance    BalanceSvcFacade
	Webhook    WebhookSvcFacade
	Commission CommissionSvcFacade
	Audit      AuditSvcFacade
}
