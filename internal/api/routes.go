package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/about"

	DecideRoute = "/v1/decisions"

	WebhookRoute = "/v1/webhooks/github"

	AdminParent  = "/v1/admin/"
	AuditsRoute  = AdminParent + "audits"
	ExplainRoute = AdminParent + "explain"

	HistoryRoute       = AdminParent + "history"
	HistorySearchRoute = HistoryRoute + "/search"

	TaskParent       = AdminParent + "tasks"
	ListTasksRoute   = TaskParent
	TriggerTaskRoute = TaskParent + "/{name}/trigger"
	LogsForTaskRoute = TaskParent + "/{name}/logs"
)
