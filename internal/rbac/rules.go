package rbac

const (
	RoleLearner = "learner"
	RoleAdmin   = "admin"
)

const (
	PermPageView      = "page:view"
	PermCheckAnswer   = "check:answer"
	PermQuizAnswer    = "quiz:answer"
	PermExamAttempt   = "exam:attempt"
	PermCatalogReload = "catalog:reload"
)

// Default policy. Admins can do everything a learner can.
var RolePermissions = map[string][]string{
	RoleLearner: {
		PermPageView,
		PermCheckAnswer,
		PermQuizAnswer,
		PermExamAttempt,
	},
	RoleAdmin: {
		"*",
	},
}
