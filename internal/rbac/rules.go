package rbac

// Default policy. Students sit exams and read their own results; tutors
// author exams, grade, and read everything.
var RolePermissions = map[string][]string{
	"student": {
		"exam:list",
		"exam:view",
		"session:take",
		"submission:view-own",
	},
	"tutor": {
		"exam:list",
		"exam:view",
		"exam:create",
		"exam:edit",
		"submission:view-all",
		"submission:grade",
		"analytics:view",
		"users:list",
		"users:bulk_upsert",
	},
	"admin": {
		"*", // everything
	},
}
