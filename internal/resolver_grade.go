package internal

import (
	campus "github.com/lychee-technology/campus"
)

func newDeleteGrades(env mutationEnv) *deleteMutation[campus.Grade, *campus.Grade, campus.GradeNode] {
	return &deleteMutation[campus.Grade, *campus.Grade, campus.GradeNode]{
		DeleteVariant: DeleteVariant[*campus.Grade]{At: env.now},
		entity:        "Grade",
		permission:    campus.PermissionDeleteGrade,
		scope:         ownerScope[*campus.Grade],
		guard:         systemGuard[*campus.Grade]("Grade"),
		node:          campus.NewGradeNode,
	}
}
