package handler

type ContextKey string

var (
	SubCtxKey        ContextKey = "sub"
	MyInfoCtx        ContextKey = "myInfo"
	OrganizationCtx  ContextKey = "organization"
	MembershipCtx    ContextKey = "membership"
	ShiftCtx         ContextKey = "shift"
	ShiftTemplateCtx ContextKey = "shiftTemplate"
)
