package apiclient

// 远端动作名（?action=xxx）
const (
	ActionLogin                 = "login"
	ActionGetUser               = "getUser"
	ActionGetUsers              = "getUsers"
	ActionGetStores             = "getStores"
	ActionGetUserHistory        = "getUserHistory"
	ActionUpdateUserWithHistory = "updateUserWithHistory"
	ActionUpdatePersonalInfo    = "updatePersonalInfo"

	ActionGetPendingRegistrations = "getPendingRegistrations"
	ActionApproveRegistration     = "approveRegistration"

	ActionGetShiftAssignments  = "getShiftAssignments"
	ActionSaveShiftAssignments = "saveShiftAssignments"
	ActionAssignShift          = "assignShift"
	ActionGetWeeklyShifts      = "getWeeklyShifts"
	ActionGetCurrentShift      = "getCurrentShift"

	ActionGetAttendanceData       = "getAttendanceData"
	ActionGetTimesheet            = "getTimesheet"
	ActionGetAttendanceHistory    = "getAttendanceHistory"
	ActionProcessAttendance       = "processAttendance"
	ActionCreateAttendanceRequest = "createAttendanceRequest"

	ActionGetAttendanceRequests    = "getAttendanceRequests"
	ActionGetShiftRequests         = "getShiftRequests"
	ActionApproveAttendanceRequest = "approveAttendanceRequest"
	ActionRejectAttendanceRequest  = "rejectAttendanceRequest"
	ActionApproveShiftRequest      = "approveShiftRequest"
	ActionRejectShiftRequest       = "rejectShiftRequest"

	ActionGetTasks         = "getTasks"
	ActionCreateTask       = "createTask"
	ActionApproveTask      = "approveTask"
	ActionRejectTask       = "rejectTask"
	ActionGetApprovalTasks = "getApprovalTasks"
	ActionFinalApprove     = "finalApprove"
	ActionFinalReject      = "finalReject"
	ActionAddComment       = "addComment"
	ActionReplyToComment   = "replyToComment"

	ActionGetRewards = "getRewards"
	ActionAddReward  = "addReward"

	ActionGetDashboardStats = "getDashboardStats"
	ActionGetPersonalStats  = "getPersonalStats"
)
