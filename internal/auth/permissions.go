package auth

// Capability keys checked by the services. Each company owns its own
// Permission rows carrying these names.
const (
	PermCreatePermission = "create_permission"
	PermUpdatePermission = "update_permission"
	PermDeletePermission = "delete_permission"

	PermCreateRole           = "create_role"
	PermDeleteRole           = "delete_role"
	PermAssignRole           = "assign_role"
	PermCreateRolePermission = "create_role_permission"
	PermDeleteRolePermission = "delete_role_permission"

	PermCreateOtherLeaveRequest = "create_other_leave_request"
	PermUpdateOtherLeaveRequest = "update_other_leave_request"
	PermDeleteOtherLeaveRequest = "delete_other_leave_request"
	PermViewOtherLeaveRequest   = "view_other_leave_request"
	PermApproveLeaveRequest     = "approve_leave_request"

	PermCreateOtherTimesheet      = "create_other_timesheet"
	PermViewOtherTimesheet        = "view_other_timesheet"
	PermCreateOtherTimesheetEntry = "create_other_timesheet_entry"
	PermUpdateOtherTimesheetEntry = "update_other_timesheet_entry"
	PermDeleteOtherTimesheetEntry = "delete_other_timesheet_entry"
	PermSubmitOtherTimesheetEntry = "submit_other_timesheet_entry"
	PermViewOtherTimesheetEntry   = "view_other_timesheet_entry"
	PermApproveTimesheetEntry     = "approve_timesheet_entry"
	PermRejectTimesheetEntry      = "reject_timesheet_entry"
	PermInvoiceTimesheetEntry     = "invoice_timesheet_entry"

	PermManageActionCodes  = "manage_action_codes"
	PermRevokeOtherSession = "revoke_other_session"
	PermViewOtherUser      = "view_other_user"
	PermAnonymizeUser      = "anonymize_user"
)

type PermissionDefinition struct {
	Name        string
	Description string
}

// DefaultPermissions is the catalogue seeded into new companies.
func DefaultPermissions() []PermissionDefinition {
	return []PermissionDefinition{
		{PermCreatePermission, "Create permissions"},
		{PermUpdatePermission, "Rename or describe permissions"},
		{PermDeletePermission, "Delete permissions"},
		{PermCreateRole, "Create roles"},
		{PermDeleteRole, "Delete roles"},
		{PermAssignRole, "Assign roles to users"},
		{PermCreateRolePermission, "Grant permissions to roles"},
		{PermDeleteRolePermission, "Revoke permissions from roles"},
		{PermCreateOtherLeaveRequest, "File leave on behalf of other users"},
		{PermUpdateOtherLeaveRequest, "Edit other users' leave requests"},
		{PermDeleteOtherLeaveRequest, "Delete other users' leave requests"},
		{PermViewOtherLeaveRequest, "View other users' leave requests"},
		{PermApproveLeaveRequest, "Approve or reject leave requests"},
		{PermCreateOtherTimesheet, "Open timesheets for other users"},
		{PermViewOtherTimesheet, "View other users' timesheets"},
		{PermCreateOtherTimesheetEntry, "Log time for other users"},
		{PermUpdateOtherTimesheetEntry, "Edit other users' draft entries"},
		{PermDeleteOtherTimesheetEntry, "Delete other users' draft entries"},
		{PermSubmitOtherTimesheetEntry, "Submit other users' entries"},
		{PermViewOtherTimesheetEntry, "View other users' entries"},
		{PermApproveTimesheetEntry, "Approve submitted entries"},
		{PermRejectTimesheetEntry, "Reject submitted entries"},
		{PermInvoiceTimesheetEntry, "Mark approved entries as invoiced"},
		{PermManageActionCodes, "Manage action codes and categories"},
		{PermRevokeOtherSession, "Revoke other users' sessions"},
		{PermViewOtherUser, "View other users' profiles"},
		{PermAnonymizeUser, "Anonymize users"},
	}
}
