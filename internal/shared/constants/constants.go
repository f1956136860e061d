package constants

const (
	// Default pagination
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// HTTP Headers
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderInternalToken = "X-Internal-Token"

	// Context keys
	ContextKeyUserID   = "user_id"
	ContextKeyUserRole = "user_role"

	// Database table names
	TablePlanGroups    = "plan_groups"
	TablePlans         = "plans"
	TablePlanNodes     = "plan_nodes"
	TableOrders        = "orders"
	TableEntitlements  = "entitlements"
	TableNodes         = "nodes"
	TableNodeTraffic   = "node_traffic"
	TableUsers         = "users"
	TableUserClients   = "user_clients"
	TableSigninRecords = "signin_records"
	TableSettings      = "settings"
)
