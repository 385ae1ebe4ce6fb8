package domain

// SubjectType differentiates customer vs staff tokens.
type SubjectType string

const (
	SubjectTypeCustomer SubjectType = "CUSTOMER"
	SubjectTypeStaff    SubjectType = "STAFF"
)

// Account is the authenticated store account on whose behalf a customer
// request runs. It is resolved at the transport boundary and threaded into
// every service call; business logic never reaches for ambient session state.
type Account struct {
	ID          string
	Email       string
	DisplayName string
}

// StaffRole enumerates admin-console operator roles.
type StaffRole string

const (
	StaffRoleAgent StaffRole = "AGENT"
	StaffRoleAdmin StaffRole = "ADMIN"
)

// StaffPrincipal models an authenticated support operator. Staff access to
// tickets is unrestricted; the role only gates console endpoints.
type StaffPrincipal struct {
	ID          string
	Email       string
	DisplayName string
	Role        StaffRole
}
