package user

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAccountant Role = "accountant"
	RoleField      Role = "field"
)

// User is a back-office or field user. AllowedMenuIDs is the allow-list
// the menu resolver filters by: opaque menu IDs, never routes.
type User struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Role           Role     `json:"role"`
	AllowedMenuIDs []string `json:"allowed_menu_ids"`
}
