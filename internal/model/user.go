package model

// Role identifies the kind of account on the university network.
// It is assigned server-side at registration and carried on the user
// entity; it is never derived client-side from names or email text.
type Role string

const (
	RoleStudent   Role = "student"
	RoleProfessor Role = "professor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleProfessor
}

// User is a member profile as returned by the UniChat API.
type User struct {
	// ID is the server-assigned identifier.
	ID string `json:"_id"`

	// Username is the public display name.
	Username string `json:"username"`

	// Email is the account email address.
	Email string `json:"email"`

	// Role is the account kind (student or professor).
	Role Role `json:"role"`

	// UniversityID is the institutional identifier used at login.
	UniversityID string `json:"universityId"`

	// Bio is the free-text profile description.
	Bio string `json:"bio"`

	// Connections holds the ids of users this user is connected with.
	Connections []string `json:"connections"`
}

// IsConnectedTo reports whether other appears in the user's
// connections list.
func (u *User) IsConnectedTo(otherID string) bool {
	for _, id := range u.Connections {
		if id == otherID {
			return true
		}
	}
	return false
}
