package models

import "golang.org/x/crypto/bcrypt"

// RoleAdmin is the only role the system uses.
const RoleAdmin = "admin"

// Admin is the single bootstrap account every deployment of this system
// runs with. The password field always holds a bcrypt hash.
type Admin struct {
	Username string `bson:"username" json:"username"`
	Password string `bson:"password" json:"-"`
	Role     string `bson:"role" json:"role"`
}

// HashPassword returns the bcrypt hash stored for an admin password.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ValidatePassword checks a plaintext password against the stored hash.
func (a Admin) ValidatePassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(plain)) == nil
}
