package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost matches the 10 rounds the registration flow has always used.
const bcryptCost = 10

// HashPassword returns a salted one-way hash; the plaintext is never stored.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
