package auth

import "golang.org/x/crypto/bcrypt"

// HashPin hashes a plaintext PIN with configured cost.
func HashPin(pin string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePin verifies a PIN against its hashed value.
func ComparePin(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
