package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes pw with bcrypt at the default cost. The output embeds
// the salt and cost parameters, so verification needs no external state.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches hash. A malformed or empty hash
// verifies as false; there is no error path for "wrong password".
func CheckPassword(pw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
