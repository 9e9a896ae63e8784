package port

// PasswordPolicy decides whether a plain-text password may be stored. Inputs such as the
// username and email are fed to the strength estimator.
type PasswordPolicy interface {
	Validate(password string, inputs ...string) error
}

// PasswordHasher turns a plain-text password into the encoded hash kept on the user record.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
}
