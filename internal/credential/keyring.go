package credential

import (
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

const serviceName = "unichat"

// FileDirEnv overrides the file-backend directory and, when set,
// forces the file backend. Headless hosts and tests use it.
const FileDirEnv = "UNICHAT_CREDENTIALS_DIR"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	fileDir := "~/.config/unichat/credentials"
	backends := []keyring.BackendType{
		keyring.KeychainBackend,
		keyring.SecretServiceBackend,
		keyring.WinCredBackend,
		keyring.PassBackend,
		keyring.FileBackend,
	}
	if dir := os.Getenv(FileDirEnv); dir != "" {
		fileDir = dir
		backends = []keyring.BackendType{keyring.FileBackend}
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              serviceName,
		AllowedBackends:          backends,
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("unichat-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// Keys under which the session credentials are stored. These are the
// terminal equivalent of the web client's localStorage token/userId.
const (
	KeyToken  = "token"
	KeyUserID = "user-id"
)

// SaveSession persists the login token and user id.
func SaveSession(token, userID string) error {
	if err := Set(KeyToken, token); err != nil {
		return err
	}
	return Set(KeyUserID, userID)
}

// LoadSession retrieves the persisted token and user id. Both are
// empty when no session has been stored.
func LoadSession() (token, userID string, err error) {
	token, err = Get(KeyToken)
	if err != nil {
		return "", "", err
	}
	userID, err = Get(KeyUserID)
	if err != nil {
		return "", "", err
	}
	return token, userID, nil
}

// ClearSession removes any persisted session credentials.
func ClearSession() error {
	if err := Delete(KeyToken); err != nil {
		return err
	}
	return Delete(KeyUserID)
}
