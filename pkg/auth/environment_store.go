package auth

import (
	"os"
	"time"
)

// EnvironmentStore reads the token from CHATARCH_TOKEN. Read-only; useful for
// CI and one-off runs.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	token := os.Getenv("CHATARCH_TOKEN")
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = "default"
	}
	return &Account{
		Name:         name,
		Token:        token,
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv("CHATARCH_TOKEN") != ""
}
